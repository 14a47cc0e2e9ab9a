package bgp

import "sync"

// MessageLog is a bounded FIFO history of decoded messages plus the running
// per-type counters. It is owned by the Session; the keepalive sender and
// the inbound reader append concurrently.
type MessageLog struct {
	mu      sync.Mutex
	entries []Message
	max     int
	stats   Stats
}

// NewMessageLog returns a log retaining at most max entries; max <= 0 falls
// back to DefaultRetention.
func NewMessageLog(max int) *MessageLog {
	if max <= 0 {
		max = DefaultRetention
	}
	return &MessageLog{max: max}
}

// Append records a message and bumps the matching counters, evicting the
// oldest entry once the retention limit is exceeded. A message without a
// body is a no-op sentinel and is ignored.
func (l *MessageLog) Append(msg Message) {
	if msg.Body == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, msg)
	if len(l.entries) > l.max {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.max]
	}

	if msg.Direction == DirectionSent {
		l.stats.TotalMessagesSent++
	} else {
		l.stats.TotalMessagesReceived++
	}

	switch msg.Body.(type) {
	case Open:
		l.stats.OpenMessages++
	case Keepalive:
		l.stats.KeepaliveMessages++
	case Update:
		l.stats.UpdateMessages++
	case Notification:
		l.stats.NotificationMessages++
	case Unknown:
		l.stats.UnknownMessages++
	}
}

// Recent returns the most recent limit entries in insertion order, newest
// last. limit <= 0 returns an empty slice.
func (l *MessageLog) Recent(limit int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return []Message{}
	}
	if limit > len(l.entries) {
		limit = len(l.entries)
	}

	out := make([]Message, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out
}

// Len returns the current number of retained entries.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Counters returns a copy of the running counters. ConnectionUptime is left
// empty here; the Session fills it in when connected.
func (l *MessageLog) Counters() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
