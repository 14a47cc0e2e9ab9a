package bgp

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// Session owns the TCP connection to the peer and the two background
// loops running over it: the keepalive sender and the inbound reader. All
// mutable fields are guarded by mu; the loops never touch them directly.
//
// There is no reconnect logic. A failed dial or a lost connection returns
// the session to idle and recovery takes an explicit Start call.
type Session struct {
	mu           sync.Mutex
	cfg          SessionConfig
	state        State
	conn         net.Conn
	done         chan struct{}
	startTime    time.Time
	lastActivity time.Time
	sent         uint64
	received     uint64

	msgLog *MessageLog
}

// NewSession builds an idle session for the given config.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		msgLog: NewMessageLog(DefaultRetention),
	}, nil
}

// Start dials the peer, sends the OPEN frame and launches the keepalive
// sender and the inbound reader. It fails with ErrAlreadyConnected unless
// the session is idle, and with ErrConnectionFailed when the transport
// cannot be established; in the latter case the session is left idle.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	cfg := s.cfg
	s.mu.Unlock()

	open, err := EncodeOpen(cfg)
	if err != nil {
		s.setIdle()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	conn, err := net.Dial("tcp", cfg.RemoteAddr())
	if err != nil {
		s.setIdle()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	now := time.Now()
	done := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.state = StateEstablished
	s.done = done
	s.startTime = now
	s.lastActivity = now
	s.sent = 0
	s.received = 0
	s.mu.Unlock()

	log.Printf("BGP session established with %s (AS%d, hold time %ds)",
		cfg.RemoteAddr(), cfg.ASNumber, cfg.HoldTime)

	if err := s.send(open); err != nil {
		s.Stop()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	go s.keepaliveLoop(done, cfg.HoldTime)
	go s.readLoop(conn, done)

	return nil
}

// Stop tears the session down: it cancels both background loops, closes
// the socket and returns to idle. It is idempotent and safe to call from
// the reader when the peer closes the connection.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing

	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing BGP connection: %v", err)
		}
		s.conn = nil
	}

	s.state = StateIdle
	s.mu.Unlock()

	log.Printf("BGP session stopped")
}

// UpdateConfig replaces the frozen config wholesale. It fails with
// ErrSessionActive unless the session is idle.
func (s *Session) UpdateConfig(cfg SessionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrSessionActive
	}
	s.cfg = cfg
	return nil
}

// Config returns the current session config.
func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Status returns a point-in-time copy of the connection status.
func (s *Session) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ConnectionStatus{
		Connected:           s.state == StateEstablished,
		State:               s.state.String(),
		Config:              s.cfg,
		LastActivity:        s.lastActivity,
		MessagesSent:        s.sent,
		MessagesReceived:    s.received,
		ConnectionStartTime: s.startTime,
	}
}

// Stats returns the message counters with the uptime computed at read time,
// only while connected.
func (s *Session) Stats() Stats {
	stats := s.msgLog.Counters()

	s.mu.Lock()
	if s.state == StateEstablished && !s.startTime.IsZero() {
		stats.ConnectionUptime = time.Since(s.startTime).Round(time.Second).String()
	}
	s.mu.Unlock()

	return stats
}

// MessageLog returns the most recent limit log entries, newest last.
func (s *Session) MessageLog(limit int) []Message {
	return s.msgLog.Recent(limit)
}

// send writes one frame to the peer under the session lock and logs it
// fully decoded: sent frames get the same treatment as received ones.
func (s *Session) send(frame []byte) error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return fmt.Errorf("connection is closed")
	}
	if _, err := conn.Write(frame); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to write frame: %w", err)
	}
	s.sent++
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.msgLog.Append(Decode(frame, DirectionSent))
	return nil
}

// keepaliveLoop sends a KEEPALIVE every holdTime/3 seconds. A write failure
// only stops this loop; the reader observing the dead connection is what
// tears the session down.
func (s *Session) keepaliveLoop(done <-chan struct{}, holdTime uint16) {
	interval := time.Duration(holdTime/3) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.send(EncodeKeepalive()); err != nil {
				log.Printf("Error sending keepalive: %v", err)
				return
			}
		}
	}
}

// readLoop reads from the peer until the connection dies. Each read is
// decoded and logged; decode problems surface as Unknown log entries and
// never end the loop. A zero-length read means the peer closed the
// connection and triggers Stop.
func (s *Session) readLoop(conn net.Conn, done <-chan struct{}) {
	buf := make([]byte, MaxRead)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-done:
				// Stop already ran; the read failed because it closed the socket.
			default:
				log.Printf("BGP connection closed by peer or transport error: %v", err)
				s.Stop()
			}
			return
		}
		if n == 0 {
			continue
		}

		s.mu.Lock()
		s.lastActivity = time.Now()
		s.received++
		s.mu.Unlock()

		data := make([]byte, n)
		copy(data, buf[:n])
		s.msgLog.Append(Decode(data, DirectionReceived))
	}
}

func (s *Session) setIdle() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}
