// Package bgp implements a minimal BGP-4 peering session handler: it opens a
// TCP connection to a single peer, performs the OPEN/KEEPALIVE exchange,
// decodes inbound messages into structured records and keeps a bounded
// history for inspection. It is a diagnostic tool, not a conformant speaker:
// there is no FSM validation, no RIB and no route selection.
package bgp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	MarkerLen = 16
	HeaderLen = 19
	MinLen    = 19
	MaxLen    = 4096

	// MaxRead is the read buffer size of the inbound reader.
	MaxRead = 4096

	OpenMsg         = 1
	UpdateMsg       = 2
	NotificationMsg = 3
	KeepaliveMsg    = 4

	// Path attribute type codes
	OriginAttr    = 1
	ASPathAttr    = 2
	NextHopAttr   = 3
	MEDAttr       = 4
	LocalPrefAttr = 5

	// ORIGIN values
	OriginIGP        = 0
	OriginEGP        = 1
	OriginIncomplete = 2

	// Capability codes
	CapMultiprotocol        = 1
	CapRouteRefresh         = 2
	CapOutboundRouteFilter  = 3
	CapExtendedNextHop      = 5
	CapGracefulRestart      = 64
	CapFourOctetASN         = 65
	CapDynamic              = 67
	CapEnhancedRouteRefresh = 70

	// DefaultRetention is the message log size; the oldest entry is evicted
	// once the log grows past it.
	DefaultRetention = 1000
)

// Errors surfaced by Session operations. Decode failures never surface as
// errors; they become Unknown messages in the log.
var (
	ErrAlreadyConnected = errors.New("bgp session already active")
	ErrSessionActive    = errors.New("cannot update config while session is active")
	ErrConnectionFailed = errors.New("failed to establish bgp session")
)

// Direction tells whether a logged message was sent to or received from the peer.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateEstablished
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// SessionConfig holds the connection parameters of a session. It is frozen
// while the session is active; UpdateConfig replaces it wholesale when idle.
type SessionConfig struct {
	ASNumber   uint16 `json:"asNumber"`
	RouterID   string `json:"routerId"`
	HoldTime   uint16 `json:"holdTime"`
	Version    uint8  `json:"version"`
	RemoteHost string `json:"remoteHost"`
	RemotePort int    `json:"remotePort"`
}

// Validate checks that the config can produce a valid OPEN message and a
// dialable peer address.
func (c SessionConfig) Validate() error {
	if _, err := routerIDBytes(c.RouterID); err != nil {
		return err
	}
	if c.RemoteHost == "" {
		return errors.New("remote host must not be empty")
	}
	if c.RemotePort <= 0 || c.RemotePort > 65535 {
		return fmt.Errorf("invalid remote port: %d", c.RemotePort)
	}
	if c.HoldTime == 0 {
		return errors.New("hold time must not be zero")
	}
	return nil
}

// RemoteAddr returns the peer address in host:port form.
func (c SessionConfig) RemoteAddr() string {
	return net.JoinHostPort(c.RemoteHost, fmt.Sprintf("%d", c.RemotePort))
}

// ConnectionStatus is a point-in-time view of the session, read by the
// status-reporting layer.
type ConnectionStatus struct {
	Connected           bool          `json:"connected"`
	State               string        `json:"state"`
	Config              SessionConfig `json:"config"`
	LastActivity        time.Time     `json:"lastActivity"`
	MessagesSent        uint64        `json:"messagesSent"`
	MessagesReceived    uint64        `json:"messagesReceived"`
	ConnectionStartTime time.Time     `json:"connectionStartTime"`
}

// Stats holds running message counters. ConnectionUptime is derived at
// snapshot time, never stored.
type Stats struct {
	TotalMessagesSent     uint64 `json:"totalMessagesSent"`
	TotalMessagesReceived uint64 `json:"totalMessagesReceived"`
	OpenMessages          uint64 `json:"openMessages"`
	KeepaliveMessages     uint64 `json:"keepaliveMessages"`
	UpdateMessages        uint64 `json:"updateMessages"`
	NotificationMessages  uint64 `json:"notificationMessages"`
	UnknownMessages       uint64 `json:"unknownMessages"`
	ConnectionUptime      string `json:"connectionUptime,omitempty"`
}

// Message is one decoded BGP frame, sent or received. Length is the exact
// byte length of the frame the message was derived from.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Length    int       `json:"length"`
	Body      Body      `json:"-"`
}

// Body is the closed set of message variants. Exactly one of Open,
// Keepalive, Update, Notification and Unknown implements it.
type Body interface {
	// Kind returns the BGP message type name.
	Kind() string
}

// Open is a decoded OPEN message.
type Open struct {
	Version      uint8        `json:"version"`
	ASNumber     uint16       `json:"asNumber"`
	HoldTime     uint16       `json:"holdTime"`
	RouterID     string       `json:"routerId"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

func (Open) Kind() string { return "OPEN" }

// Keepalive is a decoded KEEPALIVE message. It carries no payload.
type Keepalive struct{}

func (Keepalive) Kind() string { return "KEEPALIVE" }

// Update is a decoded UPDATE message. Prefixes are rendered as strings in
// a.b.c.d/len form with missing low-order octets zero-padded.
type Update struct {
	WithdrawnRoutes []string        `json:"withdrawnRoutes"`
	PathAttributes  []PathAttribute `json:"pathAttributes"`
	NLRI            []string        `json:"nlri"`
}

func (Update) Kind() string { return "UPDATE" }

// Notification is a decoded NOTIFICATION message. Data is opaque diagnostic
// payload after the two code octets.
type Notification struct {
	ErrorCode    uint8  `json:"errorCode"`
	ErrorSubcode uint8  `json:"errorSubcode"`
	Data         []byte `json:"data,omitempty"`
}

func (Notification) Kind() string { return "NOTIFICATION" }

// Unknown is produced for any frame that cannot be decoded: bad marker,
// short frame, unsupported type or a malformed body. Reason is always a
// human-readable diagnostic.
type Unknown struct {
	Raw    []byte `json:"-"`
	Reason string `json:"reason"`
}

func (Unknown) Kind() string { return "UNKNOWN" }

// PathAttribute is one decoded UPDATE path attribute. Readable holds the
// per-code human projection computed at decode time.
type PathAttribute struct {
	Flags    uint8  `json:"flags"`
	Code     uint8  `json:"code"`
	Length   uint16 `json:"length"`
	Value    string `json:"value"`
	Readable string `json:"readable"`
}

// Capability is one capability advertised in an OPEN optional parameter.
type Capability struct {
	Code   uint8  `json:"code"`
	Length uint8  `json:"length"`
	Value  []byte `json:"-"`
}

// MarshalJSON projects the message union into a flat record. The switch is
// exhaustive over the Body variants so a new message kind cannot silently
// serialize wrong.
func (m Message) MarshalJSON() ([]byte, error) {
	type view struct {
		Timestamp time.Time `json:"timestamp"`
		Direction Direction `json:"direction"`
		Length    int       `json:"length"`
		Type      string    `json:"type"`
		Details   any       `json:"details"`
	}

	v := view{
		Timestamp: m.Timestamp,
		Direction: m.Direction,
		Length:    m.Length,
	}

	switch body := m.Body.(type) {
	case Open:
		v.Type, v.Details = body.Kind(), body
	case Keepalive:
		v.Type, v.Details = body.Kind(), body
	case Update:
		v.Type, v.Details = body.Kind(), body
	case Notification:
		v.Type, v.Details = body.Kind(), body
	case Unknown:
		v.Type, v.Details = body.Kind(), body
	default:
		return nil, fmt.Errorf("unhandled message body %T", m.Body)
	}

	return json.Marshal(v)
}
