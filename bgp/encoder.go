package bgp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
)

const (
	openMsgLen      = 29
	keepaliveMsgLen = 19
)

// EncodeOpen builds the 29-byte OPEN frame for the given config. The
// optional parameters length is always zero: capability negotiation is
// receive-only in this tool.
func EncodeOpen(cfg SessionConfig) ([]byte, error) {
	id, err := routerIDBytes(cfg.RouterID)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, openMsgLen))
	encodeHeader(buf, openMsgLen, OpenMsg)

	buf.WriteByte(cfg.Version)
	writeUint16(buf, cfg.ASNumber)
	writeUint16(buf, cfg.HoldTime)
	buf.Write(id[:])
	buf.WriteByte(0) // no optional parameters

	return buf.Bytes(), nil
}

// EncodeKeepalive builds the fixed 19-byte KEEPALIVE frame.
func EncodeKeepalive() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, keepaliveMsgLen))
	encodeHeader(buf, keepaliveMsgLen, KeepaliveMsg)
	return buf.Bytes()
}

func encodeHeader(buf *bytes.Buffer, length uint16, typ uint8) {
	for i := 0; i < MarkerLen; i++ {
		buf.WriteByte(0xff)
	}
	writeUint16(buf, length)
	buf.WriteByte(typ)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	buf.Write(b)
}

// routerIDBytes parses a dotted-quad router ID into its four wire octets.
func routerIDBytes(id string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(id)
	if ip == nil {
		return out, fmt.Errorf("invalid router ID: %q", id)
	}
	v4 := ip.To4()
	if v4 == nil {
		return out, fmt.Errorf("router ID must be an IPv4 address: %q", id)
	}
	copy(out[:], v4)
	return out, nil
}
