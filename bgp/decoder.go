package bgp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// Header is a validated BGP message header.
type Header struct {
	Length uint16
	Type   uint8
}

// DecodeHeader validates the 19-byte message header: full marker of 0xff
// octets and a sane declared length.
func DecodeHeader(data []byte) (Header, error) {
	var hdr Header

	if len(data) < HeaderLen {
		return hdr, fmt.Errorf("message too short for BGP: %d bytes", len(data))
	}

	for i := 0; i < MarkerLen; i++ {
		if data[i] != 0xff {
			return hdr, fmt.Errorf("invalid marker at offset %d", i)
		}
	}

	hdr.Length = binary.BigEndian.Uint16(data[MarkerLen : MarkerLen+2])
	hdr.Type = data[MarkerLen+2]

	if hdr.Length < MinLen || hdr.Length > MaxLen {
		return hdr, fmt.Errorf("invalid length in header: %d", hdr.Length)
	}

	return hdr, nil
}

// Decode parses a single BGP frame into a Message. It never fails: any
// malformed input yields an Unknown body carrying a diagnostic reason, so
// one bad frame can never end the read loop. Bytes past the declared frame
// length are ignored.
func Decode(data []byte, direction Direction) Message {
	msg := Message{
		Timestamp: time.Now(),
		Direction: direction,
		Length:    len(data),
	}

	hdr, err := DecodeHeader(data)
	if err != nil {
		msg.Body = Unknown{Raw: data, Reason: err.Error()}
		return msg
	}

	end := int(hdr.Length)
	if end > len(data) {
		end = len(data)
	}
	payload := data[HeaderLen:end]

	switch hdr.Type {
	case OpenMsg:
		open, err := decodeOpen(data)
		if err != nil {
			msg.Body = Unknown{Raw: data, Reason: fmt.Sprintf("failed to decode OPEN: %v", err)}
			return msg
		}
		msg.Body = open

	case UpdateMsg:
		update, err := decodeUpdate(payload)
		if err != nil {
			msg.Body = Unknown{Raw: data, Reason: fmt.Sprintf("failed to decode UPDATE: %v (raw %s)", err, hex.EncodeToString(data))}
			return msg
		}
		msg.Body = update

	case NotificationMsg:
		if len(payload) < 2 {
			msg.Body = Unknown{Raw: data, Reason: "NOTIFICATION payload shorter than 2 bytes"}
			return msg
		}
		msg.Body = Notification{
			ErrorCode:    payload[0],
			ErrorSubcode: payload[1],
			Data:         payload[2:],
		}

	case KeepaliveMsg:
		if hdr.Length != keepaliveMsgLen {
			msg.Body = Unknown{Raw: data, Reason: fmt.Sprintf("KEEPALIVE should be 19 bytes, got %d", hdr.Length)}
			return msg
		}
		msg.Body = Keepalive{}

	default:
		msg.Body = Unknown{Raw: data, Reason: fmt.Sprintf("unsupported message type %d", hdr.Type)}
	}

	return msg
}

// decodeOpen unpacks an OPEN frame. data is the whole frame including the
// header since the fixed OPEN body starts at a known offset.
func decodeOpen(data []byte) (Open, error) {
	var open Open

	if len(data) < openMsgLen {
		return open, fmt.Errorf("too short for OPEN: %d bytes", len(data))
	}

	open.Version = data[19]
	open.ASNumber = binary.BigEndian.Uint16(data[20:22])
	open.HoldTime = binary.BigEndian.Uint16(data[22:24])
	open.RouterID = fmt.Sprintf("%d.%d.%d.%d", data[24], data[25], data[26], data[27])

	optLen := int(data[28])
	if optLen > 0 {
		if openMsgLen+optLen > len(data) {
			return open, fmt.Errorf("optional parameters length %d exceeds available %d bytes", optLen, len(data)-openMsgLen)
		}
		open.Capabilities = DecodeCapabilities(data[openMsgLen : openMsgLen+optLen])
	}

	return open, nil
}

// decodeUpdate walks the three variable-length UPDATE sections in wire
// order: withdrawn routes, path attributes, NLRI.
func decodeUpdate(payload []byte) (Update, error) {
	update := Update{
		WithdrawnRoutes: []string{},
		PathAttributes:  []PathAttribute{},
		NLRI:            []string{},
	}

	if len(payload) < 2 {
		return update, fmt.Errorf("truncated withdrawn routes length")
	}
	withdrawnLen := int(binary.BigEndian.Uint16(payload[0:2]))
	pos := 2

	withdrawn, pos, err := decodePrefixes(payload, pos, withdrawnLen)
	if err != nil {
		return update, fmt.Errorf("withdrawn routes: %v", err)
	}
	update.WithdrawnRoutes = withdrawn

	if pos+2 > len(payload) {
		return update, fmt.Errorf("truncated path attribute length")
	}
	attrLen := int(binary.BigEndian.Uint16(payload[pos : pos+2]))
	pos += 2

	attrEnd := pos + attrLen
	if attrEnd > len(payload) {
		return update, fmt.Errorf("path attribute length %d exceeds payload", attrLen)
	}

	for pos < attrEnd {
		if pos+2 > attrEnd {
			return update, fmt.Errorf("truncated path attribute header")
		}
		flags := payload[pos]
		code := payload[pos+1]
		pos += 2

		// Bit 4 of the flags selects the width of this attribute's own
		// length field, independent of any other attribute.
		var length int
		if flags&0x10 != 0 {
			if pos+2 > attrEnd {
				return update, fmt.Errorf("truncated extended attribute length")
			}
			length = int(binary.BigEndian.Uint16(payload[pos : pos+2]))
			pos += 2
		} else {
			if pos+1 > attrEnd {
				return update, fmt.Errorf("truncated attribute length")
			}
			length = int(payload[pos])
			pos++
		}

		if pos+length > attrEnd {
			return update, fmt.Errorf("attribute %d value exceeds declared section", code)
		}
		value := payload[pos : pos+length]
		pos += length

		update.PathAttributes = append(update.PathAttributes, PathAttribute{
			Flags:    flags,
			Code:     code,
			Length:   uint16(length),
			Value:    hex.EncodeToString(value),
			Readable: DescribePathAttribute(code, value),
		})
	}

	nlri, _, err := decodePrefixes(payload, pos, len(payload)-pos)
	if err != nil {
		return update, fmt.Errorf("nlri: %v", err)
	}
	update.NLRI = nlri

	return update, nil
}

// decodePrefixes reads length bytes of NLRI-encoded prefixes starting at
// pos: a one-byte prefix length in bits followed by ceil(len/8) address
// octets. Missing low-order octets are zero, never taken from neighboring
// data.
func decodePrefixes(b []byte, pos, length int) ([]string, int, error) {
	end := pos + length
	if end > len(b) {
		return nil, pos, fmt.Errorf("declared length %d exceeds payload", length)
	}

	prefixes := []string{}
	for pos < end {
		plen := b[pos]
		pos++
		if plen > 32 {
			return nil, pos, fmt.Errorf("invalid prefix length %d", plen)
		}

		n := (int(plen) + 7) / 8
		if pos+n > end {
			return nil, pos, fmt.Errorf("truncated prefix of length %d", plen)
		}

		var addr [4]byte
		copy(addr[:], b[pos:pos+n])
		pos += n

		prefixes = append(prefixes, fmt.Sprintf("%d.%d.%d.%d/%d", addr[0], addr[1], addr[2], addr[3], plen))
	}

	return prefixes, pos, nil
}
