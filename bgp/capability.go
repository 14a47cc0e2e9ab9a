package bgp

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Optional parameter type for capabilities per RFC 3392.
const capabilitiesParamType = 2

var afiNames = map[uint16]string{
	1:  "IPv4",
	2:  "IPv6",
	25: "L2VPN",
}

// DecodeCapabilities walks the OPEN optional parameters and collects every
// capability entry from type-2 ("Capabilities") parameters. A truncated
// header at either level stops the walk for that level; it is never an
// error since unknown or damaged advertisements from a peer are still
// worth inspecting.
func DecodeCapabilities(b []byte) []Capability {
	var caps []Capability

	i := 0
	for i < len(b) {
		if i+2 > len(b) {
			break // truncated optional parameter header
		}
		paramType := b[i]
		paramLen := int(b[i+1])
		i += 2

		end := i + paramLen
		if end > len(b) {
			end = len(b)
		}
		value := b[i:end]
		i = end

		if paramType != capabilitiesParamType {
			continue
		}

		j := 0
		for j < len(value) {
			if j+2 > len(value) {
				break // truncated capability header
			}
			code := value[j]
			capLen := int(value[j+1])
			j += 2

			capEnd := j + capLen
			if capEnd > len(value) {
				capEnd = len(value)
			}
			caps = append(caps, Capability{
				Code:   code,
				Length: uint8(capLen),
				Value:  value[j:capEnd],
			})
			j = capEnd
		}
	}

	return caps
}

// String renders the capability through the per-code table. Unrecognized
// codes fall back to a hex dump; they are never an error.
func (c Capability) String() string {
	switch c.Code {
	case CapMultiprotocol:
		if len(c.Value) < 4 {
			return fmt.Sprintf("Multiprotocol (invalid length %d)", len(c.Value))
		}
		afi := binary.BigEndian.Uint16(c.Value[0:2])
		safi := c.Value[3]
		name, ok := afiNames[afi]
		if !ok {
			name = fmt.Sprintf("Unknown AFI %d", afi)
		}
		return fmt.Sprintf("Multiprotocol: %s, SAFI %d", name, safi)

	case CapRouteRefresh:
		return "Route Refresh"

	case CapOutboundRouteFilter:
		return "Outbound Route Filtering"

	case CapExtendedNextHop:
		return "Extended Next Hop Encoding"

	case CapGracefulRestart:
		if len(c.Value) < 1 {
			return "Graceful Restart (invalid length 0)"
		}
		return fmt.Sprintf("Graceful Restart: restart time %ds", int(c.Value[0]&0x0f)*2)

	case CapFourOctetASN:
		if len(c.Value) != 4 {
			return fmt.Sprintf("Four-octet ASN (invalid length %d)", len(c.Value))
		}
		return fmt.Sprintf("Four-octet ASN: AS%d", binary.BigEndian.Uint32(c.Value))

	case CapDynamic:
		return "Dynamic Capability"

	case CapEnhancedRouteRefresh:
		return "Enhanced Route Refresh"
	}

	return fmt.Sprintf("Unknown capability %d (value %s)", c.Code, hex.EncodeToString(c.Value))
}

// MarshalJSON exposes the raw value as hex alongside the readable string.
func (c Capability) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code     uint8  `json:"code"`
		Length   uint8  `json:"length"`
		Value    string `json:"value"`
		Readable string `json:"readable"`
	}{
		Code:     c.Code,
		Length:   c.Length,
		Value:    hex.EncodeToString(c.Value),
		Readable: c.String(),
	})
}

// DescribePathAttribute renders a single path attribute value through the
// per-code table. AS_PATH is deliberately left as a hex dump.
func DescribePathAttribute(code uint8, value []byte) string {
	switch code {
	case OriginAttr:
		origin := "Unknown"
		if len(value) > 0 {
			switch value[0] {
			case OriginIGP:
				origin = "IGP"
			case OriginEGP:
				origin = "EGP"
			case OriginIncomplete:
				origin = "INCOMPLETE"
			}
		}
		return "ORIGIN=" + origin

	case ASPathAttr:
		return "AS_PATH=" + hex.EncodeToString(value)

	case NextHopAttr:
		if len(value) == 4 {
			return fmt.Sprintf("NEXT_HOP=%d.%d.%d.%d", value[0], value[1], value[2], value[3])
		}

	case MEDAttr:
		if len(value) == 4 {
			return fmt.Sprintf("MED=%d", binary.BigEndian.Uint32(value))
		}

	case LocalPrefAttr:
		if len(value) == 4 {
			return fmt.Sprintf("LOCAL_PREF=%d", binary.BigEndian.Uint32(value))
		}
	}

	return fmt.Sprintf("Attr[%d]=%s", code, hex.EncodeToString(value))
}
