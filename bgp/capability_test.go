package bgp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []Capability
	}{
		{
			name:     "empty",
			input:    []byte{},
			expected: nil,
		},
		{
			name: "single multiprotocol",
			input: []byte{
				2, 6, // param type 2, length 6
				1, 4, 0, 1, 0, 1, // MP: AFI 1, SAFI 1
			},
			expected: []Capability{
				{Code: CapMultiprotocol, Length: 4, Value: []byte{0, 1, 0, 1}},
			},
		},
		{
			name: "two capabilities in one parameter",
			input: []byte{
				2, 8,
				2, 0, // route refresh, empty value
				65, 4, 0, 1, 0, 1, // four-octet ASN
				// trailing second parameter of a non-capability type
				1, 2, 0xaa, 0xbb,
			},
			expected: []Capability{
				{Code: CapRouteRefresh, Length: 0, Value: []byte{}},
				{Code: CapFourOctetASN, Length: 4, Value: []byte{0, 1, 0, 1}},
			},
		},
		{
			name: "non capability parameter skipped",
			input: []byte{
				1, 4, 0xde, 0xad, 0xbe, 0xef, // auth parameter, ignored
				2, 2, 64, 0, // graceful restart, empty value
			},
			expected: []Capability{
				{Code: CapGracefulRestart, Length: 0, Value: []byte{}},
			},
		},
		{
			name: "truncated capability header stops the inner walk",
			input: []byte{
				2, 3,
				2, 0, // route refresh
				65, // lone code byte, no length
			},
			expected: []Capability{
				{Code: CapRouteRefresh, Length: 0, Value: []byte{}},
			},
		},
		{
			name:     "truncated parameter header stops the outer walk",
			input:    []byte{2},
			expected: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			caps := DecodeCapabilities(test.input)
			require.Len(t, caps, len(test.expected))
			for i, want := range test.expected {
				assert.Equal(t, want.Code, caps[i].Code)
				assert.Equal(t, want.Length, caps[i].Length)
				assert.Equal(t, want.Value, caps[i].Value)
			}
		})
	}
}

func TestCapabilityString(t *testing.T) {
	tests := []struct {
		name     string
		cap      Capability
		expected string
	}{
		{
			name:     "multiprotocol ipv4",
			cap:      Capability{Code: CapMultiprotocol, Value: []byte{0, 1, 0, 1}},
			expected: "Multiprotocol: IPv4, SAFI 1",
		},
		{
			name:     "multiprotocol ipv6 unicast",
			cap:      Capability{Code: CapMultiprotocol, Value: []byte{0, 2, 0, 1}},
			expected: "Multiprotocol: IPv6, SAFI 1",
		},
		{
			name:     "multiprotocol l2vpn",
			cap:      Capability{Code: CapMultiprotocol, Value: []byte{0, 25, 0, 128}},
			expected: "Multiprotocol: L2VPN, SAFI 128",
		},
		{
			name:     "multiprotocol unknown afi",
			cap:      Capability{Code: CapMultiprotocol, Value: []byte{0, 3, 0, 1}},
			expected: "Multiprotocol: Unknown AFI 3, SAFI 1",
		},
		{
			name:     "multiprotocol short value",
			cap:      Capability{Code: CapMultiprotocol, Value: []byte{0, 1}},
			expected: "Multiprotocol (invalid length 2)",
		},
		{
			name:     "route refresh",
			cap:      Capability{Code: CapRouteRefresh},
			expected: "Route Refresh",
		},
		{
			name:     "outbound route filtering",
			cap:      Capability{Code: CapOutboundRouteFilter},
			expected: "Outbound Route Filtering",
		},
		{
			name:     "extended next hop",
			cap:      Capability{Code: CapExtendedNextHop},
			expected: "Extended Next Hop Encoding",
		},
		{
			name: "graceful restart masks the flag nibble",
			// 0x91 = restart flag set, low nibble 1 of the 12-bit time
			cap:      Capability{Code: CapGracefulRestart, Value: []byte{0x91, 0x2c}},
			expected: "Graceful Restart: restart time 2s",
		},
		{
			name:     "graceful restart empty value",
			cap:      Capability{Code: CapGracefulRestart, Value: []byte{}},
			expected: "Graceful Restart (invalid length 0)",
		},
		{
			name:     "four octet asn",
			cap:      Capability{Code: CapFourOctetASN, Value: []byte{0, 1, 0, 1}},
			expected: "Four-octet ASN: AS65537",
		},
		{
			name:     "four octet asn wrong length",
			cap:      Capability{Code: CapFourOctetASN, Value: []byte{0, 1, 0}},
			expected: "Four-octet ASN (invalid length 3)",
		},
		{
			name:     "dynamic",
			cap:      Capability{Code: CapDynamic},
			expected: "Dynamic Capability",
		},
		{
			name:     "enhanced route refresh",
			cap:      Capability{Code: CapEnhancedRouteRefresh},
			expected: "Enhanced Route Refresh",
		},
		{
			name:     "unknown code dumps hex",
			cap:      Capability{Code: 200, Value: []byte{0xca, 0xfe}},
			expected: "Unknown capability 200 (value cafe)",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.cap.String())
		})
	}
}

func TestCapabilityMarshalJSON(t *testing.T) {
	c := Capability{Code: CapFourOctetASN, Length: 4, Value: []byte{0, 1, 0, 1}}

	out, err := json.Marshal(c)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, float64(65), got["code"])
	assert.Equal(t, float64(4), got["length"])
	assert.Equal(t, "00010001", got["value"])
	assert.Equal(t, "Four-octet ASN: AS65537", got["readable"])
}

func TestDescribePathAttribute(t *testing.T) {
	tests := []struct {
		name     string
		code     uint8
		value    []byte
		expected string
	}{
		{"origin igp", OriginAttr, []byte{0}, "ORIGIN=IGP"},
		{"origin egp", OriginAttr, []byte{1}, "ORIGIN=EGP"},
		{"origin incomplete", OriginAttr, []byte{2}, "ORIGIN=INCOMPLETE"},
		{"origin out of range", OriginAttr, []byte{7}, "ORIGIN=Unknown"},
		{"origin empty", OriginAttr, []byte{}, "ORIGIN=Unknown"},
		{"as path hex", ASPathAttr, []byte{2, 1, 0xfd, 0xe9}, "AS_PATH=0201fde9"},
		{"next hop", NextHopAttr, []byte{192, 0, 2, 1}, "NEXT_HOP=192.0.2.1"},
		{"next hop wrong length", NextHopAttr, []byte{192, 0, 2}, "Attr[3]=c00002"},
		{"med", MEDAttr, []byte{0, 0, 0, 50}, "MED=50"},
		{"med wrong length", MEDAttr, []byte{50}, "Attr[4]=32"},
		{"local pref", LocalPrefAttr, []byte{0, 0, 0, 100}, "LOCAL_PREF=100"},
		{"unassigned code", 99, []byte{0xab}, "Attr[99]=ab"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, DescribePathAttribute(test.code, test.value))
		})
	}
}
