package main

import "bgp_tester/bgp"

// AgentApiResponse is the envelope of every agent API reply.
type AgentApiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// StatusResponse is the connection status enriched with peer metadata that
// only the agent layer knows about.
type StatusResponse struct {
	bgp.ConnectionStatus
	PeerCountry string `json:"peerCountry,omitempty"`
}

// StatsResponse is the core counters plus the agent-side RTT probe result.
type StatsResponse struct {
	bgp.Stats
	PeerRttMs int64 `json:"peerRttMs"` // -1 when unknown
}

// ConfigUpdateRequest carries a full replacement session config. The
// optional passthrough token (HMAC JWT issued by the operator tooling) can
// override ASN and remote port.
type ConfigUpdateRequest struct {
	ASNumber    uint16 `json:"asNumber"`
	RouterID    string `json:"routerId"`
	HoldTime    uint16 `json:"holdTime"`
	Version     uint8  `json:"version"`
	RemoteHost  string `json:"remoteHost"`
	RemotePort  int    `json:"remotePort"`
	Passthrough string `json:"passthrough,omitempty"`
}

// PassthroughData holds the values decoded from the JWT passthrough.
type PassthroughData struct {
	ASN  uint16 `json:"asn"`
	Port int    `json:"port"`
}
