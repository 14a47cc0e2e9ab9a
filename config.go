package main

import (
	"encoding/json"
	"os"

	"bgp_tester/bgp"
)

type serverConfig struct {
	Debug           bool     `json:"debug"` // Will print detail access log for debug
	Listen          string   `json:"listen"`
	ListenerType    string   `json:"listenerType"` // "tcp" (default) or "unix"
	BodyLimit       int      `json:"bodyLimit"`
	ReadTimeout     int      `json:"readTimeout"`
	WriteTimeout    int      `json:"writeTimeout"`
	IdleTimeout     int      `json:"idleTimeout"`
	ReadBufferSize  int      `json:"readBufferSize"`
	WriteBufferSize int      `json:"writeBufferSize"`
	TrustedProxies  []string `json:"trustedProxies"` // String array of IP or CIDR. X-Forwarded headers from these networks will be trusted.
}

type bgpConfig struct {
	ASNumber         uint16 `json:"asNumber"`
	RouterID         string `json:"routerId"`
	HoldTime         uint16 `json:"holdTime"`
	Version          uint8  `json:"version"`
	RemoteHost       string `json:"remoteHost"`
	RemotePort       int    `json:"remotePort"`
	ConnectOnStartup bool   `json:"connectOnStartup"` // Bring the session up at process start
}

type authConfig struct {
	AgentSecret          string `json:"agentSecret"`          // Bearer secret for the agent API; empty disables auth
	RouterUUID           string `json:"routerUuid"`           // Salt for inbound bcrypt bearer hashes
	PassthroughJwtSecret string `json:"passthroughJwtSecret"` // HMAC secret for config passthrough tokens
}

type metricConfig struct {
	RttInterval                   int    `json:"rttInterval"` // Peer RTT probe interval in seconds; 0 disables
	PingTimeout                   int    `json:"pingTimeout"` // Timeout for ping runs in seconds
	PingCount                     int    `json:"pingCount"`   // Number of echo requests per probe
	MaxMindGeoLiteCountryMmdbPath string `json:"maxMindGeoLiteCountryMmdbPath"`
}

type loggerConfig struct {
	File           string `json:"file"`
	MaxSize        int    `json:"maxSize"` // megabytes
	MaxBackups     int    `json:"maxBackups"`
	MaxAge         int    `json:"maxAge"` // days
	Compress       bool   `json:"compress"`
	ConsoleLogging bool   `json:"consoleLogging"`
}

type config struct {
	Server serverConfig `json:"server"`
	BGP    bgpConfig    `json:"bgp"`
	Auth   authConfig   `json:"auth"`
	Metric metricConfig `json:"metric"`
	Logger loggerConfig `json:"logger"`
}

const (
	defaultBGPPort    = 179
	defaultBGPVersion = 4
	defaultHoldTime   = 180
)

func loadConfig(filename string) (*config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &config{}

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}

	if cfg.BGP.RemotePort == 0 {
		cfg.BGP.RemotePort = defaultBGPPort
	}
	if cfg.BGP.Version == 0 {
		cfg.BGP.Version = defaultBGPVersion
	}
	if cfg.BGP.HoldTime == 0 {
		cfg.BGP.HoldTime = defaultHoldTime
	}
	if cfg.Metric.PingTimeout <= 0 {
		cfg.Metric.PingTimeout = 5
	}
	if cfg.Metric.PingCount <= 0 {
		cfg.Metric.PingCount = 3
	}

	return cfg, nil
}

// sessionConfig maps the file section onto the core session parameters.
func (c *bgpConfig) sessionConfig() bgp.SessionConfig {
	return bgp.SessionConfig{
		ASNumber:   c.ASNumber,
		RouterID:   c.RouterID,
		HoldTime:   c.HoldTime,
		Version:    c.Version,
		RemoteHost: c.RemoteHost,
		RemotePort: c.RemotePort,
	}
}
