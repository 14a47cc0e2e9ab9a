package main

import (
	"sync"
	"time"

	"github.com/go-ping/ping"
)

// rttMonitor holds the latest RTT probe result for the configured peer.
type rttMonitor struct {
	mu        sync.Mutex
	currentMs int64
	lastProbe time.Time
}

func newRttMonitor() *rttMonitor {
	return &rttMonitor{currentMs: -1}
}

func (m *rttMonitor) set(ms int64) {
	m.mu.Lock()
	m.currentMs = ms
	m.lastProbe = time.Now()
	m.mu.Unlock()
}

// CurrentMs returns the last measured RTT in milliseconds, -1 when the
// peer has never answered.
func (m *rttMonitor) CurrentMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentMs
}

// rttTask probes the peer host with ICMP echo on the configured interval.
// It runs for the process lifetime; a zero interval disables it.
func rttTask(cfg *config, mon *rttMonitor) {
	if cfg.Metric.RttInterval <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.Metric.RttInterval) * time.Second)
	defer ticker.Stop()

	logger.Printf("Starting peer RTT probe for %s every %ds", cfg.BGP.RemoteHost, cfg.Metric.RttInterval)

	for range ticker.C {
		mon.set(icmpPingAverage(cfg.BGP.RemoteHost, cfg.Metric.PingCount, cfg.Metric.PingTimeout))
	}
}

// icmpPingAverage returns the average RTT in milliseconds over tries echo
// requests, or -1 when nothing came back.
func icmpPingAverage(address string, tries, timeoutSeconds int) int64 {
	pinger, err := ping.NewPinger(address)
	if err != nil {
		return -1
	}

	// Needs root privileges for ICMP or NET capabilities
	pinger.SetPrivileged(true)

	pinger.Count = tries
	pinger.Timeout = time.Duration(timeoutSeconds) * time.Second
	pinger.Interval = time.Second

	if err := pinger.Run(); err != nil {
		return -1
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return -1
	}

	return stats.AvgRtt.Milliseconds()
}
