package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/matishsiao/goInfo"
	"github.com/oschwald/geoip2-golang"
)

func getOsUname() string {
	gi, _ := goInfo.GetInfo()
	platform := gi.Platform
	if strings.ToLower(platform) == "unknown" {
		platform = runtime.GOARCH
	}
	return fmt.Sprintf("%s %s %s", gi.Kernel, gi.Core, platform)
}

func countConnections(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		// It's fine if the system doesn't support IPv6, just return 0
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	count := 0

	firstLine := true
	for scanner.Scan() {
		if firstLine {
			firstLine = false // skip header
			continue
		}
		count++
	}
	return count, scanner.Err()
}

func getTcpConnections() int {
	tcp4, _ := countConnections("/proc/net/tcp")
	tcp6, _ := countConnections("/proc/net/tcp6")
	return tcp4 + tcp6
}

func getUdpConnections() int {
	udp4, _ := countConnections("/proc/net/udp")
	udp6, _ := countConnections("/proc/net/udp6")
	return udp4 + udp6
}

func getUptimeSeconds() float64 {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0
	}
	parts := strings.Fields(string(data))
	if len(parts) < 1 {
		return 0
	}
	uptime, _ := strconv.ParseFloat(parts[0], 64)
	return uptime
}

// lookupCountry resolves the peer host and returns its ISO country code
// from the MaxMind database, or "" when the lookup cannot be done.
func lookupCountry(geo *geoip2.Reader, host string) string {
	if geo == nil || host == "" {
		return ""
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return ""
		}
		ip = ips[0]
	}

	record, err := geo.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}
