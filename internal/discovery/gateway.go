package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Gateway represents a modbusdash HTTP gateway found on the network
type Gateway struct {
	// Instance is the advertised service instance name (e.g., "Modbus Gateway")
	Instance string

	// Hostname is the mDNS hostname (e.g., "plc-bridge.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the HTTP port (typically 5000)
	Port int

	// Metadata contains the TXT record key/value pairs
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable representation of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("%s (%s) at %s", g.Instance, g.Hostname, g.BaseURL())
}

// BaseURL returns the HTTP base URL for the gateway
func (g *Gateway) BaseURL() string {
	path := g.GetMetadata("path")
	if path == "/" {
		path = ""
	}
	return "http://" + net.JoinHostPort(g.IP, strconv.Itoa(g.Port)) + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
