package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/modbusdash/internal/logging"
)

const (
	// ServiceType is the mDNS service type gateways advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for gateway discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the gateway's default HTTP port
	DefaultPort = 5000

	// marker identifies modbus gateways among generic HTTP services
	marker = "modbus"
)

// Scanner handles mDNS gateway discovery
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses the local network until the timeout elapses or ctx is
// cancelled and returns the gateways found, sorted by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		gateways []*Gateway
		seen     = make(map[string]bool)
	)

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			gw := parseServiceEntry(entry)
			if gw == nil {
				continue
			}
			url := gw.BaseURL()
			mu.Lock()
			if !seen[url] {
				seen[url] = true
				gateways = append(gateways, gw)
				logging.Debug("Discovered gateway", zap.String("instance", gw.Instance), zap.String("url", url))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	result := make([]*Gateway, len(gateways))
	copy(result, gateways)
	sortGateways(result)
	return result, nil
}

// parseServiceEntry converts a zeroconf service entry to a Gateway.
// Returns nil for services that are not modbus gateways or have no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Gateway {
	if entry == nil {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	if !isGateway(entry.Instance, entry.HostName, metadata) {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Gateway{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

func isGateway(instance, hostname string, metadata map[string]string) bool {
	if strings.Contains(strings.ToLower(instance), marker) ||
		strings.Contains(strings.ToLower(hostname), marker) {
		return true
	}
	if _, ok := metadata[marker]; ok {
		return true
	}
	return strings.Contains(strings.ToLower(metadata["service"]), marker)
}

func sortGateways(gws []*Gateway) {
	sort.Slice(gws, func(i, j int) bool {
		if gws[i].Instance != gws[j].Instance {
			return gws[i].Instance < gws[j].Instance
		}
		return gws[i].BaseURL() < gws[j].BaseURL()
	})
}

// ScanForGateways is a convenience function to scan with a custom timeout
func ScanForGateways(ctx context.Context, timeout time.Duration) ([]*Gateway, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
