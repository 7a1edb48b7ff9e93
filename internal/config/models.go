package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CurrentVersion is the config file schema version
const CurrentVersion = 1

// Environment variables that override the config file
const (
	EnvGateway    = "MODBUSDASH_GATEWAY"
	EnvModbusHost = "MODBUS_HOST"
	EnvModbusPort = "MODBUS_PORT"
	EnvModbusUnit = "MODBUS_UNIT_ID"
	EnvLogLevel   = "MODBUSDASH_LOG_LEVEL"
)

// Registry represents the entire user configuration file.
// It stores application preferences and remembered gateways.
type Registry struct {
	Version     int                 `yaml:"version"`
	Preferences *Preferences        `yaml:"preferences,omitempty"`
	Gateways    map[string]*Gateway `yaml:"gateways,omitempty"` // Keyed by gateway base URL
}

// Gateway is what we remember about a gateway we have used
type Gateway struct {
	Nickname   string        `yaml:"nickname,omitempty"`    // User-friendly name
	LastSeen   time.Time     `yaml:"last_seen,omitempty"`   // Last successful connect
	LastTarget *ModbusTarget `yaml:"last_target,omitempty"` // Modbus device last connected through this gateway
}

// ModbusTarget identifies a Modbus TCP device behind the gateway
type ModbusTarget struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	UnitID int    `yaml:"unit_id"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	GatewayURL    string            `yaml:"gateway_url"`
	Modbus        ModbusTarget      `yaml:"modbus"`
	Refresh       RefreshPrefs      `yaml:"refresh"`
	Notifications NotificationPrefs `yaml:"notifications"`
	HTTP          HTTPPrefs         `yaml:"http"`
	Discovery     DiscoveryPrefs    `yaml:"discovery"`
	LogLevel      string            `yaml:"log_level,omitempty"`
}

// RefreshPrefs controls polling
type RefreshPrefs struct {
	Auto           bool          `yaml:"auto"`
	Interval       time.Duration `yaml:"interval"`
	QuietWindow    time.Duration `yaml:"quiet_window"`
	ReconcileDelay time.Duration `yaml:"reconcile_delay"`
}

// NotificationPrefs controls the notification banner
type NotificationPrefs struct {
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPPrefs controls the gateway client
type HTTPPrefs struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DiscoveryPrefs controls mDNS gateway discovery
type DiscoveryPrefs struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultPreferences returns the stock preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		GatewayURL: "http://localhost:5000",
		Modbus: ModbusTarget{
			Host:   "localhost",
			Port:   502,
			UnitID: 1,
		},
		Refresh: RefreshPrefs{
			Auto:           true,
			Interval:       5 * time.Second,
			QuietWindow:    2 * time.Second,
			ReconcileDelay: 500 * time.Millisecond,
		},
		Notifications: NotificationPrefs{Timeout: 5 * time.Second},
		HTTP:          HTTPPrefs{Timeout: 10 * time.Second},
		Discovery:     DiscoveryPrefs{Timeout: 5 * time.Second},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Gateways:    make(map[string]*Gateway),
		Preferences: DefaultPreferences(),
	}
}

// fillDefaults replaces zero values with defaults, so a partial file still works
func (p *Preferences) fillDefaults() {
	def := DefaultPreferences()
	if p.GatewayURL == "" {
		p.GatewayURL = def.GatewayURL
	}
	if p.Modbus.Host == "" {
		p.Modbus.Host = def.Modbus.Host
	}
	if p.Modbus.Port == 0 {
		p.Modbus.Port = def.Modbus.Port
	}
	if p.Refresh.Interval <= 0 {
		p.Refresh.Interval = def.Refresh.Interval
	}
	if p.Refresh.QuietWindow <= 0 {
		p.Refresh.QuietWindow = def.Refresh.QuietWindow
	}
	if p.Refresh.ReconcileDelay <= 0 {
		p.Refresh.ReconcileDelay = def.Refresh.ReconcileDelay
	}
	if p.Notifications.Timeout <= 0 {
		p.Notifications.Timeout = def.Notifications.Timeout
	}
	if p.HTTP.Timeout <= 0 {
		p.HTTP.Timeout = def.HTTP.Timeout
	}
	if p.Discovery.Timeout <= 0 {
		p.Discovery.Timeout = def.Discovery.Timeout
	}
}

// ApplyEnv overrides preferences from environment variables.
// getenv is usually os.Getenv.
func (p *Preferences) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvGateway)); v != "" {
		p.GatewayURL = v
	}
	if v := strings.TrimSpace(getenv(EnvModbusHost)); v != "" {
		p.Modbus.Host = v
	}
	if v := strings.TrimSpace(getenv(EnvModbusPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvModbusPort, v, err)
		}
		p.Modbus.Port = port
	}
	if v := strings.TrimSpace(getenv(EnvModbusUnit)); v != "" {
		unit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvModbusUnit, v, err)
		}
		p.Modbus.UnitID = unit
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		p.LogLevel = v
	}
	return nil
}

// GetGateway retrieves gateway metadata by base URL.
// Returns nil if the gateway isn't in the registry.
func (r *Registry) GetGateway(url string) *Gateway {
	return r.Gateways[url]
}

// EnsureGateway returns the entry for url, creating it if needed
func (r *Registry) EnsureGateway(url string) *Gateway {
	if r.Gateways == nil {
		r.Gateways = make(map[string]*Gateway)
	}
	if gw, exists := r.Gateways[url]; exists {
		return gw
	}
	gw := &Gateway{}
	r.Gateways[url] = gw
	return gw
}

// RememberConnection records a successful connect through a gateway
func (r *Registry) RememberConnection(url string, target ModbusTarget, at time.Time) {
	gw := r.EnsureGateway(url)
	gw.LastSeen = at
	t := target
	gw.LastTarget = &t
}

// SetGatewayNickname sets a user-friendly nickname for a gateway.
func (r *Registry) SetGatewayNickname(url, nickname string) {
	r.EnsureGateway(url).Nickname = nickname
}

// TargetFor returns the Modbus target to pre-fill for a gateway: the last one
// used through it, or the default from preferences.
func (r *Registry) TargetFor(url string) ModbusTarget {
	if gw := r.Gateways[url]; gw != nil && gw.LastTarget != nil {
		return *gw.LastTarget
	}
	if r.Preferences != nil {
		return r.Preferences.Modbus
	}
	return DefaultPreferences().Modbus
}
