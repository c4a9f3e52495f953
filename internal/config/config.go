// Package config loads the station configuration file and holds the
// connection configuration shared with the backend.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/banshee-data/groundstation/internal/telemetry"
)

// DefaultConfigPath is where the station looks for its configuration file.
const DefaultConfigPath = "groundstation.jsonc"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Transports accepted by the transport setting.
const (
	TransportWebSocket = "websocket"
	TransportSerial    = "serial"
	TransportPcap      = "pcap"
	TransportDisabled  = "disabled"
)

// Defaults applied by the Get* methods.
const (
	DefaultListen       = ":8080"
	DefaultGRPCListen   = ":8081"
	DefaultWebSocketURL = "ws://localhost:8000/ws/drone"
	DefaultSerialPort   = "/dev/ttyUSB0"
	DefaultPcapPort     = 18504
	DefaultBackendURL   = "http://localhost:8000"
	DefaultRecordDir    = "logs"
	DefaultWriteTimeout = 5 * time.Second
)

// Station is the station configuration. A nil field is not set and the
// matching Get method supplies the default. Command-line flags override it.
type Station struct {
	Listen       *string  `json:"listen,omitempty"`
	GRPCListen   *string  `json:"grpc_listen,omitempty"`
	Transport    *string  `json:"transport,omitempty"`
	WebSocketURL *string  `json:"websocket_url,omitempty"`
	WriteTimeout *string  `json:"write_timeout,omitempty"` // duration string like "5s"
	SerialPort   *string  `json:"serial_port,omitempty"`
	BaudRate     *int     `json:"baud_rate,omitempty"`
	PcapFile     *string  `json:"pcap_file,omitempty"`
	PcapPort     *int     `json:"pcap_port,omitempty"`
	PcapSpeed    *float64 `json:"pcap_speed,omitempty"`
	BackendURL   *string  `json:"backend_url,omitempty"`
	RecordDir    *string  `json:"record_dir,omitempty"`
	AutoConnect  *bool    `json:"auto_connect,omitempty"`

	// Connection overrides the connection defaults key by key.
	Connection json.RawMessage `json:"connection,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// Load reads a Station config from a JSON file. Comments and trailing commas
// are allowed. The file must have a .json or .jsonc extension and be under
// 1MB. Omitted fields keep their defaults.
func Load(path string) (*Station, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" && ext != ".jsonc" {
		return nil, fmt.Errorf("config file must have .json or .jsonc extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Station{}
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns an empty config when
// it does not.
func LoadOrDefault(path string) (*Station, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Station{}, nil
	}
	return Load(path)
}

// Validate checks that the configuration values are valid.
func (c *Station) Validate() error {
	if c.Transport != nil {
		switch strings.ToLower(*c.Transport) {
		case TransportWebSocket, TransportSerial, TransportPcap, TransportDisabled:
		default:
			return fmt.Errorf("transport must be one of websocket, serial, pcap or disabled, got %q", *c.Transport)
		}
	}

	if c.WebSocketURL != nil {
		u, err := url.Parse(*c.WebSocketURL)
		if err != nil {
			return fmt.Errorf("invalid websocket_url %q: %w", *c.WebSocketURL, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("websocket_url must use ws or wss, got %q", u.Scheme)
		}
	}

	if c.BackendURL != nil {
		u, err := url.Parse(*c.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("backend_url must be an http or https URL, got %q", *c.BackendURL)
		}
	}

	if c.WriteTimeout != nil && *c.WriteTimeout != "" {
		if _, err := time.ParseDuration(*c.WriteTimeout); err != nil {
			return fmt.Errorf("invalid write_timeout '%s': %w", *c.WriteTimeout, err)
		}
	}

	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}

	if c.PcapPort != nil && (*c.PcapPort < 0 || *c.PcapPort > 65535) {
		return fmt.Errorf("pcap_port must be between 0 and 65535, got %d", *c.PcapPort)
	}

	if c.PcapSpeed != nil && *c.PcapSpeed < 0 {
		return fmt.Errorf("pcap_speed must not be negative, got %f", *c.PcapSpeed)
	}

	if c.Transport != nil && strings.ToLower(*c.Transport) == TransportPcap && c.GetPcapFile() == "" {
		return fmt.Errorf("pcap transport requires pcap_file")
	}

	if len(c.Connection) > 0 {
		if _, ok := connectionObject(c.Connection); !ok {
			return fmt.Errorf("connection must be a JSON object")
		}
		if err := c.GetConnection().Validate(); err != nil {
			return fmt.Errorf("invalid connection: %w", err)
		}
	}
	return nil
}

func connectionObject(raw json.RawMessage) (telemetry.Fields, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	return telemetry.ParseFields(raw), true
}

func (c *Station) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

func (c *Station) GetGRPCListen() string {
	if c.GRPCListen == nil {
		return DefaultGRPCListen
	}
	return *c.GRPCListen
}

func (c *Station) GetTransport() string {
	if c.Transport == nil {
		return TransportWebSocket
	}
	return strings.ToLower(*c.Transport)
}

func (c *Station) GetWebSocketURL() string {
	if c.WebSocketURL == nil {
		return DefaultWebSocketURL
	}
	return *c.WebSocketURL
}

// GetWriteTimeout returns the parsed write timeout or the default.
func (c *Station) GetWriteTimeout() time.Duration {
	if c.WriteTimeout == nil || *c.WriteTimeout == "" {
		return DefaultWriteTimeout
	}
	d, err := time.ParseDuration(*c.WriteTimeout)
	if err != nil {
		return DefaultWriteTimeout
	}
	return d
}

func (c *Station) GetSerialPort() string {
	if c.SerialPort == nil {
		return DefaultSerialPort
	}
	return *c.SerialPort
}

// GetBaudRate returns 0 when unset so the serial defaults apply.
func (c *Station) GetBaudRate() int {
	if c.BaudRate == nil {
		return 0
	}
	return *c.BaudRate
}

func (c *Station) GetPcapFile() string {
	if c.PcapFile == nil {
		return ""
	}
	return *c.PcapFile
}

func (c *Station) GetPcapPort() int {
	if c.PcapPort == nil {
		return DefaultPcapPort
	}
	return *c.PcapPort
}

func (c *Station) GetPcapSpeed() float64 {
	if c.PcapSpeed == nil {
		return 1
	}
	return *c.PcapSpeed
}

func (c *Station) GetBackendURL() string {
	if c.BackendURL == nil {
		return DefaultBackendURL
	}
	return *c.BackendURL
}

func (c *Station) GetRecordDir() string {
	if c.RecordDir == nil {
		return DefaultRecordDir
	}
	return *c.RecordDir
}

func (c *Station) GetAutoConnect() bool {
	if c.AutoConnect == nil {
		return true
	}
	return *c.AutoConnect
}

// GetConnection returns the connection defaults with the configured
// overrides applied.
func (c *Station) GetConnection() Connection {
	conn := DefaultConnection()
	if f, ok := connectionObject(c.Connection); ok {
		conn = conn.Merge(f)
	}
	return conn
}
