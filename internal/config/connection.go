package config

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/banshee-data/groundstation/internal/telemetry"
)

// Connection is the link configuration shared with the backend. The backend
// pushes changes with config_update messages.
type Connection struct {
	Protocol         string `json:"protocol"`
	HostIP           string `json:"hostIp"`
	HostPort         int    `json:"hostPort"`
	RemoteIP         string `json:"remoteIp"`
	SendOnlyPort     int    `json:"sendOnlyPort"`
	LidarSendPort    int    `json:"lidarSendPort"`
	PlanningSendPort int    `json:"planningSendPort"`
	PlanningRecvPort int    `json:"planningRecvPort"`
	LogDirectory     string `json:"logDirectory"`
	AutoRecord       bool   `json:"autoRecord"`
	LogFormat        string `json:"logFormat"`
	LogLevel         string `json:"logLevel"`

	// Extra holds keys the station does not interpret.
	Extra map[string]json.RawMessage `json:"-"`
}

// DefaultConnection returns the configuration used before the backend sends any.
func DefaultConnection() Connection {
	return Connection{
		Protocol:         "udp",
		HostIP:           "192.168.1.1",
		HostPort:         18504,
		RemoteIP:         "192.168.1.10",
		SendOnlyPort:     18506,
		LidarSendPort:    18507,
		PlanningSendPort: 18510,
		PlanningRecvPort: 18511,
		LogFormat:        "csv",
		LogLevel:         "1",
	}
}

type connString struct {
	key string
	dst func(*Connection) *string
}

type connInt struct {
	key string
	dst func(*Connection) *int
}

var connStrings = []connString{
	{"protocol", func(c *Connection) *string { return &c.Protocol }},
	{"hostIp", func(c *Connection) *string { return &c.HostIP }},
	{"remoteIp", func(c *Connection) *string { return &c.RemoteIP }},
	{"logDirectory", func(c *Connection) *string { return &c.LogDirectory }},
	{"logFormat", func(c *Connection) *string { return &c.LogFormat }},
	{"logLevel", func(c *Connection) *string { return &c.LogLevel }},
}

var connInts = []connInt{
	{"hostPort", func(c *Connection) *int { return &c.HostPort }},
	{"sendOnlyPort", func(c *Connection) *int { return &c.SendOnlyPort }},
	{"lidarSendPort", func(c *Connection) *int { return &c.LidarSendPort }},
	{"planningSendPort", func(c *Connection) *int { return &c.PlanningSendPort }},
	{"planningRecvPort", func(c *Connection) *int { return &c.PlanningRecvPort }},
}

var connKeys = func() map[string]bool {
	keys := map[string]bool{"autoRecord": true}
	for _, b := range connStrings {
		keys[b.key] = true
	}
	for _, b := range connInts {
		keys[b.key] = true
	}
	return keys
}()

// Merge returns c with every usable key of f applied. Keys f does not carry
// keep their value; unrecognised keys are kept in Extra.
func (c Connection) Merge(f telemetry.Fields) Connection {
	out := c
	for _, b := range connStrings {
		if v := f.String(b.key); v.OK {
			*b.dst(&out) = v.V
		}
	}
	for _, b := range connInts {
		if v := f.Int(b.key); v.OK {
			*b.dst(&out) = int(v.V)
		}
	}
	if v := f.Bool("autoRecord"); v.OK {
		out.AutoRecord = v.V
	}

	extra := make(map[string]json.RawMessage, len(c.Extra))
	for k, v := range c.Extra {
		extra[k] = v
	}
	for k, v := range f {
		if !connKeys[k] {
			extra[k] = v
		}
	}
	out.Extra = nil
	if len(extra) > 0 {
		out.Extra = extra
	}
	return out
}

// Validate checks port ranges and required addresses.
func (c Connection) Validate() error {
	for _, b := range connInts {
		p := *b.dst(&c)
		if p < 0 || p > 65535 {
			return fmt.Errorf("%s must be between 0 and 65535, got %d", b.key, p)
		}
	}
	if c.Protocol == "" {
		return fmt.Errorf("protocol must be set")
	}
	return nil
}

// ExtraKeys returns the uninterpreted keys in sorted order.
func (c Connection) ExtraKeys() []string {
	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens Extra into the object next to the known keys.
func (c Connection) MarshalJSON() ([]byte, error) {
	type plain Connection
	known, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return known, nil
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
