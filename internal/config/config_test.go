package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmptyStationDefaults(t *testing.T) {
	cfg := &Station{}

	if cfg.GetListen() != DefaultListen {
		t.Errorf("GetListen() = %q, want %q", cfg.GetListen(), DefaultListen)
	}
	if cfg.GetGRPCListen() != DefaultGRPCListen {
		t.Errorf("GetGRPCListen() = %q, want %q", cfg.GetGRPCListen(), DefaultGRPCListen)
	}
	if cfg.GetTransport() != TransportWebSocket {
		t.Errorf("GetTransport() = %q, want websocket", cfg.GetTransport())
	}
	if cfg.GetWebSocketURL() != "ws://localhost:8000/ws/drone" {
		t.Errorf("GetWebSocketURL() = %q", cfg.GetWebSocketURL())
	}
	if cfg.GetWriteTimeout() != 5*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 5s", cfg.GetWriteTimeout())
	}
	if cfg.GetBaudRate() != 0 {
		t.Errorf("GetBaudRate() = %d, want 0", cfg.GetBaudRate())
	}
	if cfg.GetPcapPort() != DefaultPcapPort || cfg.GetPcapSpeed() != 1 {
		t.Errorf("pcap defaults = %d, %f", cfg.GetPcapPort(), cfg.GetPcapSpeed())
	}
	if cfg.GetBackendURL() != DefaultBackendURL {
		t.Errorf("GetBackendURL() = %q", cfg.GetBackendURL())
	}
	if cfg.GetRecordDir() != DefaultRecordDir {
		t.Errorf("GetRecordDir() = %q", cfg.GetRecordDir())
	}
	if !cfg.GetAutoConnect() {
		t.Error("GetAutoConnect() = false, want true")
	}
	if cfg.GetConnection().HostPort != 18504 {
		t.Errorf("GetConnection().HostPort = %d, want 18504", cfg.GetConnection().HostPort)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "groundstation.jsonc")

	testJSON := `{
  // link to the flight computer radio
  "transport": "Serial",
  "serial_port": "/dev/ttyACM1",
  "baud_rate": 57600,
  "write_timeout": "250ms",
  "auto_connect": false,
  "connection": {
    "remoteIp": "10.0.0.5",
    "hostPort": "19000",
  },
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GetTransport() != TransportSerial {
		t.Errorf("GetTransport() = %q, want serial", cfg.GetTransport())
	}
	if cfg.GetSerialPort() != "/dev/ttyACM1" || cfg.GetBaudRate() != 57600 {
		t.Errorf("serial = %q@%d", cfg.GetSerialPort(), cfg.GetBaudRate())
	}
	if cfg.GetWriteTimeout() != 250*time.Millisecond {
		t.Errorf("GetWriteTimeout() = %v, want 250ms", cfg.GetWriteTimeout())
	}
	if cfg.GetAutoConnect() {
		t.Error("GetAutoConnect() = true, want false")
	}
	conn := cfg.GetConnection()
	if conn.RemoteIP != "10.0.0.5" || conn.HostPort != 19000 {
		t.Errorf("connection = %+v", conn)
	}
	if conn.HostIP != "192.168.1.1" {
		t.Errorf("HostIP = %q, want default", conn.HostIP)
	}
}

func TestLoad_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("config.yaml", "{}"), "extension"},
		{"missing file", filepath.Join(tmpDir, "missing.json"), "stat"},
		{"bad json", write("bad.json", `{"listen": }`), "parse"},
		{"invalid value", write("invalid.json", `{"transport": "carrier-pigeon"}`), "invalid configuration"},
		{"too large", write("large.json", `{"listen":"`+strings.Repeat("x", maxFileSize)+`"}`), "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.jsonc"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Transport != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Station
		wantErr bool
	}{
		{name: "empty config is valid", cfg: &Station{}},
		{name: "pcap with file", cfg: &Station{Transport: ptrString("pcap"), PcapFile: ptrString("flight.pcap")}},
		{name: "pcap without file", cfg: &Station{Transport: ptrString("pcap")}, wantErr: true},
		{name: "unknown transport", cfg: &Station{Transport: ptrString("tcp")}, wantErr: true},
		{name: "http websocket url", cfg: &Station{WebSocketURL: ptrString("http://host/ws")}, wantErr: true},
		{name: "wss websocket url", cfg: &Station{WebSocketURL: ptrString("wss://host/ws/drone")}},
		{name: "ftp backend url", cfg: &Station{BackendURL: ptrString("ftp://host")}, wantErr: true},
		{name: "invalid write timeout", cfg: &Station{WriteTimeout: ptrString("soon")}, wantErr: true},
		{name: "zero baud", cfg: &Station{BaudRate: ptrInt(0)}, wantErr: true},
		{name: "pcap port out of range", cfg: &Station{PcapPort: ptrInt(70000)}, wantErr: true},
		{name: "negative pcap speed", cfg: &Station{PcapSpeed: ptrFloat64(-1)}, wantErr: true},
		{name: "auto connect", cfg: &Station{AutoConnect: ptrBool(false)}},
		{name: "connection not object", cfg: &Station{Connection: json.RawMessage(`[1]`)}, wantErr: true},
		{name: "connection bad port", cfg: &Station{Connection: json.RawMessage(`{"hostPort": 99999}`)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
