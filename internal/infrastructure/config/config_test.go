package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
websocket:
  path: "/game"
  max_connections: 4
game:
  enforce_ownership: false
journal:
  enabled: true
  path: "/tmp/journal.db"
mqtt:
  qos: 2
  topic_prefix: "ew"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.WebSocket.Path != "/game" {
		t.Errorf("WebSocket.Path = %q, want %q", cfg.WebSocket.Path, "/game")
	}
	if cfg.WebSocket.MaxConnections != 4 {
		t.Errorf("WebSocket.MaxConnections = %d, want 4", cfg.WebSocket.MaxConnections)
	}
	if cfg.Game.EnforceOwnership {
		t.Error("Game.EnforceOwnership = true, want false")
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != "/tmp/journal.db" {
		t.Errorf("Journal = %+v, want enabled at /tmp/journal.db", cfg.Journal)
	}
	if cfg.MQTT.QoS != 2 || cfg.MQTT.TopicPrefix != "ew" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}

	// Defaults survive for keys the file does not mention.
	if cfg.WebSocket.SendBuffer != 256 {
		t.Errorf("WebSocket.SendBuffer = %d, want default 256", cfg.WebSocket.SendBuffer)
	}
	if cfg.Game.DispatchQueueSize != 1024 {
		t.Errorf("Game.DispatchQueueSize = %d, want default 1024", cfg.Game.DispatchQueueSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadOrDefault_InvalidYAMLStillFails(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("LoadOrDefault() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
server:
  port: 70000
mqtt:
  qos: 5
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("error %q should mention server.port", err)
	}
	if !strings.Contains(err.Error(), "mqtt.qos") {
		t.Errorf("error %q should mention mqtt.qos", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ELECTRICWORLD_SERVER_HOST", "10.0.0.1")
	t.Setenv("ELECTRICWORLD_SERVER_PORT", "7070")
	t.Setenv("ELECTRICWORLD_GAME_ENFORCE_OWNERSHIP", "false")
	t.Setenv("ELECTRICWORLD_MQTT_PASSWORD", "secret")
	t.Setenv("ELECTRICWORLD_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("Server.Host = %q, want 10.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 (env beats file)", cfg.Server.Port)
	}
	if cfg.Game.EnforceOwnership {
		t.Error("Game.EnforceOwnership should be overridden to false")
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password = %q, want secret", cfg.MQTT.Auth.Password)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "port zero allowed", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "bad path", mutate: func(c *Config) { c.WebSocket.Path = "ws" }, wantErr: "websocket.path"},
		{name: "zero send buffer", mutate: func(c *Config) { c.WebSocket.SendBuffer = 0 }, wantErr: "websocket.send_buffer"},
		{name: "zero ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }, wantErr: "websocket.ping_interval"},
		{name: "zero queue", mutate: func(c *Config) { c.Game.DispatchQueueSize = 0 }, wantErr: "game.dispatch_queue_size"},
		{name: "journal without path", mutate: func(c *Config) {
			c.Journal.Enabled = true
			c.Journal.Path = ""
		}, wantErr: "journal.path"},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutsAndAddress(t *testing.T) {
	cfg := Default()
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.Address(); got != "0.0.0.0:8080" {
		t.Errorf("Address() = %q, want 0.0.0.0:8080", got)
	}
}
