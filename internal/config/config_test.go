package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ConfigYAML(t *testing.T) {
	path := filepath.Join("..", "..", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Host == "" {
		t.Fatalf("expected database.host to be set")
	}
	if cfg.RabbitMQ.Port == 0 {
		t.Fatalf("expected rabbitmq.port to be set")
	}
	if cfg.Events.RelayInterval != 2*time.Second {
		t.Fatalf("expected events.relay_interval 2s, got %v", cfg.Events.RelayInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected shipped config to validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "database:\n  driver: postgres\n  host: db\n  database: marketplace\nauth:\n  jwt_secret: file-secret\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FM_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("FM_DATABASE_PORT", "6543")
	t.Setenv("FM_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("FM_EVENTS_RELAY_INTERVAL", "500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q, want env-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("database port = %d, want 6543", cfg.Database.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("kafka brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Events.RelayInterval != 500*time.Millisecond {
		t.Errorf("relay interval = %v", cfg.Events.RelayInterval)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port, got %d", cfg.Server.Port)
	}
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	cfg := defaults()
	lookup := func(key string) (string, bool) {
		if key == "FM_SERVER_PORT" {
			return "eighty", true
		}
		return "", false
	}
	if err := cfg.applyEnv(lookup); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name: "valid sqlite",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Auth.JWTSecret = "s"
			},
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
			},
			wantErr: true,
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Auth.JWTSecret = "s"
			},
			wantErr: true,
		},
		{
			name: "kafka without brokers",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Auth.JWTSecret = "s"
				c.Events.Broker = BrokerKafka
			},
			wantErr: true,
		},
		{
			name: "unknown broker",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
				c.Auth.JWTSecret = "s"
				c.Events.Broker = "nats"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
