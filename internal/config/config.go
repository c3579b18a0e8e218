package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the marketplace service
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SQLitePath     string `yaml:"sqlite_path"`
	MigrationsPath string `yaml:"migrations_path"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// EventsConfig controls the outbox relay
type EventsConfig struct {
	Broker        string        `yaml:"broker"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	BatchSize     int           `yaml:"batch_size"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// CatalogConfig points at a remote ownership lookup. Empty URL means the
// local restaurants table is used.
type CatalogConfig struct {
	OwnershipURL string        `yaml:"ownership_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

// Load reads configuration from a YAML file, then applies FM_* environment
// overrides. A .env file next to the process is loaded first if present.
func Load(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			Port:           5432,
			SQLitePath:     "marketplace.db",
			MigrationsPath: "migrations",
		},
		RabbitMQ: RabbitMQConfig{Port: 5672},
		Kafka:    KafkaConfig{Topic: "marketplace-events"},
		Events: EventsConfig{
			Broker:        BrokerRabbitMQ,
			RelayInterval: 2 * time.Second,
			BatchSize:     100,
		},
		Catalog: CatalogConfig{Timeout: 2 * time.Second},
	}
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides file values with FM_<SECTION>_<KEY> variables
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"FM_DATABASE_DRIVER":          &c.Database.Driver,
		"FM_DATABASE_HOST":            &c.Database.Host,
		"FM_DATABASE_USER":            &c.Database.User,
		"FM_DATABASE_PASSWORD":        &c.Database.Password,
		"FM_DATABASE_DATABASE":        &c.Database.Database,
		"FM_DATABASE_SQLITE_PATH":     &c.Database.SQLitePath,
		"FM_DATABASE_MIGRATIONS_PATH": &c.Database.MigrationsPath,
		"FM_RABBITMQ_HOST":            &c.RabbitMQ.Host,
		"FM_RABBITMQ_USER":            &c.RabbitMQ.User,
		"FM_RABBITMQ_PASSWORD":        &c.RabbitMQ.Password,
		"FM_KAFKA_TOPIC":              &c.Kafka.Topic,
		"FM_EVENTS_BROKER":            &c.Events.Broker,
		"FM_AUTH_JWT_SECRET":          &c.Auth.JWTSecret,
		"FM_CATALOG_OWNERSHIP_URL":    &c.Catalog.OwnershipURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FM_SERVER_PORT":       &c.Server.Port,
		"FM_DATABASE_PORT":     &c.Database.Port,
		"FM_RABBITMQ_PORT":     &c.RabbitMQ.Port,
		"FM_EVENTS_BATCH_SIZE": &c.Events.BatchSize,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"FM_SERVER_REQUEST_TIMEOUT": &c.Server.RequestTimeout,
		"FM_EVENTS_RELAY_INTERVAL":  &c.Events.RelayInterval,
		"FM_CATALOG_TIMEOUT":        &c.Catalog.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = d
	}

	lists := map[string]*[]string{
		"FM_SERVER_ALLOWED_ORIGINS": &c.Server.AllowedOrigins,
		"FM_KAFKA_BROKERS":          &c.Kafka.Brokers,
	}
	for key, dst := range lists {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate reports missing or inconsistent values
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be positive"))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("database.host and database.database are required for postgres"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database.sqlite_path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of: %s, %s", DriverPostgres, DriverSQLite))
	}

	switch c.Events.Broker {
	case BrokerRabbitMQ, BrokerNone:
	case BrokerKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when events.broker is kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.broker must be one of: %s, %s, %s", BrokerRabbitMQ, BrokerKafka, BrokerNone))
	}
	if c.Events.BatchSize <= 0 {
		errs = append(errs, errors.New("events.batch_size must be positive"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
