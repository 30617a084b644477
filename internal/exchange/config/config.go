// Package config loads service settings from a YAML file, an optional .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/db"
	"github.com/gartstein/tradehub/internal/exchange/geo"
	"github.com/gartstein/tradehub/internal/exchange/mail"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EventsSync runs handlers in the request path and mirrors events to Kafka.
	EventsSync = "sync"
	// EventsKafka only publishes; the handlers run behind a Kafka consumer.
	EventsKafka = "kafka"

	DefaultReadyForShipmentMaxWeight = 20000
)

// DefaultPath is used when CONFIG_PATH is not set.
var DefaultPath = filepath.Join("internal", "exchange", "config", "config.yaml")

// Config struct for YAML configuration. Every key may be overridden by an
// environment variable of the same name.
type Config struct {
	GRPCPort int      `mapstructure:"GRPC_PORT"`
	HTTPPort int      `mapstructure:"HTTP_PORT"`
	AuthPort int      `mapstructure:"AUTH_PORT"`
	CORS     []string `mapstructure:"CORS_ORIGINS"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBDSN      string `mapstructure:"DB_DSN"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	Topic        string   `mapstructure:"TOPIC"`
	GroupID      string   `mapstructure:"KAFKA_GROUP_ID"`
	EventsMode   string   `mapstructure:"EVENTS_MODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPSSL      bool   `mapstructure:"SMTP_SSL"`

	GeocoderURL     string        `mapstructure:"GEOCODER_URL"`
	GeocoderAPIKey  string        `mapstructure:"GEOCODER_API_KEY"`
	GeocoderTimeout time.Duration `mapstructure:"GEOCODER_TIMEOUT"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	ReadyForShipmentMaxWeight float64 `mapstructure:"READY_FOR_SHIPMENT_MAX_WEIGHT"`
}

// defaults doubles as the list of known keys, so that environment variables
// reach keys the YAML file leaves out.
var defaults = map[string]interface{}{
	"GRPC_PORT":    50051,
	"HTTP_PORT":    8080,
	"AUTH_PORT":    8081,
	"CORS_ORIGINS": []string{},

	"DB_DRIVER":   "postgres",
	"DB_HOST":     "",
	"DB_PORT":     5432,
	"DB_USER":     "",
	"DB_PASSWORD": "",
	"DB_NAME":     "",
	"DB_SSLMODE":  "disable",
	"DB_DSN":      "",

	"KAFKA_BROKERS":  []string{},
	"TOPIC":          "exchange-events",
	"KAFKA_GROUP_ID": "exchange",
	"EVENTS_MODE":    EventsSync,

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"SMTP_HOST":     "",
	"SMTP_PORT":     0,
	"SMTP_USER":     "",
	"SMTP_PASSWORD": "",
	"SMTP_FROM":     "",
	"SMTP_SSL":      false,

	"GEOCODER_URL":     "",
	"GEOCODER_API_KEY": "",
	"GEOCODER_TIMEOUT": "0s",

	"JWT_SECRET": "",
	"JWT_TTL":    "0s",

	"READY_FOR_SHIPMENT_MAX_WEIGHT": DefaultReadyForShipmentMaxWeight,
}

// Load reads the YAML file at path (CONFIG_PATH or DefaultPath when empty),
// then applies .env and environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		var values map[string]interface{}
		if err := yaml.Unmarshal(file, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// environment only
	default:
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.CORS = trimList(cfg.CORS)
	cfg.KafkaBrokers = trimList(cfg.KafkaBrokers)
	if cfg.ReadyForShipmentMaxWeight <= 0 {
		cfg.ReadyForShipmentMaxWeight = DefaultReadyForShipmentMaxWeight
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// trimList drops blanks left by comma separated env values like "a, b,".
func trimList(list []string) []string {
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.EventsMode != EventsSync && c.EventsMode != EventsKafka {
		return fmt.Errorf("EVENTS_MODE must be %q or %q, got %q", EventsSync, EventsKafka, c.EventsMode)
	}
	if c.EventsMode == EventsKafka && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required in kafka events mode")
	}
	return nil
}

func (c *Config) DBConfig() *db.Config {
	return &db.Config{
		Driver:   c.DBDriver,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		DSN:      c.DBDSN,
	}
}

func (c *Config) MailConfig() mail.Config {
	return mail.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		SSL:      c.SMTPSSL,
	}
}

func (c *Config) GeoConfig() geo.Config {
	return geo.Config{
		BaseURL: c.GeocoderURL,
		APIKey:  c.GeocoderAPIKey,
		Timeout: c.GeocoderTimeout,
	}
}
