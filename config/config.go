package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	Swagger     bool     `yaml:"swagger"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

// DSN prefers an explicit URL over the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	PaymentsTopic      string   `yaml:"payments_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	HoldTTLSeconds        int    `yaml:"hold_ttl_seconds"`
	SchedulesCacheTTL     int    `yaml:"schedules_cache_ttl_seconds"`
	CustomerBookingsTTL   int    `yaml:"customer_bookings_ttl_seconds"`
	ReferencePrefix       string `yaml:"reference_prefix"`
	ServiceFeeFlat        int64  `yaml:"service_fee_flat"`
	ServiceFeeBasisPoints int    `yaml:"service_fee_basis_points"`
	TourGuideDayRate      int64  `yaml:"tour_guide_day_rate"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLSeconds) * time.Second
}

func (b BookingConfig) SchedulesTTL() time.Duration {
	return time.Duration(b.SchedulesCacheTTL) * time.Second
}

func (b BookingConfig) ProjectionTTL() time.Duration {
	return time.Duration(b.CustomerBookingsTTL) * time.Second
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		HTTP:     HTTPConfig{Address: ":8080", Swagger: true, CORSOrigins: []string{"http://localhost:3000"}},
		GRPC:     GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", Migrate: true},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking_events",
			NotificationsTopic: "notifications",
			PaymentsTopic:      "payments",
			GroupID:            "tourbooking-worker",
		},
		Booking: BookingConfig{
			HoldTTLSeconds:      30,
			SchedulesCacheTTL:   60,
			CustomerBookingsTTL: 300,
			ReferencePrefix:     "BK",
		},
		Worker: WorkerConfig{Concurrency: 1},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadConfig reads an optional .env file, then the YAML file at path, then
// applies environment overrides on top of defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("GRPC_ADDRESS"); v != "" {
		cfg.GRPC.Address = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitCSV(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate lists every broken rule at once.
func (c Config) Validate() error {
	var problems []string
	if c.HTTP.Address == "" {
		problems = append(problems, "http.address is required")
	}
	if c.GRPC.Address == "" {
		problems = append(problems, "grpc.address is required")
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		problems = append(problems, "database.url or database.host is required")
	}
	if c.Booking.HoldTTLSeconds <= 0 {
		problems = append(problems, "booking.hold_ttl_seconds must be positive")
	}
	if c.Booking.SchedulesCacheTTL < 0 || c.Booking.CustomerBookingsTTL < 0 {
		problems = append(problems, "booking cache ttls must not be negative")
	}
	if c.Booking.ReferencePrefix == "" {
		problems = append(problems, "booking.reference_prefix is required")
	}
	if c.Booking.ServiceFeeFlat < 0 {
		problems = append(problems, "booking.service_fee_flat must not be negative")
	}
	if c.Booking.ServiceFeeBasisPoints < 0 || c.Booking.ServiceFeeBasisPoints > 10000 {
		problems = append(problems, "booking.service_fee_basis_points must be between 0 and 10000")
	}
	if c.Booking.TourGuideDayRate < 0 {
		problems = append(problems, "booking.tour_guide_day_rate must not be negative")
	}
	if c.Worker.Concurrency < 1 {
		problems = append(problems, "worker.concurrency must be at least 1")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "log.level must be one of debug, info, warn, error")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
