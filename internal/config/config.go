package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Events    EventsConfig    `mapstructure:"events"`
	Email     EmailConfig     `mapstructure:"email"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	AccessTokenTTL  int    `mapstructure:"access_token_ttl_seconds"`
	RefreshTokenTTL int    `mapstructure:"refresh_token_ttl_hours"`
}

// AdminConfig seeds the first TPO admin account on startup when both fields are set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// EventsConfig selects the transport carrying outbox events to the notifier.
// Driver is one of nats, kafka, rabbitmq or local.
type EventsConfig struct {
	Driver           string         `mapstructure:"driver"`
	RelayIntervalMs  int            `mapstructure:"relay_interval_ms"`
	RelayBatchSize   int            `mapstructure:"relay_batch_size"`
	RelayMaxAttempts int            `mapstructure:"relay_max_attempts"`
	NATS             NATSConfig     `mapstructure:"nats"`
	Kafka            KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ         RabbitMQConfig `mapstructure:"rabbitmq"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type EmailConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	SenderAddress  string `mapstructure:"sender_address"`
	SenderName     string `mapstructure:"sender_name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")  // Kubernetes mount
	v.AddConfigPath("./configs") // repo root
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs") // cmd/server

	setDefaults(v, env)

	// Config file is optional - ENV variables still apply
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("No config file found (will use ENV variables): %v\n", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("email.api_key", "EMAIL_API_KEY")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("env", env)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "placement")
	v.SetDefault("auth.access_token_ttl_seconds", 900)
	v.SetDefault("auth.refresh_token_ttl_hours", 168)
	v.SetDefault("admin.name", "TPO Admin")
	v.SetDefault("events.driver", "local")
	v.SetDefault("events.relay_interval_ms", 1000)
	v.SetDefault("events.relay_batch_size", 50)
	v.SetDefault("events.relay_max_attempts", 10)
	v.SetDefault("events.nats.subject", "placement.applications")
	v.SetDefault("events.nats.queue", "placement-notifier")
	v.SetDefault("events.kafka.topic", "placement.applications")
	v.SetDefault("events.kafka.group_id", "placement-notifier")
	v.SetDefault("events.rabbitmq.queue", "placement_applications")
	v.SetDefault("email.base_url", "https://api.brevo.com")
	v.SetDefault("email.sender_name", "Training & Placement Office")
	v.SetDefault("email.timeout_seconds", 10)
}

func (c EventsConfig) RelayInterval() time.Duration {
	return time.Duration(c.RelayIntervalMs) * time.Millisecond
}

func (c AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Second
}

func (c AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Hour
}
