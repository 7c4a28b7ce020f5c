package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env         string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"dev"`
	Server      ServerConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Razorpay    RazorpayConfig
	Admin       AdminConfig
	Resend      ResendConfig
	AMQP        AMQPConfig
	Ticket      TicketConfig
	Orders      OrdersConfig
	Cache       CacheConfig
	Idempotency IdempotencyConfig
	OTel        OTelConfig
}

// Nested fields must not carry envconfig tags. A tag is also looked up
// without the prefix, so USER or HOST would leak in.

type ServerConfig struct {
	Host            string        `default:"localhost"`
	Port            int           `default:"8080"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

type PostgresConfig struct {
	User     string `required:"true"`
	Password string `required:"true"`
	DB       string `required:"true"`
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int32  `split_words:"true" default:"10"`
}

// DSN builds a postgres URL with the credentials escaped.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `default:"localhost:6380"`
	Password string
	DB       int    `default:"0"`
}

// RazorpayConfig may be left empty. Payment endpoints then answer with a
// configuration error instead of the process refusing to start.
type RazorpayConfig struct {
	KeyID     string `split_words:"true"`
	KeySecret string `split_words:"true"`
}

type AdminConfig struct {
	Username     string        `default:"admin"`
	PasswordHash string        `split_words:"true"`
	JWTSecret    string        `split_words:"true"`
	TokenTTL     time.Duration `split_words:"true" default:"12h"`
}

type ResendConfig struct {
	APIKey  string        `split_words:"true"`
	From    string
	Timeout time.Duration `default:"10s"`
}

// AMQPConfig with an empty URL disables booking events.
type AMQPConfig struct {
	URL   string
	Queue string `default:"tixgo.bookinglog"`
}

type TicketConfig struct {
	Brand     string `default:"Tixgo"`
	VerifyURL string `split_words:"true"`
}

type OrdersConfig struct {
	MaxAmount  float64       `split_words:"true" default:"1000000"`
	RateLimit  int           `split_words:"true" default:"10"`
	RateWindow time.Duration `split_words:"true" default:"1m"`
}

type CacheConfig struct {
	EventTTL     time.Duration `split_words:"true" default:"60s"`
	EventListTTL time.Duration `split_words:"true" default:"15s"`
	AnalyticsTTL time.Duration `split_words:"true" default:"30s"`
}

type IdempotencyConfig struct {
	TTL time.Duration `default:"2h"`
}

type OTelConfig struct {
	ExporterOTLPEndpoint string `split_words:"true"`
	ServiceName          string `split_words:"true" default:"tixgo"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// envconfig treats a set but empty variable as present.
	switch "" {
	case cfg.Postgres.User:
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	case cfg.Postgres.Password:
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	case cfg.Postgres.DB:
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT %d", op, cfg.Server.Port)
	}

	if cfg.Orders.RateLimit <= 0 {
		return nil, fmt.Errorf("%s: ORDERS_RATE_LIMIT must be positive", op)
	}

	return &cfg, nil
}

// ConsumerConfig is the subset read by the booking log consumer. It never
// touches the database, so no Postgres settings are required.
type ConsumerConfig struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	AMQP AMQPConfig
}

func NewConsumer() (*ConsumerConfig, error) {
	const op = "config.NewConsumer"

	_ = godotenv.Load()

	var cfg ConsumerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.AMQP.URL == "" {
		return nil, fmt.Errorf("%s: missing AMQP_URL", op)
	}

	return &cfg, nil
}
