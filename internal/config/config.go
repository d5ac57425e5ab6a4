package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port          string   `env:"PORT" envDefault:"8080"`
	DatabaseURL   string   `env:"DATABASE_URL,required"`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty     bool     `env:"LOG_PRETTY" envDefault:"false"`
	TimeZone      string   `env:"TIMEZONE" envDefault:"UTC"`
	DailyRate     string   `env:"DAILY_RATE" envDefault:"50.00"`
	PublicBaseURL string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	CORSOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Auth     Auth
	Redis    Redis
	Notify   Notify
	SMTP     SMTP
	SendGrid SendGrid
	Twilio   Twilio
	Kafka    Kafka
}

type Auth struct {
	JWTSecret       string        `env:"JWT_SECRET,required"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"carrental"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"2h"`
	AdminUsername   string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
	AdminEmail      string        `env:"ADMIN_EMAIL"`
}

// Redis is optional; an empty address disables the catalog cache and logout
// token revocation.
type Redis struct {
	Addr       string        `env:"REDIS_ADDR"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	CatalogTTL time.Duration `env:"REDIS_CATALOG_TTL" envDefault:"30s"`
}

type Notify struct {
	// EmailProvider selects the email channel: smtp, sendgrid or none.
	EmailProvider    string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	DefaultRecipient string `env:"NOTIFY_DEFAULT_RECIPIENT"`
	DispatchSchedule string `env:"NOTIFY_DISPATCH_SCHEDULE" envDefault:"@every 10s"`
	PurgeSchedule    string `env:"PURGE_UNVERIFIED_SCHEDULE" envDefault:"@hourly"`
	BatchSize        int    `env:"NOTIFY_BATCH_SIZE" envDefault:"20"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

type SendGrid struct {
	APIKey    string `env:"SENDGRID_API_KEY"`
	FromEmail string `env:"SENDGRID_FROM_EMAIL"`
	FromName  string `env:"SENDGRID_FROM_NAME" envDefault:"Car Rental System"`
}

// Twilio sends booking SMS alerts to the operations phone when configured.
type Twilio struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
	ToNumber   string `env:"TWILIO_TO_NUMBER"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"carrental.bookings"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Rate(); err != nil {
		return err
	}
	switch c.Notify.EmailProvider {
	case "smtp", "sendgrid", "none":
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Notify.EmailProvider)
	}
	if c.Notify.BatchSize <= 0 {
		return fmt.Errorf("NOTIFY_BATCH_SIZE must be positive")
	}
	return nil
}

// Location is the server's reference time zone for "today".
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func (c *Config) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.DailyRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid DAILY_RATE %q: %w", c.DailyRate, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("DAILY_RATE must be positive")
	}
	return rate, nil
}
