package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"cigale/internal/logging"
	"cigale/internal/validation"
)

// Config captures the environment driven configuration of the server.
type Config struct {
	AirtableToken    string
	AirtableBaseID   string
	AirtableTable    string
	AirtableEndpoint string
	AirtableTimeout  time.Duration

	Port           int
	LogLevel       slog.Level
	Location       *time.Location
	Hours          validation.OperatingHours
	AllowedOrigins []string
	CacheTTL       time.Duration
	CacheSize      int
	RestaurantName string

	Twilio   TwilioConfig
	SendGrid SendGridConfig
	Digest   DigestConfig
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	FromNumber   string
	LateSMSAfter time.Duration
}

// Enabled reports whether every Twilio credential is set.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func (c SendGridConfig) Enabled() bool {
	return c.APIKey != "" && c.FromEmail != ""
}

type DigestConfig struct {
	Recipient string
	Schedule  string
}

// LoadDotEnv reads .env.local then .env when present. Variables already set
// in the environment are never overridden.
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration values through getenv. Every missing or
// invalid variable is reported in a single error.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		AirtableTable:    "Reservations",
		AirtableEndpoint: "https://api.airtable.com",
		AirtableTimeout:  20 * time.Second,
		Port:             8080,
		LogLevel:         slog.LevelInfo,
		Hours:            validation.DefaultOperatingHours(),
		AllowedOrigins:   []string{"*"},
		CacheTTL:         30 * time.Second,
		CacheSize:        64,
		RestaurantName:   "La Cigale",
		Twilio:           TwilioConfig{LateSMSAfter: 15 * time.Minute},
		Digest:           DigestConfig{Schedule: "0 10 * * *"},
	}

	env := func(key string) string { return strings.TrimSpace(getenv(key)) }
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if cfg.AirtableToken = env("AIRTABLE_PAT"); cfg.AirtableToken == "" {
		missing = append(missing, "AIRTABLE_PAT")
	}
	if cfg.AirtableBaseID = env("AIRTABLE_BASE_ID"); cfg.AirtableBaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if table := env("AIRTABLE_TABLE_NAME"); table != "" {
		cfg.AirtableTable = table
	}
	if endpoint := env("AIRTABLE_ENDPOINT_URL"); endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			invalid = append(invalid, "AIRTABLE_ENDPOINT_URL")
		} else {
			cfg.AirtableEndpoint = strings.TrimRight(endpoint, "/")
		}
	}
	parseDuration(env, "AIRTABLE_TIMEOUT", &cfg.AirtableTimeout, &invalid)

	if value := env("PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORT")
		} else {
			cfg.Port = port
		}
	}
	if value := env("LOG_LEVEL"); value != "" {
		level, err := logging.ParseLevel(value)
		if err != nil {
			invalid = append(invalid, "LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	zone := env("RESTAURANT_TIMEZONE")
	if zone == "" {
		zone = "Europe/Paris"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		invalid = append(invalid, "RESTAURANT_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	opening, closing := env("SERVICE_OPENING"), env("SERVICE_CLOSING")
	if opening != "" || closing != "" {
		if opening == "" {
			opening = "11:00"
		}
		if closing == "" {
			closing = "23:00"
		}
		hours, err := validation.NewOperatingHours(opening, closing)
		if err != nil {
			invalid = append(invalid, "SERVICE_OPENING/SERVICE_CLOSING")
		} else {
			cfg.Hours = hours
		}
	}

	if value := env("CORS_ALLOWED_ORIGINS"); value != "" {
		var origins []string
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	parseDuration(env, "CACHE_TTL", &cfg.CacheTTL, &invalid)
	if value := env("CACHE_SIZE"); value != "" {
		size, err := strconv.Atoi(value)
		if err != nil || size <= 0 {
			invalid = append(invalid, "CACHE_SIZE")
		} else {
			cfg.CacheSize = size
		}
	}

	cfg.Twilio.AccountSID = env("TWILIO_ACCOUNT_SID")
	cfg.Twilio.AuthToken = env("TWILIO_AUTH_TOKEN")
	cfg.Twilio.FromNumber = env("TWILIO_FROM_NUMBER")
	parseDuration(env, "LATE_SMS_AFTER", &cfg.Twilio.LateSMSAfter, &invalid)

	cfg.SendGrid.APIKey = env("SENDGRID_API_KEY")
	cfg.SendGrid.FromEmail = env("SENDGRID_FROM_EMAIL")
	if name := env("RESTAURANT_NAME"); name != "" {
		cfg.RestaurantName = name
	}
	// The sender name follows the restaurant name unless set on its own.
	cfg.SendGrid.FromName = cfg.RestaurantName
	if name := env("SENDGRID_FROM_NAME"); name != "" {
		cfg.SendGrid.FromName = name
	}

	cfg.Digest.Recipient = env("DIGEST_RECIPIENT")
	if schedule := env("DIGEST_SCHEDULE"); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			invalid = append(invalid, "DIGEST_SCHEDULE")
		} else {
			cfg.Digest.Schedule = schedule
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// DigestEnabled reports whether the daily digest can be sent.
func (c Config) DigestEnabled() bool {
	return c.SendGrid.Enabled() && c.Digest.Recipient != ""
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func parseDuration(env func(string) string, key string, target *time.Duration, invalid *[]string) {
	value := env(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*invalid = append(*invalid, key)
		return
	}
	*target = d
}
