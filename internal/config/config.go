package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string        `envconfig:"PORT" default:"5001"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	MongoURI string `envconfig:"MONGO_URI" required:"true"`
	DBName   string `envconfig:"DB_NAME" default:"lxrose"`

	// CredentialsFile points at a service-account JSON. Its client_id is
	// used as the ID token audience when IDTokenAudience is unset.
	CredentialsFile string `envconfig:"CREDENTIALS_FILE"`
	IDTokenAudience string `envconfig:"ID_TOKEN_AUDIENCE"`

	RedisURL        string        `envconfig:"REDIS_URL"`
	LoginRateLimit  int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	IntakeRateLimit int           `envconfig:"INTAKE_RATE_LIMIT" default:"20"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"5m"`

	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"*"`
	OTLPEndpoint string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET: must not be blank")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL: must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW: must be > 0")
	}

	if c.IDTokenAudience == "" && c.CredentialsFile != "" {
		creds, err := readCredentialsFile(c.CredentialsFile)
		if err != nil {
			return fmt.Errorf("CREDENTIALS_FILE: %w", err)
		}
		c.IDTokenAudience = creds.ClientID
	}
	return nil
}

type serviceAccount struct {
	ProjectID string `json:"project_id"`
	ClientID  string `json:"client_id"`
}

func readCredentialsFile(path string) (serviceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return serviceAccount{}, err
	}
	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return serviceAccount{}, err
	}
	if sa.ClientID == "" {
		return serviceAccount{}, errors.New("client_id missing")
	}
	return sa, nil
}
