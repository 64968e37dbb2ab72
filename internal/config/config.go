// Package config reads runtime configuration from the environment, with
// optional .env loading for local development, and decodes the
// service-account credentials used by administrative tools.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the api server configuration.
type Config struct {
	Addr        string
	DatabaseDSN string
	TokenSecret string
	RedisAddr   string
	Env         string
}

// Load reads the environment. A .env file in the working directory is
// merged in first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:        getenv("CRIMENET_ADDR", ":8080"),
		DatabaseDSN: os.Getenv("CRIMENET_PG_DSN"),
		TokenSecret: os.Getenv("CRIMENET_TOKEN_SECRET"),
		RedisAddr:   os.Getenv("CRIMENET_REDIS_ADDR"),
		Env:         getenv("CRIMENET_ENV", "development"),
	}
}

// Validate checks the fields the server cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TokenSecret) == "" {
		return errors.New("config: CRIMENET_TOKEN_SECRET is required")
	}
	return nil
}

// ServiceAccount carries the credentials administrative tools use to talk
// to the identity and profile stores directly.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	DatabaseDSN string `json:"database_dsn"`
	TokenSecret string `json:"token_secret"`
}

// LoadServiceAccount reads the service account from
// CRIMENET_SERVICE_ACCOUNT (inline JSON) or CRIMENET_SERVICE_ACCOUNT_FILE
// (path to a JSON file), in that order.
func LoadServiceAccount() (ServiceAccount, error) {
	if raw := strings.TrimSpace(os.Getenv("CRIMENET_SERVICE_ACCOUNT")); raw != "" {
		return parseServiceAccount([]byte(raw))
	}
	if path := strings.TrimSpace(os.Getenv("CRIMENET_SERVICE_ACCOUNT_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return ServiceAccount{}, fmt.Errorf("config: read service account file: %w", err)
		}
		return parseServiceAccount(data)
	}
	return ServiceAccount{}, errors.New("config: CRIMENET_SERVICE_ACCOUNT or CRIMENET_SERVICE_ACCOUNT_FILE must be set")
}

func parseServiceAccount(data []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("config: decode service account: %w", err)
	}
	if strings.TrimSpace(sa.ProjectID) == "" {
		return ServiceAccount{}, errors.New("config: service account is missing project_id")
	}
	if strings.TrimSpace(sa.TokenSecret) == "" {
		return ServiceAccount{}, errors.New("config: service account is missing token_secret")
	}
	return sa, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
