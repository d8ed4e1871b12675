package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the environment sets
// a value.
const (
	defaultPort     = "8080"
	defaultDBPath   = "./data/sacco.db"
	defaultTokenTTL = 24 * time.Hour
)

// Config holds server settings. Values are resolved in order: defaults,
// YAML config file (CONFIG_FILE), then environment variables.
type Config struct {
	Port       string
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// fileConfig is the YAML shape of the config file. Durations are
// written as strings like "24h".
type fileConfig struct {
	Port       string `yaml:"port"`
	DBPath     string `yaml:"db_path"`
	JWTSecret  string `yaml:"jwt_secret"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost *int   `yaml:"bcrypt_cost"`
}

// Load resolves the configuration. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:       defaultPort,
		DBPath:     defaultDBPath,
		TokenTTL:   defaultTokenTTL,
		BcryptCost: bcrypt.DefaultCost,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if fc.Port != "" {
			cfg.Port = fc.Port
		}
		if fc.DBPath != "" {
			cfg.DBPath = fc.DBPath
		}
		if fc.JWTSecret != "" {
			cfg.JWTSecret = fc.JWTSecret
		}
		if fc.TokenTTL != "" {
			ttl, err := time.ParseDuration(fc.TokenTTL)
			if err != nil {
				return nil, fmt.Errorf("invalid token_ttl in config file: %w", err)
			}
			cfg.TokenTTL = ttl
		}
		if fc.BcryptCost != nil {
			cfg.BcryptCost = *fc.BcryptCost
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = cost
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
