package config

import (
	"os"
	"strconv"

	"github.com/quietbishop/chess-ledger/internal/domain/rating"
)

// Config holds application configuration read from environment variables.
type Config struct {
	Port        string
	DatabaseURL string
	// Owner is the ledger owner identity recorded once at initialization.
	Owner string
	Elo   rating.Config
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	owner := os.Getenv("LEDGER_OWNER")
	if owner == "" {
		owner = "owner"
	}

	elo := rating.DefaultConfig()
	elo.K = envFloat("ELO_K", elo.K)
	elo.Scale = envFloat("ELO_SCALE", elo.Scale)
	elo.Floor = envInt("ELO_FLOOR", elo.Floor)
	elo.Default = envInt("ELO_DEFAULT", elo.Default)

	return &Config{
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Owner:       owner,
		Elo:         elo,
	}
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
