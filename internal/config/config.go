// Package config loads server configuration from the environment.
//
// A .env file in the working directory is loaded first (godotenv), so local
// development doesn't need a wall of exports; real deployments set the
// variables directly and have no .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Port int
	Env  string // "development" or "production"

	DBPath    string
	UploadDir string

	// StateSecret signs the OAuth state tokens. Must be long and random:
	//   STATE_SECRET=$(openssl rand -hex 32)
	StateSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// ClientOrigin is the frontend origin, used for CORS and for the
	// post-OAuth redirect.
	ClientOrigin string
	// AuthFailureURL is where broken OAuth flows land on the frontend.
	AuthFailureURL string
	// OAuthSynthesizeEmail enables placeholder emails for providers that
	// grant none. See the auth handler for the trade-off.
	OAuthSynthesizeEmail bool
}

// IsProduction reports whether the server runs with production hardening
// (Secure cookies, info-level logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the .env file (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is normal outside local dev.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid PORT: %w", err)
	}

	cfg := &Config{
		Port:      port,
		Env:       getEnv("ENV", "development"),
		DBPath:    getEnv("DB_PATH", "data/jobpilot.db"),
		UploadDir: getEnv("UPLOAD_DIR", "data/uploads"),

		StateSecret: os.Getenv("STATE_SECRET"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		ClientOrigin:         getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		AuthFailureURL:       "",
		OAuthSynthesizeEmail: getEnv("OAUTH_SYNTHESIZE_EMAIL", "false") == "true",
	}

	cfg.AuthFailureURL = getEnv("AUTH_FAILURE_URL", cfg.ClientOrigin+"/login")

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	return cfg, nil
}

// getEnv returns the variable's value, or fallback when unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
