package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false by default")
	}
	if cfg.GitHubCallbackURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("GitHubCallbackURL = %q", cfg.GitHubCallbackURL)
	}
	if cfg.AuthFailureURL != cfg.ClientOrigin+"/login" {
		t.Errorf("AuthFailureURL = %q, want derived from ClientOrigin", cfg.AuthFailureURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("CLIENT_ORIGIN", "https://app.example.com")
	t.Setenv("OAUTH_SYNTHESIZE_EMAIL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if !cfg.OAuthSynthesizeEmail {
		t.Error("OAuthSynthesizeEmail = false, want true")
	}
	if cfg.AuthFailureURL != "https://app.example.com/login" {
		t.Errorf("AuthFailureURL = %q", cfg.AuthFailureURL)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}
