package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Search.RateLimit != 3.0 {
			t.Errorf("expected search rate limit 3.0, got %f", config.Search.RateLimit)
		}

		if config.Search.Threshold != 0.66 {
			t.Errorf("expected search threshold 0.66, got %f", config.Search.Threshold)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Files.URIFile != "uris" {
			t.Errorf("expected uri_file uris, got %s", config.Files.URIFile)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Search.Threshold != defaultConfig.Search.Threshold {
			t.Errorf("created config threshold doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved_client"
		config.Paths.PlaylistFolder = "/music/playlists"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.Credentials.Spotify.ClientID != "saved_client" {
			t.Errorf("expected client id saved_client, got %s", loaded.Credentials.Spotify.ClientID)
		}
		if loaded.Paths.PlaylistFolder != "/music/playlists" {
			t.Errorf("expected playlist folder /music/playlists, got %s", loaded.Paths.PlaylistFolder)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Spotify Update", func(t *testing.T) {
		cfg := SpotifyConfig{RefreshToken: "old_refresh"}

		expiry := time.Now().Add(time.Hour)
		token := &oauth2.Token{AccessToken: "new_access", Expiry: expiry}

		if err := cfg.Update(token); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cfg.AccessToken != "new_access" {
			t.Errorf("expected access token new_access, got %s", cfg.AccessToken)
		}

		// Refresh token untouched when the new token omits one
		if cfg.RefreshToken != "old_refresh" {
			t.Errorf("expected refresh token preserved, got %s", cfg.RefreshToken)
		}

		if cfg.TokenExpiry != expiry.Format(time.RFC3339) {
			t.Errorf("expected expiry %s, got %s", expiry.Format(time.RFC3339), cfg.TokenExpiry)
		}

		if err := cfg.Update(&oauth2.Token{}); err == nil {
			t.Error("expected error for empty token")
		}
	})

	t.Run("URIFilePath", func(t *testing.T) {
		tmpDir := t.TempDir()
		config := DefaultConfig()
		config.Paths.DataFolder = tmpDir
		config.Files.URIFile = "spotify_uris"

		path, err := config.URIFilePath()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := filepath.Join(tmpDir, "spotify_uris.json")
		if path != want {
			t.Errorf("expected %s, got %s", want, path)
		}
	})
}
