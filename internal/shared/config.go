package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Paths       PathsConfig       `toml:"paths"`
	Files       FilesConfig       `toml:"files"`
	Search      SearchConfig      `toml:"search"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and persisted tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenExpiry  string `toml:"token_expiry"` // RFC3339
}

// Map converts the credentials to the map form consumed by services.NewSpotifyService.
func (s *SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
		"token_expiry":  s.TokenExpiry,
	}
}

// Update stores the fields of an [oauth2.Token] on the config for persistence.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		s.TokenExpiry = token.Expiry.Format(time.RFC3339)
	}
	return nil
}

// PathsConfig contains local filesystem locations for the music library.
type PathsConfig struct {
	PlaylistFolder string   `toml:"playlist_folder"` // Folder containing .m3u files
	LibraryFolder  string   `toml:"library_folder"`  // Root folder of local audio files
	OtherFolders   []string `toml:"other_folders"`   // Library roots from other machines, remapped on load
	DataFolder     string   `toml:"data_folder"`     // Where JSON state and reports are written
}

// FilesConfig contains filenames for persisted state inside the data folder.
type FilesConfig struct {
	URIFile string `toml:"uri_file"` // Basename (without extension) of the URI store
}

// SearchConfig contains tunables for the Spotify search and match pipeline.
type SearchConfig struct {
	RateLimit float64 `toml:"rate_limit"` // Requests per second against the Spotify API
	Threshold float64 `toml:"threshold"`  // Minimum match score to accept a candidate
	Workers   int     `toml:"workers"`    // Concurrent workers for artwork downloads
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to disk as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DataFolder resolves the configured data folder, falling back to the
// platform data directory when unset. The folder is created if missing.
func (c *Config) DataFolder() (string, error) {
	folder := c.Paths.DataFolder
	if folder == "" {
		folder = DefaultDataDir()
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create data folder: %w", err)
	}
	return folder, nil
}

// DatabasePath resolves the sqlite cache location, defaulting to
// spotsync.db inside the data folder.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	folder, err := c.DataFolder()
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, "spotsync.db"), nil
}

// URIFilePath returns the full path of the URI store JSON file.
func (c *Config) URIFilePath() (string, error) {
	folder, err := c.DataFolder()
	if err != nil {
		return "", err
	}
	name := c.Files.URIFile
	if name == "" {
		name = "uris"
	}
	return filepath.Join(folder, name+".json"), nil
}
