package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Environment variables override file values via [Config.FromEnv], matching
// the deployment convention where secrets are never written to disk.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Frontend    FrontendConfig    `toml:"frontend"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Spotify     SpotifyConfig     `toml:"spotify"`
	Genius      GeniusConfig      `toml:"genius"`
	LastFM      LastFMConfig      `toml:"lastfm"`
	Bandsintown BandsintownConfig `toml:"bandsintown"`
	Stripe      StripeConfig      `toml:"stripe"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// GeniusConfig contains the Genius API access token.
type GeniusConfig struct {
	AccessToken string `toml:"access_token"`
}

// LastFMConfig contains the Last.fm API key.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// BandsintownConfig contains the Bandsintown application identifier.
type BandsintownConfig struct {
	AppID string `toml:"app_id"`
}

// StripeConfig contains Stripe keys and the webhook signing secret.
type StripeConfig struct {
	SecretKey      string `toml:"secret_key"`
	PublishableKey string `toml:"publishable_key"`
	WebhookSecret  string `toml:"webhook_secret"`
}

// DatabaseConfig contains optional SQLite settings for the durable session store.
//
// An empty path keeps checkout sessions in memory only.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// FrontendConfig contains the origin allowed by CORS and used for checkout redirect URLs.
type FrontendConfig struct {
	URL string `toml:"url"`
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FromEnv overlays environment variables onto the config.
//
// Only variables that are set replace file values, so a partial environment
// works alongside a config file.
func (c *Config) FromEnv() *Config {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Credentials.Genius.AccessToken, "GENIUS_ACCESS_TOKEN")
	setString(&c.Credentials.LastFM.APIKey, "LASTFM_API_KEY")
	setString(&c.Credentials.Bandsintown.AppID, "BANDSINTOWN_APP_ID")
	setString(&c.Credentials.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Credentials.Stripe.PublishableKey, "STRIPE_PUBLISHABLE_KEY")
	setString(&c.Credentials.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&c.Frontend.URL, "FRONTEND_URL")
	setString(&c.Database.Path, "DATABASE_PATH")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	return c
}

// Addr returns the host:port listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
