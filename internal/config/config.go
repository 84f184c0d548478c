// Package config handles the XDG configuration directory, the config file
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// ConfigFile is the TOML config filename.
	ConfigFile = "config.toml"

	// EnvFile is the optional dotenv filename.
	EnvFile = ".env"

	// TokenFile is the stored identity provider token filename.
	TokenFile = "token.json"

	// GoogleClientFile is the Google OAuth client credentials filename.
	GoogleClientFile = "google_oauth_client.json"

	// GoogleTokenFile is the stored Google OAuth token filename.
	GoogleTokenFile = "google_token.json"

	// LogDir is the log directory name inside the config directory.
	LogDir = "logs"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TASKDECK_"
)

// Defaults.
const (
	DefaultAPITimeout   = 10 * time.Second
	DefaultReminderList = "taskdeck reminders"
	DefaultServerAddr   = "127.0.0.1:8088"
)

// ErrNotConfigured is returned when a required setting is missing.
var ErrNotConfigured = errors.New("not configured")

// Duration is a time.Duration read from a TOML string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// API configures the GraphQL gateway.
type API struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

// Auth configures the identity provider's hosted login.
type Auth struct {
	AuthURL  string   `toml:"auth_url"`
	TokenURL string   `toml:"token_url"`
	ClientID string   `toml:"client_id"`
	Scopes   []string `toml:"scopes"`
	// PublicKeyFile is an optional PEM RSA key used to verify ID tokens.
	PublicKeyFile string `toml:"public_key_file"`
}

// Reminders configures the Google Tasks reminder mirror.
type Reminders struct {
	Enabled  bool   `toml:"enabled"`
	ListName string `toml:"list_name"`
}

// Server configures the local HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures file rotation.
type Log struct {
	MaxSizeMB  int `toml:"max_size_mb"`
	MaxBackups int `toml:"max_backups"`
	MaxAgeDays int `toml:"max_age_days"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	API       API       `toml:"api"`
	Auth      Auth      `toml:"auth"`
	Reminders Reminders `toml:"reminders"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
}

// New creates a Config with defaults and the default or specified config
// directory. If configDir is empty, uses XDG_CONFIG_HOME/taskdeck or
// $HOME/.config/taskdeck.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:       dir,
		API:       API{Timeout: Duration{DefaultAPITimeout}},
		Auth:      Auth{Scopes: []string{"openid", "email", "profile"}},
		Reminders: Reminders{ListName: DefaultReminderList},
		Server:    Server{Addr: DefaultServerAddr},
	}, nil
}

// Load builds a Config from defaults, then config.toml in the config
// directory, then .env files and TASKDECK_* environment variables.
// Environment wins over the file.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	md, err := toml.DecodeFile(cfg.FilePath(), cfg)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("invalid %s: unknown keys: %s", ConfigFile, strings.Join(keys, ", "))
	}

	// Existing environment variables are never overwritten by dotenv.
	for _, path := range []string{EnvFile, filepath.Join(cfg.Dir, EnvFile)} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("invalid %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"API_ENDPOINT":    &c.API.Endpoint,
		"AUTH_URL":        &c.Auth.AuthURL,
		"TOKEN_URL":       &c.Auth.TokenURL,
		"CLIENT_ID":       &c.Auth.ClientID,
		"PUBLIC_KEY_FILE": &c.Auth.PublicKeyFile,
		"REMINDER_LIST":   &c.Reminders.ListName,
		"SERVER_ADDR":     &c.Server.Addr,
	}
	for name, dst := range str {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "AUTH_SCOPES"); v != "" {
		c.Auth.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
	if v := os.Getenv(EnvPrefix + "API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sAPI_TIMEOUT: %w", EnvPrefix, err)
		}
		c.API.Timeout = Duration{d}
	}
	if v := os.Getenv(EnvPrefix + "REMINDERS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sREMINDERS_ENABLED: %w", EnvPrefix, err)
		}
		c.Reminders.Enabled = b
	}
	return nil
}

// RequireAPI reports a missing gateway endpoint.
func (c *Config) RequireAPI() error {
	if c.API.Endpoint == "" {
		return fmt.Errorf("api.endpoint %w (set it in %s or %sAPI_ENDPOINT)", ErrNotConfigured, c.FilePath(), EnvPrefix)
	}
	return nil
}

// RequireAuth reports missing identity provider settings.
func (c *Config) RequireAuth() error {
	var missing []string
	if c.Auth.AuthURL == "" {
		missing = append(missing, "auth.auth_url")
	}
	if c.Auth.TokenURL == "" {
		missing = append(missing, "auth.token_url")
	}
	if c.Auth.ClientID == "" {
		missing = append(missing, "auth.client_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s %w (set in %s)", strings.Join(missing, ", "), ErrNotConfigured, c.FilePath())
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored identity provider token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// GoogleClientPath returns the path to the Google OAuth client credentials.
func (c *Config) GoogleClientPath() string {
	return filepath.Join(c.Dir, GoogleClientFile)
}

// GoogleTokenPath returns the path to the stored Google OAuth token.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
}

// LogPath returns the log directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogDir)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// HasGoogleClient checks if the Google OAuth client file exists.
func (c *Config) HasGoogleClient() bool {
	_, err := os.Stat(c.GoogleClientPath())
	return err == nil
}

// HasGoogleToken checks if the Google token file exists.
func (c *Config) HasGoogleToken() bool {
	_, err := os.Stat(c.GoogleTokenPath())
	return err == nil
}

// RemoveGoogleToken deletes the Google token file.
func (c *Config) RemoveGoogleToken() error {
	return os.Remove(c.GoogleTokenPath())
}
