package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	DefaultPosterSize   = "w342"
	DefaultLanguage     = "en-US"
	DefaultTimeout      = 10 * time.Second
	DefaultRPS          = 40
	DefaultBurst        = 40
	DefaultLogFile      = "moviedb.log"
	DefaultLogLevel     = "warn"
	DefaultListenAddr   = "127.0.0.1:8080"

	envPrefix = "MOVIEDB"
	fileName  = ".moviedb.toml"
)

// Config holds everything needed to talk to TMDB and run the display surfaces.
type Config struct {
	APIKey       string
	AccessToken  string
	BaseURL      string
	ImageBaseURL string
	PosterSize   string
	Language     string
	Region       string
	IncludeAdult bool
	Timeout      time.Duration
	RPS          float64
	Burst        int
	RetryMax     int
	LogFile      string
	LogLevel     string
	ListenAddr   string
}

// fileConfig is the on-disk TOML shape.
type fileConfig struct {
	APIKey       string  `toml:"api_key,omitempty"`
	AccessToken  string  `toml:"access_token,omitempty"`
	BaseURL      string  `toml:"base_url"`
	ImageBaseURL string  `toml:"image_base_url"`
	PosterSize   string  `toml:"poster_size"`
	Language     string  `toml:"language"`
	Region       string  `toml:"region,omitempty"`
	IncludeAdult bool    `toml:"include_adult"`
	Timeout      string  `toml:"timeout"`
	RPS          float64 `toml:"rps"`
	Burst        int     `toml:"burst"`
	RetryMax     int     `toml:"retry_max"`
	LogFile      string  `toml:"log_file"`
	LogLevel     string  `toml:"log_level"`
	ListenAddr   string  `toml:"listen_addr"`
}

// Default returns a config with every non-credential setting filled in.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
		PosterSize:   DefaultPosterSize,
		Language:     DefaultLanguage,
		Timeout:      DefaultTimeout,
		RPS:          DefaultRPS,
		Burst:        DefaultBurst,
		LogFile:      DefaultLogFile,
		LogLevel:     DefaultLogLevel,
		ListenAddr:   DefaultListenAddr,
	}
}

// DefaultPath returns $HOME/.moviedb.toml, or the file name alone when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return fileName
	}
	return filepath.Join(home, fileName)
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Load reads .env, the TOML file at path and MOVIEDB_* environment variables,
// in increasing order of precedence. A missing file is not an error.
func Load(path string) (Config, error) {
	// .env never overrides variables that are already set
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", envPrefix+"_API_KEY", "TMDB_API_KEY")
	_ = v.BindEnv("access_token", envPrefix+"_ACCESS_TOKEN", "TMDB_ACCESS_TOKEN")

	def := Default()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("image_base_url", def.ImageBaseURL)
	v.SetDefault("poster_size", def.PosterSize)
	v.SetDefault("language", def.Language)
	v.SetDefault("region", "")
	v.SetDefault("include_adult", false)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("rps", def.RPS)
	v.SetDefault("burst", def.Burst)
	v.SetDefault("retry_max", 0)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("listen_addr", def.ListenAddr)

	if path != "" && Exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return def, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Config{
		APIKey:       strings.TrimSpace(v.GetString("api_key")),
		AccessToken:  strings.TrimSpace(v.GetString("access_token")),
		BaseURL:      strings.TrimRight(v.GetString("base_url"), "/"),
		ImageBaseURL: strings.TrimRight(v.GetString("image_base_url"), "/"),
		PosterSize:   v.GetString("poster_size"),
		Language:     v.GetString("language"),
		Region:       v.GetString("region"),
		IncludeAdult: v.GetBool("include_adult"),
		Timeout:      v.GetDuration("timeout"),
		RPS:          v.GetFloat64("rps"),
		Burst:        v.GetInt("burst"),
		RetryMax:     v.GetInt("retry_max"),
		LogFile:      v.GetString("log_file"),
		LogLevel:     v.GetString("log_level"),
		ListenAddr:   v.GetString("listen_addr"),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return cfg, nil
}

// Save writes cfg as TOML to path with owner-only permissions.
func Save(path string, cfg Config) error {
	if cfg.APIKey == "" && cfg.AccessToken == "" {
		return errors.New("api key or access token required")
	}
	fc := fileConfig{
		APIKey:       cfg.APIKey,
		AccessToken:  cfg.AccessToken,
		BaseURL:      cfg.BaseURL,
		ImageBaseURL: cfg.ImageBaseURL,
		PosterSize:   cfg.PosterSize,
		Language:     cfg.Language,
		Region:       cfg.Region,
		IncludeAdult: cfg.IncludeAdult,
		Timeout:      cfg.Timeout.String(),
		RPS:          cfg.RPS,
		Burst:        cfg.Burst,
		RetryMax:     cfg.RetryMax,
		LogFile:      cfg.LogFile,
		LogLevel:     cfg.LogLevel,
		ListenAddr:   cfg.ListenAddr,
	}
	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports the first setting that would prevent the client from working.
func (c Config) Validate() error {
	switch {
	case c.APIKey == "" && c.AccessToken == "":
		return fmt.Errorf("no TMDB credentials: set %s_API_KEY or api_key in %s", envPrefix, fileName)
	case c.BaseURL == "":
		return errors.New("base_url must not be empty")
	case c.RPS <= 0:
		return fmt.Errorf("rps must be positive, got %v", c.RPS)
	case c.Burst <= 0:
		return fmt.Errorf("burst must be positive, got %d", c.Burst)
	case c.RetryMax < 0:
		return fmt.Errorf("retry_max must not be negative, got %d", c.RetryMax)
	}
	return nil
}

// Secrets lists the values that must never appear in logs.
func (c Config) Secrets() []string {
	return []string{c.APIKey, c.AccessToken}
}
