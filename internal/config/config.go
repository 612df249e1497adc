package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML configuration file.
type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Database  DB        `yaml:"database"`
	Cache     Cache     `yaml:"cache"`
	Auth      Auth      `yaml:"auth"`
	RateLimit Limit     `yaml:"rate_limit"`
	Shortener Shortener `yaml:"shortener"`
}

type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
}

type Server struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// Cache holds the optional Redis connection settings. An empty host
// disables caching entirely.
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Auth struct {
	Secret          string `yaml:"secret"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  int64    `yaml:"requests_per_minute"`
	Burst     int64    `yaml:"burst"`
	SkipPaths []string `yaml:"skip_paths"`
}

// Shortener controls the code lifecycle engine: how codes look, how
// long an unused code survives, and how hard allocation tries before
// giving up.
type Shortener struct {
	// BaseURL is the public prefix for short links. When empty the
	// handler falls back to the request's Host header.
	BaseURL string `yaml:"base_url"`
	// CodeLength is the fixed length of generated codes.
	CodeLength int `yaml:"code_length"`
	// Alphabet is the character set codes are drawn from.
	Alphabet string `yaml:"alphabet"`
	// InactivityDays is how long a code may go unvisited before the
	// sweeper reclaims it.
	InactivityDays int `yaml:"inactivity_days"`
	// MaxAttempts bounds the allocate/insert retry loop.
	MaxAttempts int `yaml:"max_attempts"`
	// SweepIntervalMinutes is the period of the background sweeper.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

const (
	DefaultAlphabet             = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLength           = 6
	DefaultInactivityDays       = 30
	DefaultMaxAttempts          = 20
	DefaultSweepIntervalMinutes = 360
)

// InactivityThreshold returns the configured inactivity window as a
// duration.
func (s *Shortener) InactivityThreshold() time.Duration {
	return time.Duration(s.InactivityDays) * 24 * time.Hour
}

// SweepInterval returns the sweeper period as a duration.
func (s *Shortener) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMinutes) * time.Minute
}

// Load reads and parses the YAML config at path, filling in defaults
// for any shortener values left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Shortener.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills zero values with the package defaults.
func (s *Shortener) ApplyDefaults() {
	if s.CodeLength <= 0 {
		s.CodeLength = DefaultCodeLength
	}
	if s.Alphabet == "" {
		s.Alphabet = DefaultAlphabet
	}
	if s.InactivityDays <= 0 {
		s.InactivityDays = DefaultInactivityDays
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.SweepIntervalMinutes <= 0 {
		s.SweepIntervalMinutes = DefaultSweepIntervalMinutes
	}
}
