package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the YAML file read at startup; BOARD_CONFIG overrides it.
var ConfigPath = envOr("BOARD_CONFIG", "config.yaml")

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string         `yaml:"port"`
	Env      string         `yaml:"env"`
	LogLevel string         `yaml:"logLevel"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig is either a full URL or a host/port/name/user/password tuple.
type DatabaseConfig struct {
	URL            string `yaml:"url"`
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	Name           string `yaml:"name"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Target is the non-secret description of the database actually dialed.
type Target struct {
	Host string
	Name string
	User string
}

// Target describes the connection DSN would open. With a URL set, the
// fields come from the URL; a sqlite URL reports its file path as Name.
func (d DatabaseConfig) Target() Target {
	if d.URL == "" {
		return Target{Host: d.Host, Name: d.Name, User: d.User}
	}
	if path, ok := strings.CutPrefix(d.URL, "sqlite:"); ok {
		path, _, _ = strings.Cut(path, "?")
		return Target{Host: "local", Name: path}
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return Target{Host: "unknown"}
	}
	return Target{
		Host: u.Host,
		Name: strings.TrimPrefix(u.Path, "/"),
		User: u.User.Username(),
	}
}

// DSN returns the connection string; URL wins over the tuple.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Debug reports whether verbose development behavior is on.
func (c FileConfig) Debug() bool {
	return c.Env == "development"
}

// Load reads config from path. A missing file is not an error.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	overrides := []struct {
		env    string
		target *string
	}{
		{"PORT", &cfg.Port},
		{"ENV", &cfg.Env},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"DATABASE_URL", &cfg.Database.URL},
		{"DB_HOST", &cfg.Database.Host},
		{"DB_PORT", &cfg.Database.Port},
		{"DB_NAME", &cfg.Database.Name},
		{"DB_USER", &cfg.Database.User},
		{"DB_PASSWORD", &cfg.Database.Password},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
	if v := os.Getenv("DB_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: DB_TIMEOUT_SECONDS must be an integer: %w", err)
		}
		cfg.Database.TimeoutSeconds = n
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	defaults := []struct {
		target   *string
		fallback string
	}{
		{&cfg.Port, "8000"},
		{&cfg.Env, "development"},
		{&cfg.Database.Host, "postgres"},
		{&cfg.Database.Port, "5432"},
		{&cfg.Database.Name, "sampleapp"},
		{&cfg.Database.User, "devops"},
		{&cfg.Database.Password, "devops123"},
	}
	for _, d := range defaults {
		*d.target = strings.TrimSpace(*d.target)
		if *d.target == "" {
			*d.target = d.fallback
		}
	}
	cfg.Env = strings.ToLower(cfg.Env)
	if cfg.Database.TimeoutSeconds == 0 {
		cfg.Database.TimeoutSeconds = 3
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Debug() {
			cfg.LogLevel = "debug"
		}
	}
}

func validateConfig(cfg FileConfig) error {
	if !validPort(cfg.Port) {
		return fmt.Errorf("config: port %q is not a valid TCP port", cfg.Port)
	}
	if cfg.Database.URL == "" && !validPort(cfg.Database.Port) {
		return fmt.Errorf("config: database port %q is not a valid TCP port", cfg.Database.Port)
	}
	if cfg.Database.TimeoutSeconds < 0 {
		return errors.New("config: database timeoutSeconds must not be negative")
	}
	return nil
}

func validPort(raw string) bool {
	port, err := strconv.Atoi(raw)
	return err == nil && port > 0 && port <= 65535
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
