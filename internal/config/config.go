// Package config loads crudview settings from YAML over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the CLI understands. Flags override values
// loaded from a file.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	ResourcePath   string        `yaml:"resource_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Theme          string        `yaml:"theme"`
	Variant        string        `yaml:"variant"`
	Title          string        `yaml:"title"`
	ListenAddr     string        `yaml:"listen_addr"`
	DBPath         string        `yaml:"db_path"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIBaseURL:     "http://localhost:8080",
		ResourcePath:   "/api/resources",
		RequestTimeout: 10 * time.Second,
		Title:          "Animals",
		ListenAddr:     ":8080",
	}
}

// Load reads path and applies it over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies YAML from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Validate checks the settings the client needs.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: api_base_url %q must be an absolute URL", c.APIBaseURL)
	}
	if strings.Trim(c.ResourcePath, "/ ") == "" {
		return errors.New("config: resource_path is required")
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: request_timeout must not be negative")
	}
	return nil
}
