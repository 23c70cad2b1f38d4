// Package config loads the server configuration from a YAML file with
// environment overrides layered on top.
package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/burnsbert/crumbwise/internal/section"
)

type Config struct {
	Server   Server         `yaml:"server" json:"server"`
	External External       `yaml:"external" json:"external"`
	Sections section.Config `yaml:"sections" json:"sections"`
}

type Server struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type External struct {
	CalendarBaseURL       string `yaml:"calendar_base_url" json:"calendar_base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr:    ":8700",
			DataDir: "data",
		},
		External: External{
			RequestTimeoutSeconds: 15,
		},
		Sections: section.DefaultConfig(),
	}
}

func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = d.Server.DataDir
	}
	if c.External.RequestTimeoutSeconds <= 0 {
		c.External.RequestTimeoutSeconds = d.External.RequestTimeoutSeconds
	}
}

// Load reads the config at path. A missing file is not an error; the
// defaults apply and env overrides can still adjust them.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	return &cfg, nil
}
