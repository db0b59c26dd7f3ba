// Package config loads the optional YAML configuration file.  Values from
// the file act as defaults; flags given on the command line win.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen       string `yaml:"listen"`
	Upstream     string `yaml:"upstream"`
	Via          string `yaml:"via"`
	ProxyVersion string `yaml:"proxy_version"`
	Source       string `yaml:"source"`
	Verbose      bool   `yaml:"verbose"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
