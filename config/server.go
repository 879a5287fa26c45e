package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds process-level settings for the concordance server.
type ServerConfig struct {
	Port            string `json:"port" toml:"port" yaml:"port"`
	DataDir         string `json:"data_dir" toml:"data_dir" yaml:"data_dir"`
	LogLevel        string `json:"log_level" toml:"log_level" yaml:"log_level"`
	Development     bool   `json:"development" toml:"development" yaml:"development"`
	JobWorkers      int    `json:"job_workers" toml:"job_workers" yaml:"job_workers"`
	MaxRequestBytes int64  `json:"max_request_bytes" toml:"max_request_bytes" yaml:"max_request_bytes"`
}

// DefaultServerConfig returns the configuration used when no file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		DataDir:         "./concordance_data",
		LogLevel:        "info",
		JobWorkers:      4,
		MaxRequestBytes: 32 << 20,
	}
}

// ApplyDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) ApplyDefaults() {
	def := DefaultServerConfig()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.JobWorkers <= 0 {
		c.JobWorkers = def.JobWorkers
	}
	if c.MaxRequestBytes <= 0 {
		c.MaxRequestBytes = def.MaxRequestBytes
	}
}

// LoadServerConfig reads a TOML or YAML file, chosen by extension, and
// applies defaults to whatever the file leaves unset.
func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadCorpusSettings reads corpus settings from a TOML, YAML or JSON file and
// applies defaults.
func LoadCorpusSettings(path string) (CorpusSettings, error) {
	var settings CorpusSettings
	if err := decodeFile(path, &settings); err != nil {
		return settings, err
	}
	settings.ApplyDefaults()
	return settings, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(out)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(out)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(out)
	default:
		return fmt.Errorf("unsupported config format '%s' (use .toml, .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
