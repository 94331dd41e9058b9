package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSaltLengthBytes = 20
	DefaultIterations      = 10000
	DefaultServerAddr      = "localhost:8084"

	MinSaltLengthBytes = 8
)

type EncryptionConfig struct {
	SaltLengthBytes         int `yaml:"salt_length_bytes"`
	KeyDerivationIterations int `yaml:"key_derivation_iterations"`
}

type LogConfig struct {
	// dev | prod
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type Config struct {
	Encryption EncryptionConfig `yaml:"encryption"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the YAML file at path, fills in defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %v: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Encryption.SaltLengthBytes == 0 {
		c.Encryption.SaltLengthBytes = DefaultSaltLengthBytes
	}
	if c.Encryption.KeyDerivationIterations == 0 {
		c.Encryption.KeyDerivationIterations = DefaultIterations
	}
	if c.Log.Env == "" {
		c.Log.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvInt("KEYTOOL_SALT_LENGTH_BYTES"); ok {
		c.Encryption.SaltLengthBytes = v
	}
	if v, ok := getEnvInt("KEYTOOL_KDF_ITERATIONS"); ok {
		c.Encryption.KeyDerivationIterations = v
	}
	if v, ok := getEnvStr("KEYTOOL_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("KEYTOOL_LOG_ENV"); ok {
		c.Log.Env = v
	}
	if v, ok := getEnvStr("KEYTOOL_SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("KEYTOOL_CORS_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
}

func (c *Config) Validate() error {
	var err error
	if c.Encryption.SaltLengthBytes < MinSaltLengthBytes {
		err = multierr.Append(err, fmt.Errorf("encryption.salt_length_bytes must be at least %d, got %d",
			MinSaltLengthBytes, c.Encryption.SaltLengthBytes))
	}
	if c.Encryption.KeyDerivationIterations < 1 {
		err = multierr.Append(err, fmt.Errorf("encryption.key_derivation_iterations must be positive, got %d",
			c.Encryption.KeyDerivationIterations))
	}
	switch strings.ToLower(c.Log.Env) {
	case "dev", "prod":
	default:
		err = multierr.Append(err, errors.New("log.env must be dev or prod"))
	}
	return err
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, true
}
