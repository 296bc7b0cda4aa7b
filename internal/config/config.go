// Package config loads the cryptopan CLI's configuration: the 32-byte
// construction secret (from a hex/base64 literal, a key file, or an
// operator passphrase via argon2id) plus logging, metrics, and rewrite
// settings, bound through viper so flags, environment variables, and a
// config file all feed the same typed struct.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/heistp/cryptopan"
)

// ErrNoSecretSource is returned when none of key, key-file, or passphrase
// was configured.
var ErrNoSecretSource = errors.New("config: no secret source configured (set key, key-file, or passphrase)")

// LogConfig configures the shared structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// PassphraseConfig configures argon2id secret derivation. This is a
// config/CLI-boundary convenience, not a core feature: package cryptopan
// itself never derives a secret, only copies one (spec.md §4.1, §1
// Non-goals).
type PassphraseConfig struct {
	Passphrase  string `mapstructure:"passphrase"`
	Salt        string `mapstructure:"salt"`
	Time        uint32 `mapstructure:"time"`
	Memory      uint32 `mapstructure:"memory_kib"`
	Parallelism uint8  `mapstructure:"parallelism"`
}

// Config is the CLI's top-level configuration.
type Config struct {
	Key        string           `mapstructure:"key"`
	KeyFile    string           `mapstructure:"key_file"`
	Passphrase PassphraseConfig `mapstructure:"passphrase"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Paths      []string         `mapstructure:"paths"`
}

// Load reads configuration from v (a viper.Viper already configured with
// flag bindings, an optional config file, and the CRYPTOPAN_ env prefix)
// into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	// The passphrase block is also decoded explicitly: it may arrive as a
	// raw map (e.g. read back from a sub-key set programmatically rather
	// than through a config file) that v.Unmarshal's struct walk already
	// covers, but re-decoding it directly keeps this path resilient to
	// that raw-map shape, the same way the FDO server's cmd/config.go
	// decodes RawParams per owner-service type.
	if raw := v.Get("passphrase"); raw != nil {
		if err := mapstructure.Decode(raw, &cfg.Passphrase); err != nil {
			return nil, fmt.Errorf("config: decode passphrase block: %w", err)
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	return &cfg, nil
}

// Secret resolves the 32-byte construction secret from, in priority
// order: an explicit key literal (hex or base64), a key file, or an
// argon2id-derived passphrase.
func (c *Config) Secret() ([]byte, error) {
	switch {
	case c.Key != "":
		return decodeKey(c.Key)
	case c.KeyFile != "":
		b, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("config: read key file: %w", err)
		}
		return decodeKey(strings.TrimSpace(string(b)))
	case c.Passphrase.Passphrase != "":
		return c.derivedSecret()
	default:
		return nil, ErrNoSecretSource
	}
}

// decodeKey accepts a 64-character hex string, a standard-padding base64
// string, or a raw 32-character ASCII string, in that order of attempt.
func decodeKey(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == cryptopan.SecretLen {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == cryptopan.SecretLen {
		return b, nil
	}
	if len(s) == cryptopan.SecretLen {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: key must be %d raw bytes, %d hex characters, or base64 for %d bytes",
		cryptopan.ErrInvalidKey, cryptopan.SecretLen, cryptopan.SecretLen*2, cryptopan.SecretLen)
}

// derivedSecret derives a 32-byte secret from an operator passphrase using
// argon2id, in the style of the encrypted-filesystem example's
// password-based key provider (defaults chosen the same way: a reasonable
// memory/time cost unless the operator overrides them).
func (c *Config) derivedSecret() ([]byte, error) {
	p := c.Passphrase
	if p.Salt == "" {
		return nil, errors.New("config: passphrase requires a salt")
	}
	timeCost := p.Time
	if timeCost == 0 {
		timeCost = 3
	}
	memory := p.Memory
	if memory == 0 {
		memory = 64 * 1024
	}
	parallelism := p.Parallelism
	if parallelism == 0 {
		parallelism = 4
	}
	return argon2.IDKey([]byte(p.Passphrase), []byte(p.Salt), timeCost, memory, parallelism, uint32(cryptopan.SecretLen)), nil
}
