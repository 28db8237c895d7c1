// Package config loads buffer settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/pkg/compression"
	"github.com/rawbytedev/wirebuf/pkg/hash64"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("config: unknown file format")
	ErrInvalid       = errors.New("config: invalid value")
)

// Config key mapping to buffer settings. Keys absent from a file keep
// their Default value.
type Config struct {
	InitialSize   int    `toml:"initial_size" yaml:"initial_size"`
	MaxPacketSize int    `toml:"max_packet_size" yaml:"max_packet_size"`
	Hash          string `toml:"hash" yaml:"hash"`
	Seed          uint64 `toml:"seed" yaml:"seed"`
	Compression   string `toml:"compression" yaml:"compression"`
}

func Default() Config {
	return Config{
		InitialSize:   wirebuf.DefaultInitialSize,
		MaxPacketSize: wirebuf.DefaultMaxPacketSize,
		Hash:          "xxh64",
		Compression:   "none",
	}
}

// Load reads path, choosing the decoder by extension: .toml, or .yaml/.yml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := Parse(data, Format(path))
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Format maps a file name to "toml" or "yaml"; anything else is returned
// as the bare extension.
func Format(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		return "yaml"
	}
	return ext
}

// Parse decodes data in the given format over Default and validates the
// result. Unknown keys are rejected.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()
	switch format {
	case "toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, err
		}
		if extra := meta.Undecoded(); len(extra) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalid, extra[0].String())
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	cfg.Hash = strings.TrimSpace(cfg.Hash)
	cfg.Compression = strings.TrimSpace(cfg.Compression)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.InitialSize <= 0 {
		return fmt.Errorf("%w: initial_size must be positive, got %d", ErrInvalid, c.InitialSize)
	}
	if c.MaxPacketSize <= 0 {
		return fmt.Errorf("%w: max_packet_size must be positive, got %d", ErrInvalid, c.MaxPacketSize)
	}
	if int64(c.MaxPacketSize) > int64(1<<31-1) {
		return fmt.Errorf("%w: max_packet_size %d does not fit a length prefix", ErrInvalid, c.MaxPacketSize)
	}
	if _, err := hash64.ByName(c.Hash); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := compression.Parse(c.Compression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Options converts c to buffer options. Logger and Observer are left for
// the caller.
func (c Config) Options() (wirebuf.Options, error) {
	if err := c.Validate(); err != nil {
		return wirebuf.Options{}, err
	}
	h, _ := hash64.ByName(c.Hash)
	return wirebuf.Options{
		InitialSize:   c.InitialSize,
		MaxPacketSize: c.MaxPacketSize,
		Hash:          h,
		Seed:          c.Seed,
	}, nil
}

// Algorithm resolves the configured compression.
func (c Config) Algorithm() compression.Algorithm {
	a, _ := compression.Parse(c.Compression)
	return a
}

// Template renders the defaults as a starter file in the given format.
func Template(format string) ([]byte, error) {
	cfg := Default()
	var buf bytes.Buffer
	switch format {
	case "toml":
		buf.WriteString("# wirebuf buffer settings\n")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
	case "yaml":
		buf.WriteString("# wirebuf buffer settings\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return buf.Bytes(), nil
}
