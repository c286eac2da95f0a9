// Package config provides configuration loading and validation for multilookup.
// It reads an optional YAML file, overlays it on the defaults, and checks
// that every bound the pipeline relies on holds.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lc/multilookup/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultConfigPath is the default path for the configuration file, relative to $HOME.
	DefaultConfigPath = ".multilookup/config.yaml"
	// DefaultQueueCapacity is the default number of hostnames the shared queue holds.
	DefaultQueueCapacity = 1024
	// DefaultResolvers is the default resolver pool size.
	DefaultResolvers = MaxResolvers
	// MinResolvers is the smallest allowed resolver pool.
	MinResolvers = 1
	// MaxResolvers is the largest allowed resolver pool.
	MaxResolvers = 10
	// DefaultMaxNameLength is the longest hostname kept; longer tokens are truncated.
	DefaultMaxNameLength = 1024
	// DefaultDNSTimeout is the default timeout for one hostname's resolution.
	DefaultDNSTimeout = 5 * time.Second

	// ModeSystem resolves through the operating system resolver.
	ModeSystem = "system"
	// ModeDirect queries DNS servers directly.
	ModeDirect = "direct"
)

// Config holds the application configuration.
type Config struct {
	Queue     QueueConfig    `yaml:"queue"`
	Resolvers ResolverConfig `yaml:"resolvers"`
	Names     NamesConfig    `yaml:"names"`
	DNS       DNSConfig      `yaml:"dns"`
}

// QueueConfig holds shared-queue configuration.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// ResolverConfig holds resolver pool configuration.
type ResolverConfig struct {
	Count int `yaml:"count"`
}

// NamesConfig holds input token configuration.
type NamesConfig struct {
	MaxLength int `yaml:"max_length"`
}

// DNSConfig holds name-resolution configuration.
type DNSConfig struct {
	Mode    string        `yaml:"mode"`
	Servers []string      `yaml:"servers,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ConfigFS
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// DefaultPath returns the configuration path under the user's home directory.
// If the home directory cannot be determined, it falls back to the current directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, DefaultConfigPath)
}

// New creates a provider reading path, or DefaultPath when path is empty.
func New(path string) Provider {
	if path == "" {
		path = DefaultPath()
	}
	return NewWithPath(filesys.OS(), path)
}

// NewWithPath creates a new provider with a specific filesystem and path.
func NewWithPath(fs filesys.ConfigFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns a default configuration with preset values.
// This is used when no configuration file exists.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			Capacity: DefaultQueueCapacity,
		},
		Resolvers: ResolverConfig{
			Count: DefaultResolvers,
		},
		Names: NamesConfig{
			MaxLength: DefaultMaxNameLength,
		},
		DNS: DNSConfig{
			Mode:    ModeSystem,
			Timeout: DefaultDNSTimeout,
		},
	}
}

// Load loads the configuration from the provider's path. Keys missing
// from the file keep their default values.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration and reports the first violation.
func (c *Config) Validate() error {
	if c.Queue.Capacity < 1 {
		return errors.New("queue capacity must be at least 1")
	}
	if c.Resolvers.Count < MinResolvers || c.Resolvers.Count > MaxResolvers {
		return fmt.Errorf("resolver count must be between %d and %d", MinResolvers, MaxResolvers)
	}
	if c.Names.MaxLength < 1 {
		return errors.New("max name length must be at least 1")
	}
	if !slices.Contains([]string{ModeSystem, ModeDirect}, c.DNS.Mode) {
		return fmt.Errorf("dns mode must be %q or %q", ModeSystem, ModeDirect)
	}
	if c.DNS.Timeout < time.Second {
		return errors.New("DNS timeout must be at least 1 second")
	}
	return nil
}

// Save writes cfg as YAML to path, replacing any existing file atomically.
func Save(fs filesys.FileOps, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := filesys.AtomicWrite(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	// an empty file decodes to io.EOF and means "all defaults"
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return cfg, nil
}
