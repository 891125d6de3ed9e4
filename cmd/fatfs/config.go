package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/fatfs/snapshot"
)

// Config is the harness configuration.
type Config struct {
	Region   RegionConfig   `toml:"region"`
	Log      LogConfig      `toml:"log"`
	Snapshot SnapshotConfig `toml:"snapshot"`
}

// RegionConfig describes how the byte region is obtained.
type RegionConfig struct {
	Size         string `toml:"size"`    // e.g. "1MiB"
	Backing      string `toml:"backing"` // heap, anonymous, file
	Path         string `toml:"path"`    // backing file for "file"
	EntryPercent int    `toml:"entry_percent"`
	MemoryLimit  string `toml:"memory_limit,omitempty"`
	ClampReads   bool   `toml:"clamp_reads"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// SnapshotConfig describes where the final image is saved.
type SnapshotConfig struct {
	Backend     string `toml:"backend"` // none, local, s3, minio
	Name        string `toml:"name"`
	Compression string `toml:"compression"`
	IOLimit     string `toml:"io_limit,omitempty"` // bytes per second, e.g. "10MiB"

	Dir string `toml:"dir,omitempty"` // local

	Bucket    string `toml:"bucket,omitempty"` // s3, minio
	Prefix    string `toml:"prefix,omitempty"`
	AWSRegion string `toml:"aws_region,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"` // minio
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Secure    bool   `toml:"secure,omitempty"`
}

// DefaultConfig returns a heap-backed 1 MiB region with no snapshot.
func DefaultConfig() Config {
	return Config{
		Region: RegionConfig{
			Size:         "1MiB",
			Backing:      "heap",
			EntryPercent: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			Backend:     "none",
			Name:        "arena",
			Compression: "lz4",
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks field values that toml decoding cannot.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.RegionSize(); err != nil {
		errs = append(errs, err)
	}
	switch c.Region.Backing {
	case "heap", "anonymous":
	case "file":
		if c.Region.Path == "" {
			errs = append(errs, errors.New("region.path is required for file backing"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown region.backing %q", c.Region.Backing))
	}
	if _, err := parseOptionalBytes(c.Region.MemoryLimit); err != nil {
		errs = append(errs, fmt.Errorf("region.memory_limit: %w", err))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", f))
	}

	if _, err := snapshot.ParseCompression(c.Snapshot.Compression); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseOptionalBytes(c.Snapshot.IOLimit); err != nil {
		errs = append(errs, fmt.Errorf("snapshot.io_limit: %w", err))
	}
	switch c.Snapshot.Backend {
	case "", "none":
	case "local":
		if c.Snapshot.Dir == "" {
			errs = append(errs, errors.New("snapshot.dir is required for the local backend"))
		}
	case "s3":
		if c.Snapshot.Bucket == "" {
			errs = append(errs, errors.New("snapshot.bucket is required for the s3 backend"))
		}
	case "minio":
		if c.Snapshot.Bucket == "" || c.Snapshot.Endpoint == "" {
			errs = append(errs, errors.New("snapshot.bucket and snapshot.endpoint are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot.backend %q", c.Snapshot.Backend))
	}

	return errors.Join(errs...)
}

// RegionSize parses Region.Size.
func (c *Config) RegionSize() (int, error) {
	n, err := humanize.ParseBytes(c.Region.Size)
	if err != nil {
		return 0, fmt.Errorf("region.size: %w", err)
	}
	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("region.size %q out of range", c.Region.Size)
	}
	return int(n), nil //nolint:gosec // bounded above
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func parseOptionalBytes(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return int64(n), nil //nolint:gosec // bounded above
}
