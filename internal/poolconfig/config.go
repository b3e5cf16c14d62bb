// Package poolconfig loads and hot-reloads the demo pool server's
// configuration from YAML (or JSON5), including a pool's Options and the
// demo server's own listen/dial settings.
package poolconfig

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so it can be written in config files as a
// human string ("5s", "2m30s") rather than a raw integer of nanoseconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		var ns int64
		if numErr := unmarshal(&ns); numErr != nil {
			return err
		}
		d.Duration = time.Duration(ns)
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// PoolConfig mirrors respool.Options in a YAML-friendly shape.
type PoolConfig struct {
	MaxConnections      int      `yaml:"max_connections"`
	AcquireTimeout      Duration `yaml:"acquire_timeout"`
	IdleTimeout         Duration `yaml:"idle_timeout"`
	MaxLifetime         Duration `yaml:"max_lifetime"`
	HealthCheckInterval Duration `yaml:"health_check_interval"`
}

// DialConfig configures the demo TCP-dialer resource the server pools.
type DialConfig struct {
	Target  string   `yaml:"target"`
	Timeout Duration `yaml:"timeout"`
}

// ServerConfig configures the demo server's own network surface.
type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	MetricsAddr  string `yaml:"metrics_addr"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Config is the top-level shape of a respoolsrv configuration file.
type Config struct {
	Pool   PoolConfig   `yaml:"pool"`
	Dial   DialConfig   `yaml:"dial"`
	Server ServerConfig `yaml:"server"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			MaxConnections:      10,
			AcquireTimeout:      Duration{5 * time.Second},
			IdleTimeout:         Duration{2 * time.Minute},
			MaxLifetime:         Duration{30 * time.Minute},
			HealthCheckInterval: Duration{30 * time.Second},
		},
		Dial: DialConfig{
			Target:  "127.0.0.1:9",
			Timeout: Duration{3 * time.Second},
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			MetricsAddr: ":9090",
		},
	}
}
