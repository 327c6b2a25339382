package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"hostlink/internal/domain"
)

// DefaultPath is the production config location; DevPath is the fallback
// for running out of a checkout.
const (
	DefaultPath = "/etc/hostlink/hostlinkd.toml"
	DevPath     = "hostlinkd.toml"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Registration  *RegistrationConfig `mapstructure:"registration"`
	Federation    FederationConfig    `mapstructure:"federation"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	StatePath     string              `mapstructure:"state_path"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type RegistrationConfig struct {
	OrchestratorURL          string `mapstructure:"orchestrator_url"`
	HeartbeatIntervalSeconds int    `mapstructure:"heartbeat_interval_secs"`
}

type FederationConfig struct {
	Servers []DownstreamConfig `mapstructure:"servers"`
}

type DownstreamConfig struct {
	Namespace               string            `mapstructure:"namespace"`
	Transport               string            `mapstructure:"transport"`
	URL                     string            `mapstructure:"url"`
	Command                 string            `mapstructure:"command"`
	Args                    []string          `mapstructure:"args"`
	Env                     map[string]string `mapstructure:"env"`
	Expose                  []string          `mapstructure:"expose"`
	HealthcheckIntervalSecs int               `mapstructure:"healthcheck_interval_secs"`
}

type ObservabilityConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.bind", domain.DefaultBindAddress)
	v.SetDefault("server.port", domain.DefaultPort)
	v.SetDefault("observability.listen_address", domain.DefaultObservabilityAddress)
	v.SetDefault("state_path", domain.DefaultStatePath)
}

// Load reads the config from path, or from the default locations when
// path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		switch {
		case fileExists(DefaultPath):
			path = DefaultPath
		case fileExists(DevPath):
			path = DevPath
		default:
			return nil, fmt.Errorf("no config file found, expected %s or %s", DefaultPath, DevPath)
		}
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the invariants a running gateway depends on.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Registration != nil {
		if c.Registration.OrchestratorURL == "" {
			return fmt.Errorf("registration.orchestrator_url is required when registration is configured")
		}
		if c.Registration.HeartbeatIntervalSeconds < 0 {
			return fmt.Errorf("registration.heartbeat_interval_secs must not be negative")
		}
	}

	seen := map[string]struct{}{}
	for i, d := range c.Federation.Servers {
		if d.Namespace == "" {
			return fmt.Errorf("federation.servers[%d]: namespace is required", i)
		}
		if _, dup := seen[d.Namespace]; dup {
			return fmt.Errorf("federation.servers[%d]: duplicate namespace %q", i, d.Namespace)
		}
		seen[d.Namespace] = struct{}{}

		switch domain.TransportKind(d.Transport) {
		case domain.TransportStdio:
			if d.Command == "" {
				return fmt.Errorf("federation.servers[%d] (%s): stdio transport requires command", i, d.Namespace)
			}
		case domain.TransportLocalhost:
			if d.URL == "" {
				return fmt.Errorf("federation.servers[%d] (%s): localhost transport requires url", i, d.Namespace)
			}
		default:
			return fmt.Errorf("federation.servers[%d] (%s): unknown transport %q", i, d.Namespace, d.Transport)
		}
	}
	return nil
}

// HeartbeatInterval returns the configured heartbeat period.
func (c *Config) HeartbeatInterval() time.Duration {
	secs := domain.DefaultHeartbeatSeconds
	if c.Registration != nil && c.Registration.HeartbeatIntervalSeconds > 0 {
		secs = c.Registration.HeartbeatIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// ToSpecs converts the federation block into downstream specs.
func (c *Config) ToSpecs() []domain.DownstreamSpec {
	specs := make([]domain.DownstreamSpec, 0, len(c.Federation.Servers))
	for _, d := range c.Federation.Servers {
		interval := d.HealthcheckIntervalSecs
		if interval <= 0 {
			interval = domain.DefaultHealthcheckSeconds
		}
		specs = append(specs, domain.DownstreamSpec{
			Namespace:           d.Namespace,
			Transport:           domain.TransportKind(d.Transport),
			URL:                 d.URL,
			Command:             d.Command,
			Args:                d.Args,
			Env:                 d.Env,
			Expose:              d.Expose,
			HealthcheckInterval: time.Duration(interval) * time.Second,
		})
	}
	return specs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
