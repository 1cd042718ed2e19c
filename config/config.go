// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/antonio59/standard-notes-kanban/domain"
)

// Transport kinds for the host channel.
const (
	TransportSSE     = "sse"
	TransportRedis   = "redis"
	TransportAzQueue = "azqueue"
)

// Config holds every setting of the board service.
type Config struct {
	ListenAddr       string        `env:"LISTEN_ADDR"       envDefault:":8080"`
	Debug            bool          `env:"DEBUG"`
	Transport        string        `env:"TRANSPORT"         envDefault:"sse"`
	FallbackTimeout  time.Duration `env:"FALLBACK_TIMEOUT"  envDefault:"1s"`
	MembershipPolicy string        `env:"MEMBERSHIP_POLICY" envDefault:"duplicate"`
	HostToken        string        `env:"HOST_TOKEN"`
	HostBodyLimit    int64         `env:"HOST_BODY_LIMIT"   envDefault:"8388608"`
	AllowOrigins     []string      `env:"ALLOW_ORIGINS"     envSeparator:"," envDefault:"*"`

	RedisConnectionString string `env:"REDIS_CONNECTION_STRING"`
	RedisOutboundChannel  string `env:"REDIS_OUTBOUND_CHANNEL" envDefault:"kanban.host.outbound"`
	RedisInboundChannel   string `env:"REDIS_INBOUND_CHANNEL"  envDefault:"kanban.host.inbound"`

	StorageConnectionString string        `env:"STORAGE_CONNECTION_STRING"`
	OutboundQueue           string        `env:"OUTBOUND_QUEUE"      envDefault:"kanban-host-outbound"`
	InboundQueue            string        `env:"INBOUND_QUEUE"       envDefault:"kanban-host-inbound"`
	QueuePollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`

	Policy domain.MembershipPolicy `env:"-"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	policy, err := domain.ParseMembershipPolicy(c.MembershipPolicy)
	if err != nil {
		return err
	}
	c.Policy = policy

	if c.FallbackTimeout <= 0 {
		return errors.New("FALLBACK_TIMEOUT must be greater than zero")
	}
	if c.HostBodyLimit <= 0 {
		return errors.New("HOST_BODY_LIMIT must be greater than zero")
	}

	switch c.Transport {
	case TransportSSE:
	case TransportRedis:
		if c.RedisConnectionString == "" {
			return errors.New("missing redis config")
		}
	case TransportAzQueue:
		if c.StorageConnectionString == "" {
			return errors.New("missing storage config")
		}
		if c.QueuePollInterval <= 0 {
			return errors.New("QUEUE_POLL_INTERVAL must be greater than zero")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	return nil
}
