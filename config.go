package main

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel string `env:"IPBLOCKS_LOG_LEVEL" envDefault:"info"`

	RPC       string        `env:"IPBLOCKS_RPC" envDefault:"http://127.0.0.1:9091/transmission/rpc"`
	DB        string        `env:"IPBLOCKS_DB" envDefault:"blocklist.db"`
	File      string        `env:"IPBLOCKS_FILE" envDefault:"blocklist.txt"`
	Listen    string        `env:"IPBLOCKS_LISTEN" envDefault:":9092"`
	RulesDir  string        `env:"IPBLOCKS_RULES_DIR" envDefault:"."`
	RulesURL  string        `env:"IPBLOCKS_RULES_URL"`
	Interval  time.Duration `env:"IPBLOCKS_INTERVAL" envDefault:"1m"`
	Expire    time.Duration `env:"IPBLOCKS_EXPIRE" envDefault:"48h"`
	Firewall  string        `env:"IPBLOCKS_FIREWALL" envDefault:"none"`
	Clients   []string      `env:"IPBLOCKS_CLIENTS" envSeparator:","`
	SkipLocal bool          `env:"IPBLOCKS_SKIP_LOCAL" envDefault:"true"`
}

const (
	firewallNone     = "none"
	firewallIptables = "iptables"
	firewallNftables = "nftables"
)

// loadConfig reads the configuration from the environment. Client
// patterns fall back to the built-in blocklist.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if len(cfg.Clients) == 0 {
		cfg.Clients = blocklist
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.Firewall) {
	case firewallNone, firewallIptables, firewallNftables:
	default:
		return errors.Errorf("unknown firewall %q, want none, iptables or nftables", c.Firewall)
	}
	if c.Interval <= 0 {
		return errors.Errorf("interval must be positive, got %s", c.Interval)
	}
	return nil
}
