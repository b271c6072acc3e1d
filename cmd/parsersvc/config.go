package main

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the service configuration.  Values come from an optional
// TOML file, and explicit command-line flags override them.
type Config struct {
	// HTTP is the control plane address.
	HTTP string `toml:"http"`

	// WebSockets enables the /ws endpoints.
	WebSockets bool `toml:"websockets"`

	// Rules is the directory of rule documents.
	Rules string `toml:"rules"`

	// Evaluator names the expression evaluator.
	Evaluator string `toml:"evaluator"`

	// DB is an optional bbolt file for facts.  Without one,
	// facts aren't stored.
	DB string `toml:"db"`

	// Timeout bounds a single parse request.
	Timeout duration `toml:"timeout"`

	Verbose bool `toml:"verbose"`

	MQTT MQTTConfig `toml:"mqtt"`
}

// MQTTConfig configures the optional MQTT coupling.  The coupling
// is off when Broker is empty.
type MQTTConfig struct {
	Broker    string   `toml:"broker"`
	ClientId  string   `toml:"client_id"`
	Username  string   `toml:"username"`
	Password  string   `toml:"password"`
	KeepAlive duration `toml:"keep_alive"`

	// In is the topic prefix for raw text.  A message published to
	// In/HOST/DOC is parsed with document DOC (or every document
	// when DOC is "_all") and stored for HOST.
	In string `toml:"in"`

	// Out is the topic prefix for results, which are published to
	// Out/HOST.
	Out string `toml:"out"`

	QoS byte `toml:"qos"`
}

// duration lets TOML files say "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func DefaultConfig() *Config {
	return &Config{
		HTTP:    ":8080",
		Rules:   "rules",
		Timeout: duration{10 * time.Second},
		MQTT: MQTTConfig{
			ClientId:  "netparse",
			KeepAlive: duration{10 * time.Second},
			In:        "netparse/raw",
			Out:       "netparse/facts",
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig()
	if filename == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, err
	}
	return c, nil
}
