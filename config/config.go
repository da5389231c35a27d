// Package config loads the YAML configuration for the magichome bridge: how to reach the MQTT broker, how to run
// flux_led, and which controllers to expose.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoLights is the error returned by Config.Validate when no lights are configured.
	ErrNoLights = errors.New("at least one light must be configured")
	// ErrMissingIP is the error returned by Config.Validate for lights without a device address.
	ErrMissingIP = errors.New("ip is required")
	// ErrDuplicateID is the error returned by Config.Validate when two lights share an id.
	ErrDuplicateID = errors.New("duplicate light id")
)

const (
	DefaultName           = "LED Controller"
	DefaultSetup          = "RGBW"
	DefaultPort           = 5577
	DefaultPollInterval   = 30 * time.Second
	DefaultBroker         = "mqtt://localhost:1883"
	DefaultKeepAlive      = 20 * time.Second
	DefaultTopicPrefix    = "magichome"
	DefaultDiscoverPrefix = "homeassistant"
	DefaultCommandPath    = "flux_led.py"
	DefaultLogLevel       = "info"
)

// Config represents the application configuration
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Command CommandConfig `yaml:"command"`
	Log     LogConfig     `yaml:"log"`
	Lights  []Light       `yaml:"lights"`
}

// MQTTConfig contains broker connection and topic settings
type MQTTConfig struct {
	Broker          string   `yaml:"broker"`
	ClientID        string   `yaml:"client_id"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	KeepAlive       Duration `yaml:"keep_alive"`
	TopicPrefix     string   `yaml:"topic_prefix"`
	DiscoveryPrefix string   `yaml:"discovery_prefix"`
}

// BrokerURL parses Broker.
func (m MQTTConfig) BrokerURL() (*url.URL, error) {
	u, err := url.Parse(m.Broker)
	if err != nil {
		return nil, fmt.Errorf("mqtt broker: %w", err)
	}

	return u, nil
}

// CommandConfig controls how flux_led is invoked
type CommandConfig struct {
	Path    string   `yaml:"path"`
	Timeout Duration `yaml:"timeout"` // 0 = no timeout
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Colors *bool  `yaml:"colors"`
	JSON   bool   `yaml:"json"`
}

// UseColors reports whether console output should be colorized (default: true).
func (l LogConfig) UseColors() bool {
	return l.Colors == nil || *l.Colors
}

// Light describes one MagicHome controller.
type Light struct {
	// ID uniquely identifies the light to Home Assistant and in MQTT topics. Derived from IP if empty.
	ID string `yaml:"id"`

	Name  string `yaml:"name"`
	Setup string `yaml:"setup"` // channel layout, e.g. RGBW
	IP    string `yaml:"ip"`

	// Port is reserved; flux_led finds the controller port on its own.
	Port int `yaml:"port"`

	PureWhite     bool `yaml:"purewhite"`
	SingleChannel bool `yaml:"singleChannel"`

	// How often state is read back from the device and published. Set to 0 to only read on startup.
	PollInterval *Duration `yaml:"poll_interval"`
}

// WithDefaults returns a copy of l with defaults applied to every unset option.
func (l Light) WithDefaults() Light {
	if l.Name == "" {
		l.Name = DefaultName
	}
	if l.Setup == "" {
		l.Setup = DefaultSetup
	}
	if l.Port == 0 {
		l.Port = DefaultPort
	}
	if l.ID == "" && l.IP != "" {
		l.ID = "magichome_" + strings.NewReplacer(".", "_", ":", "_").Replace(l.IP)
	}
	if l.PollInterval == nil {
		d := Duration(DefaultPollInterval)
		l.PollInterval = &d
	}

	return l
}

// Poll returns the poll interval, or 0 if polling is disabled.
func (l Light) Poll() time.Duration {
	if l.PollInterval == nil {
		return DefaultPollInterval
	}

	return l.PollInterval.Duration()
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file. Variables from envFile are loaded into the environment first; if
// envFile is empty, a .env file in the working directory is loaded when present.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = DefaultBroker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "magichome-" + uuid.NewString()
	}
	if c.MQTT.KeepAlive == 0 {
		c.MQTT.KeepAlive = Duration(DefaultKeepAlive)
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = DefaultDiscoverPrefix
	}

	if c.Command.Path == "" {
		c.Command.Path = DefaultCommandPath
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	for i := range c.Lights {
		c.Lights[i] = c.Lights[i].WithDefaults()
	}
}

// Validate checks that every light has an address and a unique id.
func (c *Config) Validate() error {
	if len(c.Lights) == 0 {
		return ErrNoLights
	}

	var errs []error
	seen := map[string]bool{}
	for i, l := range c.Lights {
		if l.IP == "" {
			errs = append(errs, fmt.Errorf("lights[%d] (%s): %w", i, l.Name, ErrMissingIP))
			continue
		}

		if seen[l.ID] {
			errs = append(errs, fmt.Errorf("lights[%d]: %w: %s", i, ErrDuplicateID, l.ID))
		}
		seen[l.ID] = true
	}

	return errors.Join(errs...)
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		if val := os.Getenv(parts[1]); val != "" {
			return val
		}

		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
