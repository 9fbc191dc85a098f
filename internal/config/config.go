// Package config loads the listener configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/baronhoot/rtl-433/internal/options"
)

// Config is the top-level listener configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"` // logrus level name
	Revision string        `yaml:"revision"`  // auto, extended or legacy
	Serial   SerialConfig  `yaml:"serial"`
	Output   OutputConfig  `yaml:"output"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// SerialConfig describes the demodulator feed. The connection fields
// mirror source.PortOptions so they can be passed through without
// translation.
type SerialConfig struct {
	Port     string `yaml:"port"`      // e.g. /dev/ttyUSB0; empty reads stdin
	BaudRate int    `yaml:"baud_rate"` // defaults to 115200
	DataBits int    `yaml:"data_bits"` // 5-8, defaults to 8
	StopBits int    `yaml:"stop_bits"` // 1 or 2, defaults to 1
	Parity   string `yaml:"parity"`    // N, E or O
}

// OutputConfig selects the stream format for decoded records.
type OutputConfig struct {
	Format string `yaml:"format"` // json, csv or kv
	File   string `yaml:"file"`   // output path; empty writes stdout
}

// MQTTConfig contains MQTT publishing settings.
type MQTTConfig struct {
	Enabled  bool          `yaml:"enabled"`   // Enable/disable MQTT publishing
	Broker   string        `yaml:"broker"`    // e.g. tcp://localhost:1883
	Topic    string        `yaml:"topic"`     // Topic decoded records go to
	Username string        `yaml:"username"`  // Optional authentication
	Password string        `yaml:"password"`  //
	ClientID string        `yaml:"client_id"` // Random suffix when empty
	QoS      byte          `yaml:"qos"`       // 0, 1 or 2
	Retain   bool          `yaml:"retain"`    // Retain flag on published messages
	TLS      MQTTTLSConfig `yaml:"tls"`
}

// MQTTTLSConfig contains TLS settings for the MQTT connection.
type MQTTTLSConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Enable/disable TLS
	CACert     string `yaml:"ca_cert"`     // Path to CA certificate file
	ClientCert string `yaml:"client_cert"` // Path to client certificate file (optional)
	ClientKey  string `yaml:"client_key"`  // Path to client key file (optional)
}

// MetricsConfig exposes Prometheus counters over HTTP.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // address serving /metrics, defaults to :9090
}

// Default returns the configuration used when no file is given: JSON
// records on stdout, rows from stdin, no MQTT, no metrics.
func Default() Config {
	return Config{
		LogLevel: "info",
		Revision: "auto",
		Output:   OutputConfig{Format: "json"},
		Metrics:  MetricsConfig{Listen: ":9090"},
	}
}

// Load reads and validates a YAML configuration file. Values absent from
// the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and fills derived defaults.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if _, err := options.ParseRevision(c.Revision); err != nil {
		return err
	}
	switch c.Output.Format {
	case "":
		c.Output.Format = "json"
	case "json", "csv", "kv":
	default:
		return fmt.Errorf("unknown output format %q (want json, csv, or kv)", c.Output.Format)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when MQTT is enabled")
		}
		if c.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic is required when MQTT is enabled")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
	return nil
}
