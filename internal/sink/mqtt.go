package sink

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/baronhoot/rtl-433/internal/config"
)

// Publisher forwards decoded records to an MQTT broker as JSON payloads.
type Publisher struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

// NewPublisher connects to the configured broker. The connection
// auto-reconnects; publish calls during an outage fail and are reported
// to the caller.
func NewPublisher(cfg config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID(cfg.ClientID))

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	if cfg.TLS.Enabled {
		tlsConfig, err := loadTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("load TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logrus.WithField("broker", cfg.Broker).Info("connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logrus.WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client, cfg: cfg}, nil
}

// Publish sends the record to the configured topic.
func (p *Publisher) Publish(rec Record) error {
	payload, err := Marshal(rec)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, token.Error())
	}
	return nil
}

// Close flushes in-flight messages and disconnects.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// clientID returns the configured client ID, or a random one so several
// listeners can share a broker.
func clientID(configured string) string {
	if configured != "" {
		return configured
	}
	buf := make([]byte, 8)
	rand.Read(buf)
	return "rtl433_" + hex.EncodeToString(buf)
}

// loadTLSConfig loads TLS configuration from the referenced files.
func loadTLSConfig(cfg config.MQTTTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA certificate %s", cfg.CACert)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
