package nats

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/doniyusdinar/scanfleet/pkg/logger"
)

// Config holds NATS configuration
type Config struct {
	URLs           []string      `json:"urls"`
	Token          string        `json:"token"`
	MaxReconnect   int           `json:"max_reconnect"`
	ReconnectWait  time.Duration `json:"reconnect_wait"`
	ConnectionName string        `json:"connection_name"`
	Enabled        bool          `json:"enabled"`
}

// Client wraps a NATS connection
type Client struct {
	conn   *nats.Conn
	config Config
}

// NewClient creates a new NATS client
func NewClient(config Config) *Client {
	return &Client{config: config}
}

// Connect establishes connection to NATS server
func (c *Client) Connect() error {
	if !c.config.Enabled {
		return fmt.Errorf("NATS client is disabled")
	}

	opts := []nats.Option{
		nats.Name(c.config.ConnectionName),
		nats.MaxReconnects(c.config.MaxReconnect),
		nats.ReconnectWait(c.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Log.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Infof("NATS reconnected to %v", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Log.Warn("NATS connection closed")
		}),
	}

	if c.config.Token != "" {
		opts = append(opts, nats.Token(c.config.Token))
	}

	url := nats.DefaultURL
	if len(c.config.URLs) > 0 {
		url = strings.Join(c.config.URLs, ",")
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.conn = conn

	logger.Log.Infof("NATS client connected to %s", c.conn.ConnectedUrl())
	return nil
}

// Publish publishes a message to a subject
func (c *Client) Publish(subject string, data []byte) error {
	if c.conn == nil {
		return fmt.Errorf("NATS client not connected")
	}
	return c.conn.Publish(subject, data)
}

// Close drains pending messages and closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
		logger.Log.Info("NATS client connection closed")
	}
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
