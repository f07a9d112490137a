package natsclient

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client is a minimal JetStream publisher used for notification events.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// Connect dials the NATS server and initializes the JetStream context.
func Connect(url, name string) (*Client, error) {
	conn, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Client{conn: conn, js: js}, nil
}

// Publish sends data to subject via JetStream.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	if c == nil || c.js == nil {
		return fmt.Errorf("nats client not connected")
	}
	_, err := c.js.Publish(ctx, subject, data)
	return err
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	_ = c.conn.Drain()
	c.conn.Close()
}
