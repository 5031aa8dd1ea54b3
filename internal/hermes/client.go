// Package hermes publishes evaluation lifecycle events to NATS JetStream.
package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	publishTimeout = 5 * time.Second
	drainTimeout   = 10 * time.Second
)

// ErrNotConnected is returned instead of queueing a publish while the
// connection is down.
var ErrNotConnected = errors.New("nats not connected")

type Client interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

// NATSClient publishes into the TOPSIS_EVENTS stream and waits for the
// server ack, so events survive subscriber restarts.
type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger

	closed    chan struct{}
	closeOnce sync.Once
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	c := &NATSClient{logger: logger, closed: make(chan struct{})}

	nc, err := nats.Connect(url,
		nats.Name("topsis-server"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) { c.markClosed() }),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	c.conn, c.js = nc, js

	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "stream", StreamName, "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return fmt.Errorf("stream max age: %w", err)
	}
	_, err = c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{StreamSubjects},
		MaxAge:     maxAge,
		Duplicates: 10 * time.Minute,
	})
	return err
}

// Publish waits for the stream ack, bounded by ctx and publishTimeout.
// While the connection is down it fails at once rather than sitting in
// the reconnect buffer until the deadline.
func (c *NATSClient) Publish(ctx context.Context, subject string, data interface{}) error {
	if c.conn == nil || c.conn.Status() != nats.CONNECTED {
		return fmt.Errorf("publish %s: %w", subject, ErrNotConnected)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ack, err := c.js.Publish(ctx, subject, payload, jetstream.WithMsgID(subject))
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	c.logger.Debug("event published", "subject", subject, "stream", ack.Stream, "seq", ack.Sequence, "duplicate", ack.Duplicate)
	return nil
}

// Close drains the connection and blocks until it is closed or
// drainTimeout passes, so in-flight acks are not dropped on exit.
func (c *NATSClient) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
		return
	}
	select {
	case <-c.closed:
	case <-time.After(drainTimeout):
		c.logger.Warn("nats drain timed out", "timeout", drainTimeout)
		c.conn.Close()
	}
}

func (c *NATSClient) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}
