// Package demoresource provides a concrete respool.Resource implementation
// used by the respoolsrv demo command: a pooled TCP connection obtained by
// dialing a configured target, with dial attempts retried under backoff.
package demoresource

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/respool/internal/infra"
)

// Conn is a pooled TCP connection. It satisfies respool.Resource.
type Conn struct {
	id     string
	target string
	conn   net.Conn
	closed bool
}

// ResourceID returns a stable display string for diagnostics and logs.
func (c *Conn) ResourceID() string {
	return c.id
}

// IsHealthy reports whether the underlying TCP connection still appears
// live. It never blocks on I/O beyond setting a short deadline, and fails
// closed on any error.
func (c *Conn) IsHealthy(ctx context.Context) bool {
	if c.closed || c.conn == nil {
		return false
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
		return false
	}
	defer c.conn.SetReadDeadline(time.Time{})

	one := make([]byte, 1)
	_, err := c.conn.Read(one)
	if err == nil {
		// Unexpected data on an idle connection; treat the peer as alive.
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	return false
}

// Close closes the underlying connection. It is idempotent.
func (c *Conn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// DialerConfig configures the Conn factory.
type DialerConfig struct {
	// Target is the "host:port" address dialed for every new connection.
	Target string

	// DialTimeout bounds a single dial attempt.
	DialTimeout time.Duration

	// Retry configures how dial failures are retried before the factory
	// gives up and returns an error to the pool's Acquire caller.
	Retry *infra.RetryConfig

	Logger *slog.Logger
}

// NewFactory builds a respool.Factory[*Conn] that dials cfg.Target,
// retrying transient failures per cfg.Retry.
func NewFactory(cfg DialerConfig) func(ctx context.Context) (*Conn, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = infra.DefaultRetryConfig()
	}

	return func(ctx context.Context) (*Conn, error) {
		dialer := net.Dialer{Timeout: cfg.DialTimeout}

		nc, result := infra.Retry(ctx, retryCfg, func(ctx context.Context) (net.Conn, error) {
			c, err := dialer.DialContext(ctx, "tcp", cfg.Target)
			if err != nil {
				return nil, fmt.Errorf("dial %s: %w", cfg.Target, err)
			}
			return c, nil
		})
		if result.LastError != nil {
			logger.Warn("dial factory exhausted retries",
				"target", cfg.Target, "attempts", result.Attempts, "error", result.LastError)
			return nil, result.LastError
		}

		return &Conn{
			id:     uuid.NewString(),
			target: cfg.Target,
			conn:   nc,
		}, nil
	}
}
