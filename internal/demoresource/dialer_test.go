package demoresource

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/haasonsaas/respool/internal/infra"
)

func startEchoListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1024)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestFactory_DialsSuccessfully(t *testing.T) {
	target := startEchoListener(t)
	factory := NewFactory(DialerConfig{
		Target:      target,
		DialTimeout: time.Second,
		Retry:       &infra.RetryConfig{MaxAttempts: 0},
	})

	conn, err := factory(context.Background())
	if err != nil {
		t.Fatalf("factory() error = %v", err)
	}
	defer conn.Close(context.Background())

	if conn.ResourceID() == "" {
		t.Fatalf("expected a non-empty ResourceID")
	}
	if !conn.IsHealthy(context.Background()) {
		t.Fatalf("expected freshly dialed connection to be healthy")
	}
}

func TestFactory_RetriesBeforeGivingUp(t *testing.T) {
	// Nothing listens on this port; every dial attempt fails.
	factory := NewFactory(DialerConfig{
		Target:      "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		Retry: &infra.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Strategy:     infra.BackoffConstant,
		},
	})

	_, err := factory(context.Background())
	if err == nil {
		t.Fatalf("expected dial to an unreachable port to fail")
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	target := startEchoListener(t)
	factory := NewFactory(DialerConfig{Target: target, DialTimeout: time.Second})

	conn, err := factory(context.Background())
	if err != nil {
		t.Fatalf("factory() error = %v", err)
	}

	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if conn.IsHealthy(context.Background()) {
		t.Fatalf("expected closed connection to report unhealthy")
	}
}
