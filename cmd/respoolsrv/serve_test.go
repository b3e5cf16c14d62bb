package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/haasonsaas/respool/internal/demoresource"
	"github.com/haasonsaas/respool/internal/infra"
	"github.com/haasonsaas/respool/respool"
)

func TestDemoHTTPServer_HealthzAndMetrics(t *testing.T) {
	pool := respool.New[*demoresource.Conn](respool.Options{
		MaxConnections: 4,
		AcquireTimeout: time.Second,
	})
	defer pool.Close(context.Background())

	healthReg := infra.NewHealthCheckRegistry()
	healthReg.RegisterSimple("pool", func(ctx context.Context) error { return nil })

	srv := &demoHTTPServer{}
	if err := srv.start("127.0.0.1:0", "", healthReg, pool); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	defer func() {
		if err := srv.stop(context.Background()); err != nil {
			t.Errorf("stop() error = %v", err)
		}
	}()

	addr := srv.server.Addr
	if addr == "127.0.0.1:0" {
		t.Fatal("expected the server's listener to bind a concrete port")
	}

	healthzURL := "http://" + srv.server.Addr + "/healthz"
	waitForListener(t, healthzURL)

	resp, err := http.Get(healthzURL)
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Status string        `json:"status"`
		Pool   respool.Stats `json:"pool"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != string(infra.ServiceHealthHealthy) {
		t.Errorf("status = %q, want %q", body.Status, infra.ServiceHealthHealthy)
	}
	if body.Pool.Max != 4 {
		t.Errorf("pool.max = %d, want 4", body.Pool.Max)
	}

	metricsResp, err := http.Get("http://" + srv.server.Addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", metricsResp.StatusCode, http.StatusOK)
	}
}

func TestDemoHTTPServer_SeparateMetricsListener(t *testing.T) {
	pool := respool.New[*demoresource.Conn](respool.Options{MaxConnections: 1})
	defer pool.Close(context.Background())

	healthReg := infra.NewHealthCheckRegistry()

	srv := &demoHTTPServer{}
	if err := srv.start("127.0.0.1:0", "localhost:0", healthReg, pool); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	defer srv.stop(context.Background())

	if srv.metricsServer == nil {
		t.Fatal("expected a dedicated metrics server when metricsAddr differs from addr")
	}

	waitForListener(t, "http://"+srv.metricsServer.Addr+"/metrics")
	resp, err := http.Get("http://" + srv.metricsServer.Addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics on dedicated listener: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// The main listener should not also expose /metrics.
	mainResp, err := http.Get("http://" + srv.server.Addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics on main listener: %v", err)
	}
	defer mainResp.Body.Close()
	if mainResp.StatusCode != http.StatusNotFound {
		t.Errorf("main listener /metrics status = %d, want %d", mainResp.StatusCode, http.StatusNotFound)
	}
}

func waitForListener(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", url)
}
