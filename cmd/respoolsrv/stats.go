package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/respool/internal/demoresource"
	"github.com/haasonsaas/respool/internal/infra"
	"github.com/haasonsaas/respool/internal/poolconfig"
	"github.com/haasonsaas/respool/respool"
)

func buildStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Acquire and release one connection, then print pool occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = defaultConfigPath()
			}
			return runStats(cmd.Context(), cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML/JSON5 configuration file")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, configPath string) error {
	cfg, err := poolconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := demoresource.NewFactory(demoresource.DialerConfig{
		Target:      cfg.Dial.Target,
		DialTimeout: cfg.Dial.Timeout.Duration,
		Retry:       infra.DefaultRetryConfig(),
	})

	pool := respool.New[*demoresource.Conn](respool.Options{
		MaxConnections:      cfg.Pool.MaxConnections,
		AcquireTimeout:      cfg.Pool.AcquireTimeout.Duration,
		IdleTimeout:         cfg.Pool.IdleTimeout.Duration,
		MaxLifetime:         cfg.Pool.MaxLifetime.Duration,
		HealthCheckInterval: cfg.Pool.HealthCheckInterval.Duration,
	})

	acquireCtx, cancel := context.WithTimeout(ctx, cfg.Pool.AcquireTimeout.Duration)
	defer cancel()

	handle, err := pool.Acquire(acquireCtx, factory)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	handle.Release()

	stats := pool.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "idle: %d\n", stats.Idle)
	fmt.Fprintf(out, "max:  %d\n", stats.Max)
	fmt.Fprintf(out, "closed: %t\n", stats.Closed)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	pool.Close(closeCtx)

	return nil
}
