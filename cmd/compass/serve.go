package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/compasshq/compass/internal/config"
	"github.com/compasshq/compass/internal/db"
	"github.com/compasshq/compass/internal/digest"
	"github.com/compasshq/compass/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		noDigest   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Compass API server",
		Long:  "Launches the JSON REST API and the scheduled health-digest loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port, noDigest)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to Compass config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().BoolVar(&noDigest, "no-digest", false, "disable the scheduled health digest")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, noDigest bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if !noDigest {
		go func() {
			if err := digest.Run(ctx, digest.Opts{
				DB:        gormDB,
				Schedule:  cfg.Digest.Schedule,
				StaleDays: cfg.Digest.StaleDays,
				Out:       out,
			}); err != nil {
				fmt.Fprintf(out, "digest loop stopped: %v\n", err)
			}
		}()
	}

	return server.Start(ctx, server.StartOpts{
		DB:           gormDB,
		Port:         port,
		GapThreshold: cfg.Scoring.GapThreshold,
		Out:          out,
	})
}
