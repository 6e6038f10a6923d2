package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/planlift/planlift/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the floorplan analysis HTTP server",
	Long: `Serve exposes the analysis pipeline over HTTP:

  GET  /health       server health
  POST /analyze      multipart form with "rooms" JSON and optional "image"
  GET  /ws/analyze   WebSocket analysis with per-stage progress
  GET  /metrics      Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind (overrides config)")
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Int("rate-limit", 0, "max analysis requests per client per minute (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}
	port := cfg.Server.Port
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		port = v
	}

	serverCfg := server.Config{
		Host:            host,
		Port:            port,
		CORSOrigin:      cfg.Server.CORSOrigin,
		MaxUploadMB:     int64(cfg.Server.MaxUploadMB),
		TimeoutSec:      cfg.Server.TimeoutSec,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
		PipelineConfig:  cfg.ToPipelineConfig(),
	}
	if limit, _ := cmd.Flags().GetInt("rate-limit"); limit > 0 {
		serverCfg.RateLimit = &server.RateLimitConfig{
			RequestsPerMinute: limit,
			MaxDataPerDay:     serverCfg.MaxUploadMB * 1024 * 1024 * 100,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, serverCfg)
}
