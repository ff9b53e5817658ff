package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/pkg/server"
	"github.com/vango-dev/kinetic/pkg/telemetry"
)

func serveCmd(cfg func() *config.Config) *cobra.Command {
	var (
		appName string
		port    int
		host    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo app over WebSocket",
		Long: `Serve a demo app. Every WebSocket connection on /ws gets its own
runtime; patches are streamed as binary frames and client events are
dispatched to the handlers they address.

Routes:
  /ws       WebSocket session
  /metrics  Prometheus metrics (metrics.enabled)
  /healthz  liveness probe

Examples:
  kinetic serve
  kinetic serve --app counter --port 9000
  kinetic watch ws://localhost:8080/ws`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if port > 0 {
				c.Server.Port = port
			}
			if host != "" {
				c.Server.Host = host
			}
			if err := c.Validate(); err != nil {
				return err
			}
			return runServe(c, appName)
		},
	}

	cmd.Flags().StringVarP(&appName, "app", "a", "todos", "App to serve: counter or todos")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

func runServe(cfg *config.Config, appName string) error {
	spec, err := lookupApp(appName)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithProps(spec.props)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := telemetry.NewMetrics(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(m, reg))
	}

	srv := server.New(spec.root, serverConfig(cfg), opts...)

	printBanner()
	info("app:      %s", appName)
	info("address:  http://%s", cfg.Address())
	info("session:  ws://%s/ws", cfg.Address())
	info("messages: up to %s", humanize.IBytes(uint64(srv.Config().MaxMessageSize)))
	if cfg.Metrics.Enabled {
		info("metrics:  http://%s/metrics", cfg.Address())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	success("server stopped")
	return nil
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = cfg.Address()
	sc.ReadTimeout = cfg.ReadTimeout()
	sc.WriteTimeout = cfg.WriteTimeout()
	sc.HeartbeatInterval = cfg.HeartbeatInterval()
	sc.MaxMessageSize = cfg.Server.MaxMessageSize
	sc.SendQueue = cfg.Server.SendQueue
	if origins := cfg.Server.AllowedOrigins; len(origins) > 0 {
		sc.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(origins, "*") || slices.Contains(origins, r.Header.Get("Origin"))
		}
	}
	return sc
}
