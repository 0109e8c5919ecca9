package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modelreg/internal/api"
	"github.com/zjrosen/modelreg/internal/artifact"
	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/registry"
	"github.com/zjrosen/modelreg/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry over HTTP",
	Long: `Serve version metadata and predictions over HTTP.

Endpoints:
  GET  /health
  GET  /model-types
  GET  /model-types/{type}/latest
  GET  /versions?model_type=
  GET  /versions/{name}
  POST /predict

With the file artifact backend the model directory is watched, so artifacts
replaced by another process are reloaded on the next request.

Example:
  modelreg serve                  # Start on api.addr (default localhost:8000)
  modelreg serve --addr :9000     # Listen on all interfaces, port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	addr := serveAddr
	if addr == "" {
		addr = cfg.API.Addr
	}

	server, err := api.NewServer(api.ServerConfig{
		Addr:     addr,
		Registry: a.reg,
		Tracer:   a.tracing.Tracer(),
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if files, ok := a.store.(*artifact.FileStore); ok {
		stop, err := watchArtifacts(ctx, files.Dir(), a.reg)
		if err != nil {
			// Cached models then expire only through the TTL.
			log.ErrorErr(log.CatWatcher, "Artifact watcher disabled", err, "dir", files.Dir())
		} else {
			defer stop()
		}
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "modelreg serving on port %d\n", server.Port())
	_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		_, _ = fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatAPI, "Error stopping API server", err)
	}

	_, _ = fmt.Fprintln(out, "Server stopped")
	return nil
}

// artifactWatchConfig watches dir for artifacts in the registry's codec format.
func artifactWatchConfig(dir string, reg *registry.Registry) watcher.Config {
	cfg := watcher.DefaultConfig(dir)
	cfg.Ext = "." + reg.Codec().Format()
	return cfg
}

// watchArtifacts invalidates cached models whose artifact files change on disk.
// The returned function stops the watcher.
func watchArtifacts(ctx context.Context, dir string, reg *registry.Registry) (func(), error) {
	w, err := watcher.New(artifactWatchConfig(dir, reg))
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case keys := <-changes:
				for _, key := range keys {
					reg.InvalidateArtifact(ctx, key)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = w.Stop()
	}, nil
}
