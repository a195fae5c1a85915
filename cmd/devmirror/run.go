// Package main is the devmirror command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/frudas24/devmirror/internal/app"
	"github.com/frudas24/devmirror/internal/logging"
	"github.com/frudas24/devmirror/internal/window"
)

// newRunCommand serves the mirror until interrupted.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var staticDir string
	var windowFlag bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the mirror, the HTTP viewer and (optionally) the desktop window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				cfg.Window = windowFlag
			}

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another devmirror instance holds %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := a.Start(runCtx); err != nil {
				return err
			}
			defer a.Wait()
			defer stop()

			mux := http.NewServeMux()
			a.RegisterRoutes(mux, staticDir)
			server := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			logger.Info("devmirror started",
				logging.String("listen", cfg.ListenAddr),
				logging.String("url", localURL(cfg.ListenAddr)),
				logging.String("adb", cfg.ADBPath),
				logging.Bool("window", cfg.Window))

			var serveErr error
			if cfg.Window {
				serveErr = runWindow(runCtx, a, logger, stop)
			}
			if serveErr == nil {
				select {
				case <-runCtx.Done():
				case serveErr = <-errCh:
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
				serveErr = err
			}
			return serveErr
		},
	}
	cmd.Flags().StringVar(&staticDir, "static", "", "Serve the viewer from this directory instead of the embedded copy")
	cmd.Flags().BoolVar(&windowFlag, "window", false, "Open the desktop window")
	return cmd
}

// runWindow blocks on the desktop window and stops the app when it closes.
func runWindow(ctx context.Context, a *app.App, logger *slog.Logger, stop context.CancelFunc) error {
	queue := window.NewQueue(a.Mapper(), 32, logger)
	go queue.Run(ctx)
	err := window.Run(ctx, "DevMirror", a.Handoff(), queue)
	if errors.Is(err, window.ErrUnavailable) {
		logger.Warn("desktop window unavailable; continuing with the HTTP viewer", logging.Error(err))
		return nil
	}
	stop()
	return err
}

// localURL turns a listen address into a clickable URL.
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
