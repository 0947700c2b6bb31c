package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/erazemk/campusfound/internal/api"
	"github.com/erazemk/campusfound/internal/matching"
	"github.com/erazemk/campusfound/internal/store"
)

// multipartOverhead covers the form fields around the images of a claim
// submission.
const multipartOverhead = 1 << 20

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
			closeLog, err := setupLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			// Auto-init on first run.
			if _, err := os.Stat(cfg.Database.Path); errors.Is(err, fs.ErrNotExist) {
				database, password, err := initDatabase(cfg.Database.Path, cfg.Auth.AdminUsername)
				if err != nil {
					return fmt.Errorf("initializing database: %w", err)
				}
				database.Close()

				printInitResult(cmd.OutOrStdout(), cfg.Database.Path, cfg.Auth.AdminUsername, password)
				fmt.Fprintln(cmd.OutOrStdout())
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			slog.Info("database ready", "path", cfg.Database.Path)

			// Load JWT secret from database (auto-generated on first run).
			jwtSecret, err := store.GetJWTSecret(cmd.Context(), database)
			if err != nil {
				return fmt.Errorf("loading JWT secret: %w", err)
			}

			a, err := newApp(cfg, database)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Mail outlives the signal so handlers finishing during
			// shutdown can still enqueue.
			a.mail.Start(context.Background())

			waitSweeps := func() {}
			if interval := cfg.SweepInterval(); interval > 0 {
				waitSweeps = startPeriodicMatching(runCtx, a.engine, interval)
				slog.Info("periodic matching enabled", "interval", interval)
			}

			maxUpload := int64(cfg.Storage.MaxImages)*cfg.Storage.MaxImageBytes + multipartOverhead
			router := api.NewRouter(api.Deps{
				DB:             database,
				JWTSecret:      jwtSecret,
				TokenTTL:       cfg.TokenTTL(),
				Items:          a.items,
				Claims:         a.claims,
				Matching:       a.engine,
				Files:          a.files,
				MaxUploadBytes: maxUpload,
			})

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.LoggingMiddleware(router),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       60 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			// Graceful shutdown on SIGINT/SIGTERM.
			shutdownDone := make(chan struct{})
			go func() {
				defer close(shutdownDone)
				<-runCtx.Done()
				slog.Info("shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("server forced to shutdown", "error", err)
				}
			}()

			slog.Info("server started", "addr", cfg.Server.Addr,
				"max_upload", humanize.IBytes(uint64(maxUpload)))
			serveErr := server.ListenAndServe()

			// ListenAndServe returns as soon as Shutdown begins; wait for
			// in-flight requests before draining what they enqueued.
			stop()
			<-shutdownDone
			waitSweeps()

			slog.Info("server stopped, draining mail queue")
			drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			a.mail.Stop(drainCtx)
			cancel()

			if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", serveErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.addr)")
	return cmd
}

// startPeriodicMatching runs automatch sweeps until ctx ends. The returned
// function blocks until the sweep loop has exited.
func startPeriodicMatching(ctx context.Context, engine *matching.Engine, interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.RunPeriodic(ctx, interval)
	}()
	return func() { <-done }
}
