package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clouddwh/architect/internal/api"
	"github.com/clouddwh/architect/internal/config"
	"github.com/clouddwh/architect/internal/ratelimit"
	"github.com/spf13/cobra"
)

// Requests per minute a single client address may send to the auth routes.
const clientAuthRate = 60

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := newStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	clientLimiter := ratelimit.New(clientAuthRate, time.Minute)
	go st.janitor(ctx, time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				clientLimiter.Sweep()
			}
		}
	}()

	router := api.NewRouter(api.RouterDeps{
		Provider:       st.provider,
		Accounts:       st.accounts,
		Projects:       st.projects,
		Bridge:         st.bridge,
		Sessions:       st.sessions,
		Resets:         st.resets,
		Limiter:        clientLimiter,
		Metrics:        st.metrics,
		AdminKey:       cfg.Admin.Key,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ping:           st.ping,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	cancel()
	if n := st.sessions.Len(); n > 0 {
		slog.Info("dropping open sessions", "count", n)
	}
	return nil
}
