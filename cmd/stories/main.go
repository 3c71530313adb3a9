// Command stories is a terminal client for searching Hacker News stories.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abelbrown/stories/internal/config"
	"github.com/abelbrown/stories/internal/fetch"
	"github.com/abelbrown/stories/internal/logging"
	"github.com/abelbrown/stories/internal/metrics"
	"github.com/abelbrown/stories/internal/persist"
	"github.com/abelbrown/stories/internal/store"
	"github.com/abelbrown/stories/internal/stories"
	"github.com/abelbrown/stories/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid config: %v", err)
	}

	if err := logging.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A missing store is not fatal: the query just isn't remembered.
	var storage persist.Storage
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		logging.Warn("Failed to create data directory", "error", err)
	}
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		logging.Warn("Store unavailable", "path", cfg.Storage.DBPath, "error", err)
	} else {
		defer st.Close()
		storage = st
		logging.Info("Store initialized", "path", cfg.Storage.DBPath)
	}
	query := persist.New(storage, cfg.Storage.QueryKey, cfg.UI.DefaultQuery)

	fetcher, err := fetch.NewFetcher(cfg.Search.Endpoint,
		time.Duration(cfg.Search.TimeoutSeconds)*time.Second, cfg.Search.RequestsPerSecond)
	if err != nil {
		fatal("Failed to create fetcher: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Router(reg)}
		go func() {
			logging.Info("Metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	lifecycle := stories.NewLifecycle(ctx, fetcher, collector)
	app := ui.NewApp(ui.AppConfig{
		Query:     query,
		Lifecycle: lifecycle,
		Mode:      cfg.Search.Mode,
		SeedQuery: cfg.Search.SeedQuery,
		OnRemove:  collector.ItemRemoved,
	})

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(app, opts...)

	logging.Info("Starting UI", "mode", cfg.Search.Mode, "endpoint", cfg.Search.Endpoint)
	if _, err := p.Run(); err != nil {
		logging.Error("Application error", "error", err)
		fatal("Error: %v", err)
	}
	lifecycle.Cancel()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
