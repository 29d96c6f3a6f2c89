package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"moviedb/internal/config"
	"moviedb/internal/core/listing"
	"moviedb/internal/core/similar"
	"moviedb/internal/httpapi"
	"moviedb/internal/infra/logx"
	"moviedb/internal/tmdb"
	"moviedb/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "path to the TOML config file")
	serve := flag.Bool("serve", false, "serve the movie list over HTTP instead of the terminal UI")
	addr := flag.String("addr", "", "listen address for -serve (overrides listen_addr)")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			return err
		}
		fmt.Println("config written to", *configPath)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOut, closeLog, err := setupLogging(cfg, *serve)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topts := tmdb.DefaultTransportOptions(cfg.RPS, cfg.Burst, cfg.RetryMax)
	client := tmdb.New(tmdb.Options{
		APIKey:       cfg.APIKey,
		AccessToken:  cfg.AccessToken,
		BaseURL:      cfg.BaseURL,
		Language:     cfg.Language,
		Region:       cfg.Region,
		IncludeAdult: cfg.IncludeAdult,
		HTTP: &http.Client{
			Transport: tmdb.NewRetryingLimiterTransport(topts),
			Timeout:   cfg.Timeout,
		},
	})
	loader := &similar.Loader{Client: client, ImageBaseURL: cfg.ImageBaseURL, PosterSize: cfg.PosterSize}

	if *serve {
		coord := listing.NewCoordinator(listing.PopularSource(client), listing.SearchSource(client),
			listing.WithContext(ctx))
		defer coord.Close()
		return serveHTTP(ctx, cfg.ListenAddr, logOut, httpapi.Dependencies{
			Coordinator: coord,
			Loader:      loader,
			Metrics:     topts.Metrics,
		})
	}
	return runTUI(ctx, client, loader, topts.Metrics)
}

// setupLogging sends logx to the log file. The headless server also logs to
// stderr since there is no screen to corrupt.
func setupLogging(cfg config.Config, serve bool) (io.Writer, func(), error) {
	logx.RegisterSecrets(cfg.Secrets())
	logx.SetMinLevel(logx.ParseLevel(cfg.LogLevel))
	if len(os.Getenv("DEBUG")) > 0 {
		logx.SetMinLevel(logx.LevelDebug)
		logx.SetVerbose(true)
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	var out io.Writer = f
	if serve {
		out = io.MultiWriter(f, os.Stderr)
	}
	logx.SetOutput(out)
	return out, func() {
		logx.SetOutput(nil)
		_ = f.Close()
	}, nil
}

func runTUI(ctx context.Context, client *tmdb.Client, loader *similar.Loader, metrics *tmdb.Metrics) error {
	coord := listing.NewCoordinator(listing.PopularSource(client), listing.SearchSource(client),
		listing.WithContext(ctx))
	defer coord.Close()

	p := tea.NewProgram(ui.New(coord, loader, ui.Options{Metrics: metrics}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	bridge := ui.ProgramDisplay{P: p}
	coord.SetDisplay(bridge)
	// failures go to the screen and to the log file
	coordSink := listing.MultiSink{listing.LogSink{}, bridge}
	coord.SetErrorSink(coordSink)
	coord.LoadInitialBrowsing()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func serveHTTP(ctx context.Context, addr string, logOut io.Writer, deps httpapi.Dependencies) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     log.New(logx.StdlogWriter(logx.LevelError, logOut), "", 0),
	}

	deps.Coordinator.LoadInitialBrowsing()

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logx.Infof("server stopped")
	return nil
}
