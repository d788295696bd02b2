package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/typetrace/typetrace/internal/config"
	"github.com/typetrace/typetrace/internal/logging"
	"github.com/typetrace/typetrace/internal/tracker"
	"github.com/typetrace/typetrace/internal/tracker/bridge"
)

// signatureWait bounds how long startup waits for the extension's hello
// before falling back to the default browser identity.
const signatureWait = 30 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.Logging.Level, logging.ParseFormat(cfg.Logging.Format), "browser-tracker")

	if err := run(cfg, log); err != nil {
		log.Error("tracker exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	br := bridge.NewServer(log)
	defer br.Close()

	mux := http.NewServeMux()
	mux.Handle("/events", br.Handler())

	srv := &http.Server{
		Addr:        cfg.Tracker.BridgeAddress,
		Handler:     mux,
		ReadTimeout: 0, // websocket connections are long lived
		IdleTimeout: 0,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("bridge listening", "address", cfg.Tracker.BridgeAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve bridge: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		reporter := tracker.NewReporter(cfg.Tracker.CollectorURL, identify(ctx, cfg, br, log), log)
		defer reporter.Wait()

		ctrl := tracker.NewController(br, reporter,
			time.Duration(cfg.Tracker.QueryTimeoutMs)*time.Millisecond, log)
		ctrl.Run(ctx, br.Events())
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown bridge: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}

// identify resolves the browser once at startup. A configured signature wins;
// otherwise the first hello from the extension supplies it.
func identify(ctx context.Context, cfg *config.Config, br *bridge.Server, log *slog.Logger) tracker.Browser {
	sig := cfg.Tracker.Signature
	if sig == "" {
		waitCtx, cancel := context.WithTimeout(ctx, signatureWait)
		defer cancel()

		var err error
		sig, err = br.Signature(waitCtx)
		if err != nil {
			log.Warn("no browser signature received, assuming default", "error", err)
		}
	}
	browser := tracker.Identify(sig)
	log.Info("browser identified", "browser", string(browser))
	return browser
}
