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

	"github.com/typetrace/typetrace/internal/api"
	"github.com/typetrace/typetrace/internal/config"
	"github.com/typetrace/typetrace/internal/listener"
	"github.com/typetrace/typetrace/internal/logging"
	"github.com/typetrace/typetrace/internal/metrics"
	"github.com/typetrace/typetrace/internal/ratelimit"
	"github.com/typetrace/typetrace/internal/session"
	"github.com/typetrace/typetrace/internal/store"
	"github.com/typetrace/typetrace/pkg/models"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.Logging.Level, logging.ParseFormat(cfg.Logging.Format), "typetraced")

	if err := run(cfg, *configPath, log); err != nil {
		log.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, log *slog.Logger) error {
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store opened", "path", cfg.Storage.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Log level follows the config file without a restart.
	go func() {
		err := config.Watch(ctx, configPath, log, func(next *config.Config) {
			logging.SetLevel(next.Logging.Level)
		})
		if err != nil {
			log.Debug("config watch stopped", "error", err)
		}
	}()

	var tracker *session.Tracker
	if cfg.Listener.Enabled {
		tracker = session.NewTracker(st, time.Duration(cfg.Listener.IdleTimeoutSec)*time.Second, log)
		src := listener.NewSource(log)
		if err := src.Start(ctx); err != nil {
			if errors.Is(err, listener.ErrNotAvailable) {
				log.Warn("keystroke capture unavailable, running collector only")
				tracker = nil
			} else {
				return fmt.Errorf("start capture: %w", err)
			}
		} else {
			g.Go(func() error {
				defer src.Close()
				return captureLoop(ctx, src, st, tracker, log)
			})
		}
	}

	limiter := ratelimit.NewLimiter(cfg.Collector.RatePerMinute, cfg.Collector.Burst)
	statsHandler := api.NewStatsHandler(metrics.New(st), liveSource(tracker), log)
	contextHandler := api.NewContextHandler(st, log)
	router := api.SetupRoutes(statsHandler, contextHandler, limiter, cfg.Collector.RatePerMinute)

	srv := &http.Server{
		Addr:         cfg.Collector.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Info("collector listening", "address", cfg.Collector.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if tracker != nil {
		if err := tracker.End(); err != nil {
			log.Warn("close session", "error", err)
		}
	}
	log.Info("stopped")
	return nil
}

// captureLoop drains key events into per-minute records and the session
// tracker. Records for browser apps are stamped with the latest reported
// context.
func captureLoop(ctx context.Context, src listener.Source, st *store.Store, tracker *session.Tracker, log *slog.Logger) error {
	agg := listener.NewAggregator()
	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()

	flush := func(records []models.KeystrokeRecord) {
		for i := range records {
			stampBrowserContext(st, &records[i])
			if err := st.UpsertKeystroke(&records[i]); err != nil {
				log.Error("store keystroke record", "error", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush(agg.Flush())
			return nil
		case <-tick.C:
			if tracker != nil {
				if err := tracker.CheckIdle(); err != nil {
					log.Warn("session idle check", "error", err)
				}
			}
		case ev, ok := <-src.Events():
			if !ok {
				flush(agg.Flush())
				return nil
			}
			flush(agg.Process(ev))
			if tracker != nil && ev.Kind == listener.KeyCharacter {
				if err := tracker.RecordKeystrokes(1); err != nil {
					log.Warn("session record", "error", err)
				}
			}
		}
	}
}

var browserClasses = map[string]bool{
	"google-chrome":  true,
	"chromium":       true,
	"microsoft-edge": true,
	"firefox":        true,
	"brave-browser":  true,
}

func stampBrowserContext(st *store.Store, rec *models.KeystrokeRecord) {
	if !browserClasses[rec.AppClass] {
		return
	}
	bc, err := st.LatestBrowserContext()
	if err != nil {
		return
	}
	rec.BrowserDomain = bc.Domain
	rec.BrowserURL = bc.URL
}

// liveSource hides the nil tracker behind the interface so the /live
// endpoint can report capture-disabled.
func liveSource(t *session.Tracker) api.LiveSource {
	if t == nil {
		return nil
	}
	return t
}
