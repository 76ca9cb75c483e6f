// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Semior001/newsjackal/app/api"
	"github.com/Semior001/newsjackal/app/feed"
	"github.com/Semior001/newsjackal/app/headlines"
	"github.com/Semior001/newsjackal/app/store"
	"github.com/Semior001/newsjackal/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/requester"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Run is a command to run the headlines server.
type Run struct {
	Port      int    `long:"port" env:"PORT" default:"5000" description:"port to listen on"`
	StorePath string `long:"store-path" env:"STORE_PATH" default:"./var" description:"parent dir for snapshot files"`
	Sources   string `long:"sources" env:"SOURCES" description:"path to a sources registry file, built-in registry when empty"`

	Cache struct {
		TTL time.Duration `long:"ttl" env:"TTL" default:"15m" description:"time to live for cached aggregations"`
	} `group:"cache" namespace:"cache" env-namespace:"CACHE"`

	Feed struct {
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"timeout for upstream feed fetches"`
	} `group:"feed" namespace:"feed" env-namespace:"FEED"`
}

// Execute runs the command.
func (r Run) Execute(_ []string) error {
	lg := slog.Default()

	sources := feed.DefaultSources()
	if r.Sources != "" {
		var err error
		if sources, err = feed.LoadSources(r.Sources); err != nil {
			return fmt.Errorf("load sources registry: %w", err)
		}
	}

	if err := os.MkdirAll(r.StorePath, 0o700); err != nil {
		return fmt.Errorf("make store dir: %w", err)
	}

	snapshots, err := store.NewBolt(r.StorePath)
	if err != nil {
		return fmt.Errorf("make snapshot store: %w", err)
	}

	defer func() {
		if err := snapshots.Close(); err != nil {
			lg.Error("close snapshot store", slog.Any("err", err))
		}
	}()

	rq := requester.New(
		http.Client{Timeout: r.Feed.Timeout},
		logx.LoggingRoundTripper(
			lg.With(slog.String("prefix", "feeds")),
			logx.RoundTripperOpts{Level: slog.LevelDebug},
		),
	)

	svc := headlines.NewService(
		lg.With(slog.String("prefix", "headlines")),
		feed.NewFetcher(lg.With(slog.String("prefix", "fetcher")), rq.Client()),
		sources,
		snapshots,
		r.Cache.TTL,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.NewServer(lg.With(slog.String("prefix", "api")), svc).Register(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		lg.Info("starting server", slog.String("addr", srv.Addr), slog.Int("sources", len(sources)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		lg.Info("shutting down server")
		if err := srv.Shutdown(shCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	lg.Info("server stopped")
	return nil
}
