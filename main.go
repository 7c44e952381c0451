package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"github.com/twipi/tttbot/api"
	"github.com/twipi/tttbot/engine"
	"github.com/twipi/tttbot/service"
	twicmdhttp "github.com/twipi/twipi/twicmd/http"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

var (
	listenAddr = ":8080"
	cacheLimit = engine.DefaultCacheLimit
	gameExpiry = service.DefaultGameExpiry
	verbose    = false
)

func init() {
	pflag.StringVarP(&listenAddr, "listen-addr", "l", listenAddr, "address to listen on")
	pflag.IntVar(&cacheLimit, "cache-limit", cacheLimit, "transposition cache entries before it is reset")
	pflag.DurationVar(&gameExpiry, "game-expiry", gameExpiry, "how long a game session is kept")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "enable debug logging")
	pflag.Parse()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	os.Exit(start(ctx, logger))
}

func start(ctx context.Context, logger *slog.Logger) int {
	errg, ctx := errgroup.WithContext(ctx)

	e := engine.NewEngine(cacheLimit, logger.With("component", "engine"))
	svc := service.NewService(e, gameExpiry, logger.With("component", "service"))
	errg.Go(func() error { return svc.Start(ctx) })

	handler := api.NewHandler(svc, logger.With("component", "http"))
	cmdHandler := twicmdhttp.NewHandler(svc, logger.With("component", "twicmd"))
	errg.Go(func() error {
		<-ctx.Done()
		if err := handler.Close(); err != nil {
			logger.Error(
				"failed to close http handler",
				"err", err)
		}
		if err := cmdHandler.Close(); err != nil {
			logger.Error(
				"failed to close http service handler",
				"err", err)
		}
		return ctx.Err()
	})

	errg.Go(func() error {
		r := http.NewServeMux()
		r.Handle("/twicmd/", http.StripPrefix("/twicmd", cmdHandler))
		r.Handle("/", handler)

		logger.Info(
			"listening via HTTP",
			"addr", listenAddr,
			"cache_limit", cacheLimit,
			"opening_positions", e.OpeningBookSize())

		if err := hserve.ListenAndServe(ctx, listenAddr, r); err != nil {
			logger.Error(
				"failed to listen and serve",
				"err", err)
			return err
		}

		return ctx.Err()
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(
			"service error",
			"err", err)
		return 1
	}

	return 0
}
