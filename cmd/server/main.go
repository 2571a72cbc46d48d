package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomrelay/internal/server"
	"github.com/Tyrowin/roomrelay/pkg/log"
	"github.com/Tyrowin/roomrelay/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "room relay: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}

	logger, props, err := log.InitLogger(config.LogConfig())
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)
	defer func() { _ = log.Sync() }()

	metrics.Register(prometheus.DefaultRegisterer)

	log.Info("Starting room relay",
		zap.String("port", config.Port),
		zap.Strings("allowedOrigins", config.AllowedOrigins),
		zap.Bool("trustMessageRoom", config.TrustMessageRoom))

	srv := server.New(config)
	srv.StartHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})
	return g.Wait()
}
