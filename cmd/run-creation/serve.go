package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/cache"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/consumer"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/hub"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/publisher"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		scanOnStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached reports, scans and the live feed over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.runServe(cmd, scanOnStart)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $RUNCREATION_SERVER_ADDR or :8080)")
	cmd.Flags().BoolVar(&scanOnStart, "scan-on-start", false, "build a report before accepting requests")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, scanOnStart bool) error {
	cfg := a.cfg
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "🚀 Starting Run Creation service...")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	fmt.Fprintln(out, "✓ Connected to Redis")

	writer := cache.NewRedisWriter(redisClient)
	m := metrics.New()

	feed := hub.NewHub(cfg.Stream.HeartbeatInterval, a.logger)
	go feed.Run(ctx)

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Input.Workers),
		pipeline.WithRecorder(m),
		pipeline.WithLogger(a.logger),
		pipeline.WithSinks(
			pipeline.CacheSink(writer),
			pipeline.StreamSink(publisher.NewStreamPublisher(redisClient, cfg.Stream.MaxLen)),
		),
	}

	store, err := openStore(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, pipeline.WithSinks(pipeline.StoreSink(store)))
		fmt.Fprintln(out, "✓ Connected to Postgres")
	}

	p := pipeline.New(pipelineInputs(cfg), opts...)

	// the feed follows the report stream, so scans run elsewhere with
	// --publish reach connected clients too
	streamConsumer := consumer.NewStreamConsumer(redisClient, feed.Sink(), consumer.Config{
		Group:      cfg.Stream.ConsumerGroup,
		ConsumerID: cfg.Stream.ConsumerID,
	}, a.logger)
	go func() {
		if err := streamConsumer.Start(ctx); err != nil {
			a.logger.Error("stream consumer stopped", "error", err)
		}
	}()

	if scanOnStart {
		if _, err := p.Run(ctx); err != nil {
			a.logger.Error("initial scan failed", "error", err)
		}
	}

	h := handlers.NewHandler(ctx, writer, p, feed, a.logger)
	h.AddDependency("redis", writer)
	if store != nil {
		h.AddDependency("postgres", store)
	}

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			Metrics:        m.Handler(),
			Logger:         a.logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	fmt.Fprintln(out, "\n🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("server shutdown error", "error", err)
	}

	fmt.Fprintln(out, "✓ Shutdown complete")
	return nil
}
