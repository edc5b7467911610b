package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"canteen/internal/config"
	"canteen/internal/events"
	"canteen/internal/http/handlers"
	applog "canteen/internal/log"
	"canteen/internal/repos"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run starts the server and blocks until a signal or a startup failure.
func run() error {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
			defer func() {
				log.SetOutput(os.Stderr)
				f.Close()
			}()
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN, cfg.SeedDemo)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			return fmt.Errorf("events publisher: %w", err)
		}
		defer amqpPub.Close()
		pub = amqpPub
		log.Printf("[events] publishing to exchange %s", cfg.EventsExchange)
	}

	deps := handlers.NewDeps(db, cfg, pub)
	app := handlers.NewApp(cfg, deps, handlers.DefaultLimits)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.Info(nil, "server.start", map[string]any{"port": cfg.Port, "driver": cfg.DBDriver})
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		applog.Info(nil, "server.shutdown", nil)
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
