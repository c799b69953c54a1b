package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-catalog/cmd/api/book"
	"github.com/book-catalog/cmd/api/config"
	bookhttp "github.com/book-catalog/cmd/api/http"
	"github.com/book-catalog/cmd/api/inmemory"
	"github.com/book-catalog/cmd/api/notifications"
)

func main() {
	err := run()
	if err != nil {
		slog.Error("book catalog stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	var seed []book.Book
	if cfg.SeedBooks {
		seed = book.SeedBooks()
	}
	store, err := inmemory.NewInMemoryStore(seed...)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	var notifier book.Notifier
	if cfg.Notifications.Enabled {
		notifier = notifications.NewNtfy(true, cfg.Notifications.TopicURL, &http.Client{})
	}

	bookService := book.NewService(store, notifier, cfg.Notifications.Timeout, logger)
	bookHandler := bookhttp.NewBookHandler(bookService, logger)

	//create and init http server:
	server := bookhttp.NewServer(bookhttp.ServerConfig{
		Port:           cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, bookHandler, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", server.Addr), slog.String("env", cfg.Env), slog.Int("books", len(seed)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("unexpected http server error: %w", err)
		}
		close(serverErr)
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-sc:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, shutdownRelease := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownRelease()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	logger.Info("Graceful shutdown complete.")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
