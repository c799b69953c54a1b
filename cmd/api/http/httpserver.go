package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ServerConfig struct {
	Port           int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
	RateLimitRPS   float64 //Zero turns rate limiting off.
	RateLimitBurst int
}

func NewServer(config ServerConfig, h *BookHandler, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(recoverer(logger))
	r.Use(securityHeaders)
	r.Use(cors(config.AllowedOrigins))
	if config.RateLimitRPS > 0 {
		r.Use(newRateLimiter(config.RateLimitRPS, config.RateLimitBurst).middleware)
	}
	if config.MaxBodyBytes > 0 {
		r.Use(bodyLimit(config.MaxBodyBytes))
	}
	if config.RequestTimeout > 0 {
		r.Use(requestTimeout(config.RequestTimeout))
	}

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/health", h.health)

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", h.listBooks)
		r.Post("/", h.createBook)
		r.Get("/search", h.searchBooks)
		r.Get("/available", h.availableBooks)
		r.Get("/unavailable", h.unavailableBooks)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.getBookById)
		r.Put("/{id}", h.updateBook)
		r.Patch("/{id}/availability", h.updateAvailability)
		r.Delete("/{id}", h.deleteBook)
	})

	server := http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	return &server
}
