// Package api provides the HTTP REST API server.
//
// It exposes endpoints for forex news, the economic calendar, candle
// data, the trade journal, and WebSocket streaming of refresh events.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vealko/tradescope/internal/config"
	"github.com/vealko/tradescope/internal/journal"
	"github.com/vealko/tradescope/internal/market"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	market  *market.Service
	journal *journal.Store
	wsHub   *WSHub
}

// NewServer creates a configured API server with all routes and
// middleware. Market refresh events are forwarded to WebSocket clients.
func NewServer(cfg *config.Config, svc *market.Service, store *journal.Store) *Server {
	srv := &Server{
		cfg:     cfg,
		market:  svc,
		journal: store,
		wsHub:   NewWSHub(),
	}

	svc.OnRefresh = func(kind string) {
		srv.wsHub.Broadcast(WSMessage{
			Type: "market_refresh",
			Data: map[string]any{"kind": kind},
		})
	}

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Market data
		r.Get("/news", s.handleNews)
		r.Get("/news/headlines", s.handleHeadlines)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/candles", s.handleCandles)

		// Journal
		r.Get("/trades", s.handleListTrades)
		r.Post("/trades", s.handleCreateTrade)
		r.Post("/trades/bulk-delete", s.handleBulkDelete)
		r.Get("/trades/{id}", s.handleGetTrade)
		r.Put("/trades/{id}", s.handleUpdateTrade)
		r.Delete("/trades/{id}", s.handleDeleteTrade)
		r.Get("/trades/{id}/image/{kind}", s.handleGetImage)
		r.Post("/trades/{id}/image/{kind}", s.handleSaveImage)

		r.Get("/stats", s.handleStats)

		r.Get("/strategies", s.handleListStrategies)
		r.Post("/strategies", s.handleCreateStrategy)
		r.Get("/strategies/{id}", s.handleGetStrategy)
		r.Delete("/strategies/{id}", s.handleDeleteStrategy)

		r.Get("/tags", s.handleListTags)
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
