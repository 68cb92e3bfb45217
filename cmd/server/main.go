package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/internal/archive"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/handlers"
	"chat-relay/internal/relay"
	"chat-relay/internal/store"
	"chat-relay/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Optional postgres archive; the relay runs fully in memory without it
	var pg *archive.Postgres
	if cfg.Database.URL != "" {
		var err error
		pg, err = archive.NewPostgres(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to archive database: %v", err)
		}
		defer pg.Close()
	} else {
		logger.Info("DATABASE_URL not set; archive and account auth disabled")
	}

	// Volatile state containers
	registry := store.NewMemoryRegistry()
	rooms := store.NewMemoryDirectory()
	history := store.NewMemoryHistory(cfg.Relay.HistoryCapacity)

	// Relay dispatcher
	var archiver relay.Archiver
	if pg != nil {
		archiver = pg
	}
	dispatcher := relay.NewDispatcher(registry, rooms, history, archiver, relay.Options{
		AutoJoinRoom:    cfg.Relay.AutoJoinRoom,
		CallSignalScope: cfg.Relay.CallSignalScope,
		MessageTTL:      cfg.Relay.MessageTTL,
	})
	go dispatcher.Run()

	// Services and handlers
	authService := auth.NewService(pg, cfg)
	authHandlers := handlers.NewAuthHandlers(authService)
	roomHandlers := handlers.NewRoomHandlers(rooms, history)
	wsHandlers := handlers.NewWebSocketHandlers(authService, dispatcher)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
	dispatcher.Stop()
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// Auth routes
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)
	mux.HandleFunc("/guest", authHandlers.Guest)

	// Room routes
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomHandlers.ListRooms(w, r)
	})

	// Room sub-routes
	mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /rooms/{id}/search
		if len(parts) == 4 && parts[3] == "search" && r.Method == http.MethodGet {
			roomHandlers.SearchHistory(w, r)
			return
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// Health route
	mux.HandleFunc("/healthz", handlers.HandleHealth)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("API endpoints:")
	logger.Info("   POST /login")
	logger.Info("   POST /register")
	logger.Info("   POST /guest")
	logger.Info("   GET  /rooms")
	logger.Info("   GET  /rooms/{id}/search?q=")
	logger.Info("   GET  /healthz")
}
