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
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ugaemi/bugbusters-server/internal/clock"
	"github.com/ugaemi/bugbusters-server/internal/config"
	"github.com/ugaemi/bugbusters-server/internal/handler"
	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
	"github.com/ugaemi/bugbusters-server/internal/session"
	"github.com/ugaemi/bugbusters-server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open leaderboard", "backend", cfg.LeaderboardBackend, "error", err)
		os.Exit(1)
	}
	scores := leaderboard.NewService(store, cfg.LeaderboardLimit)
	defer scores.Close()

	sessions := session.NewManager(cfg.Round, scores, clock.Real{})
	router := handler.NewRouter(sessions)

	hub := ws.NewHub()
	hub.OnConnect = router.HandleConnect
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(hub, w, r)
	})
	mux.Handle("/scores", handler.NewScoresHandler(scores))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "leaderboard", cfg.LeaderboardBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	<-hub.Done()
	sessions.CloseAll()
	slog.Info("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (leaderboard.Store, error) {
	switch cfg.LeaderboardBackend {
	case config.BackendPostgres:
		return leaderboard.NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		return leaderboard.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendHTTP:
		if cfg.LeaderboardURL == "" {
			return nil, errors.New("LEADERBOARD_URL is required for the http backend")
		}
		return leaderboard.NewHTTPStore(cfg.LeaderboardURL), nil
	case config.BackendMemory:
		return leaderboard.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", cfg.LeaderboardBackend)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleWebSocket(hub *ws.Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(hub, conn)
	select {
	case hub.Register <- client:
	case <-hub.Done():
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
