package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/database"
	postgresrepo "github.com/parleychat/parley/internal/repository/postgres"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/internal/transport/http/handlers"
	"github.com/parleychat/parley/internal/transport/http/middleware"
	"github.com/parleychat/parley/internal/transport/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	roomRepo := postgresrepo.NewRoomRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	roomService := service.NewRoomService(roomRepo, logger)
	messageService := service.NewMessageService(messageRepo, roomRepo, logger,
		cfg.Message.DeleteDelay, cfg.Message.HistoryPage)

	// Realtime hub; the notifier closes the service→hub loop.
	hub := ws.NewHub(logger)
	notifier := ws.NewHubNotifier(hub, logger)
	roomService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	roomHandler := handlers.NewRoomHandler(roomService, logger)
	messageHandler := handlers.NewMessageHandler(messageService, logger)

	auth := middleware.Auth(authService)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected
	mux.Handle("GET /api/v1/auth/me", auth(http.HandlerFunc(authHandler.Me)))

	mux.Handle("POST /api/v1/rooms", auth(http.HandlerFunc(roomHandler.Create)))
	mux.Handle("GET /api/v1/rooms", auth(http.HandlerFunc(roomHandler.List)))
	mux.Handle("GET /api/v1/rooms/{id}", auth(http.HandlerFunc(roomHandler.Get)))
	mux.Handle("POST /api/v1/rooms/{id}/join", auth(http.HandlerFunc(roomHandler.Join)))
	mux.Handle("POST /api/v1/rooms/{id}/leave", auth(http.HandlerFunc(roomHandler.Leave)))
	mux.Handle("GET /api/v1/rooms/{id}/members", auth(http.HandlerFunc(roomHandler.ListMembers)))

	mux.Handle("GET /api/v1/rooms/{id}/messages", auth(http.HandlerFunc(messageHandler.History)))
	mux.Handle("POST /api/v1/rooms/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Edit)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Realtime; auth happens inside the handler via the token query param.
	mux.Handle("GET /ws", ws.ServeWS(hub, authService, ws.Services{
		Rooms:    roomService,
		Messages: messageService,
	}, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: middleware.CORS(cfg.Server.CORSOrigin)(mux),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
