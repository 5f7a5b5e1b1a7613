package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"historando-backend/internal/config"
	"historando-backend/internal/database"
	"historando-backend/internal/handlers"
	"historando-backend/internal/middleware"
	"historando-backend/internal/repository"
	"historando-backend/internal/router"
	"historando-backend/internal/services"
	"historando-backend/internal/websocket"
	"historando-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting HistoRando Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	parcoursRepo := repository.NewParcoursRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	challengeRepo := repository.NewChallengeRepo(pool)
	rewardRepo := repository.NewRewardRepo(pool)
	pointsRepo := repository.NewPointsRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	notifier := services.NewNotifier(redisClients.Queue)
	qrService := services.NewQRCodeService(cfg.StoragePath, cfg.QRBaseURL)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth, emailService, cfg.GoogleClientID)
	sessionService := services.NewSessionService(pool, sessionRepo, parcoursRepo, userRepo, pointsRepo, activityRepo, notifier)
	challengeService := services.NewChallengeService(pool, challengeRepo, activityRepo, userRepo, pointsRepo, notifier)
	rewardService := services.NewRewardService(pool, rewardRepo, userRepo, pointsRepo, emailService, notifier)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, cfg.FrontendURL)
	userHandler := handlers.NewUserHandler(userRepo)
	parcoursHandler := handlers.NewParcoursHandler(parcoursRepo, jobRepo, redisClients.Queue)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	challengeHandler := handlers.NewChallengeHandler(challengeService, challengeRepo)
	rewardHandler := handlers.NewRewardHandler(rewardService, rewardRepo)
	statsHandler := handlers.NewStatsHandler(pool, userRepo, pointsRepo, activityRepo, redisClients.Queue)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 5: Start QR Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		qrService,
		notifier,
		jobRepo,
		parcoursRepo,
		cfg.QRWorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ QR worker pool started (%d goroutines)", cfg.QRWorkerCount)

	reminderScheduler := services.NewReminderScheduler(userRepo, emailService, redisClients.Queue)
	reminderScheduler.Start()
	log.Println("✓ Walk reminder scheduler started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		userHandler,
		parcoursHandler,
		sessionHandler,
		challengeHandler,
		rewardHandler,
		statsHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
		cfg.StoragePath,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		reminderScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ HistoRando Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
