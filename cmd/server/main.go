package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"goalbingo/internal/config"
	"goalbingo/internal/database"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/handlers"
	"goalbingo/internal/repository"
	"goalbingo/internal/security"
	"goalbingo/internal/service"
	"goalbingo/internal/store"
	"goalbingo/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(migrations.FS); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed bad words filter
	if cfg.SeedBadWords {
		if err := db.SeedBadWords(ctx); err != nil {
			log.Printf("Warning: Failed to seed bad words filter: %v", err)
		}
	}

	stateStore, err := store.Open(cfg.GameStateStore, db, cfg.LocalStateDir)
	if err != nil {
		log.Fatalf("Failed to open game state store: %v", err)
	}
	log.Printf("Game state store: %s", cfg.GameStateStore)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewCardRepository(db)
	battleRepo := repository.NewBattleRepository(db)
	friendRepo := repository.NewFriendRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tokens := security.NewTokenIssuer(secretOrRandom("JWT_SECRET", cfg.JWTSecret), cfg.SessionDuration)
	csrf := security.NewCSRFGenerator(secretOrRandom("CSRF_SECRET", cfg.CSRFSecret))
	limiter := security.NewRateLimiter(5, time.Minute)

	// Initialize services
	gameService := service.NewGameService(stateStore, cardRepo, battleRepo, gamestate.SystemClock{}, cfg.Debug)
	authService := service.NewAuthService(userRepo, tokens, db, emailService)
	cardService := service.NewCardService(cardRepo, gameService, db)
	battleService := service.NewBattleService(battleRepo, userRepo, friendRepo, gameService, emailService)
	friendService := service.NewFriendService(friendRepo, userRepo, gameService, cfg.Debug)
	analyticsService := service.NewAnalyticsService(cardRepo, gameService)

	// Initialize handlers
	h := &handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService, gameService, csrf),
		Card:       handlers.NewCardHandler(cardService, gameService),
		Game:       handlers.NewGameHandler(gameService),
		Battle:     handlers.NewBattleHandler(battleService),
		Friend:     handlers.NewFriendHandler(friendService),
		Analytics:  handlers.NewAnalyticsHandler(analyticsService),
		Middleware: handlers.NewMiddleware(authService, csrf, limiter),
		DB:         db,
	}

	// Setup routes
	mux := http.NewServeMux()
	h.Register(mux)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background jobs
	go limiter.Run(ctx, 10*time.Minute)
	go cleanupExpiredSessions(ctx, authService)
	go sweepBattles(ctx, battleService, cfg.BattleSweepInterval)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// secretOrRandom returns value, or a random secret when it is unset. Tokens
// signed with a random secret do not survive a restart.
func secretOrRandom(name, value string) string {
	if value != "" {
		return value
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate %s: %v", name, err)
	}
	log.Printf("Warning: %s is not set, using a random secret", name)
	return hex.EncodeToString(buf)
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.CleanupExpiredSessions(ctx)
			if err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
				continue
			}
			log.Printf("Expired sessions cleaned up: %d", n)
		}
	}
}

// sweepBattles completes battles whose window has closed
func sweepBattles(ctx context.Context, battleService *service.BattleService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := battleService.CompleteExpired(ctx)
			if err != nil {
				log.Printf("Error completing expired battles: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Completed %d expired battles", n)
			}
		}
	}
}
