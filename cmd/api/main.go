// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hodlmatch/hodlmatch-backend/internal/auth"
	"github.com/hodlmatch/hodlmatch-backend/internal/blocklist"
	"github.com/hodlmatch/hodlmatch-backend/internal/common/database"
	"github.com/hodlmatch/hodlmatch-backend/internal/config"
	"github.com/hodlmatch/hodlmatch-backend/internal/matching"
	"github.com/hodlmatch/hodlmatch-backend/internal/profile"
)

var startTime = time.Now()

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting HodlMatch Compatibility API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load and validate configuration
	log.Println("📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration loaded and valid")

	// 3. Connect to PostgreSQL
	log.Println("🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 4. Connect to Redis
	log.Println("📮 Step 4: Connecting to Redis...")
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	log.Println("✅ Connected to Redis successfully")

	// 5. Run database migrations
	log.Println("🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations:", err)
	}
	log.Println("✅ Database migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Initialize core modules
	log.Println("🧩 Step 6: Initializing modules...")

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	profileStore := profile.NewPostgresStore(db)
	profileNotifier := profile.NewNotifier(redisClient)

	blocklistService := blocklist.NewPostgresService(db)
	blocklistHandler := blocklist.NewHandler(blocklistService)

	pipeline := matching.NewPipeline(profileStore, blocklistService, matching.PipelineConfig{
		CandidateLimit: cfg.CandidateFetchLimit,
		MinScore:       cfg.MinCompatibilityScore,
		MinAge:         cfg.MinAge,
	})

	matchRepo := matching.NewPostgresRepository(db)
	generationLock := matching.NewRedisLock(redisClient)
	cursorStore := matching.NewRedisCursorStore(redisClient, cfg.CursorTTL)

	hub := matching.NewHub()
	go hub.Run()

	matchingService := matching.NewService(matchRepo, pipeline, profileStore, generationLock, cursorStore, hub, matching.BatchConfig{
		Size:     cfg.DailyBatchSize,
		TTL:      cfg.BatchTTL,
		MinScore: cfg.MinCompatibilityScore,
	})
	matchingHandler := matching.NewHandler(matchingService)

	log.Println("✅ Modules initialized")

	// 7. Start background workers
	log.Println("⚙️  Step 7: Starting background workers...")

	listener := matching.NewListener(matchingService, hub, cfg.DebounceWindow)
	go listener.Run(ctx, profileNotifier.Subscribe(ctx))
	log.Println("   ✅ Profile change listener started")

	go startExpirySweeper(ctx, matchingService, cfg.CleanupInterval)
	log.Println("   ✅ Expired match sweeper started")

	// 8. Setup routes
	log.Println("🛣️  Step 8: Setting up routes...")
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	blocklist.RegisterRoutes(router, blocklistHandler, authMiddleware)
	matching.RegisterRoutes(router, matchingHandler, hub, authMiddleware)

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	log.Println("✅ Routes registered")

	// 9. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("========================================")
		log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("⚠️  Shutdown signal received...")

	cancel()
	hub.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

// startExpirySweeper periodically purges expired daily matches
func startExpirySweeper(ctx context.Context, service matching.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, sweepCancel := context.WithTimeout(ctx, 5*time.Minute)
			if err := service.CleanupExpiredMatches(sweepCtx); err != nil {
				log.Printf("Failed to cleanup expired matches: %v", err)
			}
			sweepCancel()
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Middleware functions

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log.Printf("%s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware handles CORS
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

// runMigrations executes database migrations
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id BIGSERIAL PRIMARY KEY,
			display_name VARCHAR(100) NOT NULL DEFAULT '',
			age INTEGER,
			bio TEXT,
			location VARCHAR(255),
			looking_for TEXT,
			gender_identity VARCHAR(50),
			orientation VARCHAR(50),
			relationship_type VARCHAR(50),
			favorite_asset VARCHAR(50),
			experience_tier VARCHAR(50),
			portfolio_tier VARCHAR(50),
			trading_style VARCHAR(50),
			interests TEXT[] NOT NULL DEFAULT '{}',
			genders_sought TEXT[] NOT NULL DEFAULT '{}',
			is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS user_blocks (
			blocker_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			blocked_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			reason TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (blocker_id, blocked_id)
		)`,

		`CREATE TABLE IF NOT EXISTS daily_matches (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			matched_user_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			compatibility_score DOUBLE PRECISION NOT NULL,
			breakdown JSONB NOT NULL DEFAULT '{}',
			batch_date VARCHAR(10) NOT NULL,
			generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			liked BOOLEAN,
			CONSTRAINT unique_daily_match UNIQUE (user_id, batch_date, matched_user_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_profiles_complete ON profiles(is_profile_complete)`,
		`CREATE INDEX IF NOT EXISTS idx_user_blocks_blocked ON user_blocks(blocked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_matches_user_expires ON daily_matches(user_id, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_matches_expires ON daily_matches(expires_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
