package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"talentgate/interview/internal/config"
	"talentgate/interview/internal/handlers"
	"talentgate/interview/internal/interview"
	"talentgate/interview/internal/jobs"
	"talentgate/interview/internal/llm"
	_ "talentgate/interview/internal/llm/gemini"
	"talentgate/interview/internal/metrics"
	"talentgate/interview/internal/models"
	"talentgate/interview/internal/prompts"
	"talentgate/interview/internal/repositories"
	"talentgate/interview/internal/routers"
	"talentgate/interview/internal/session"
	"talentgate/interview/internal/voice"
)

func registerRoutes(router *chi.Mux, interviewHandler *handlers.InterviewHandler, healthHandler *handlers.HealthHandler) {
	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, interviewHandler)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase() (*gorm.DB, error) {
	host := getEnv("POSTGRES_HOST", "localhost")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "postgres")
	dbname := getEnv("POSTGRES_DB", "postgres")
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Application{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func newSessionStore(cfg *config.Config, logger *zap.Logger) session.Store {
	if cfg.SessionBackend == config.BackendRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("Using redis session store",
			zap.String("addr", cfg.RedisAddr),
			zap.Duration("ttl", cfg.SessionTTL))
		return session.NewRedisStore(rdb, cfg.SessionTTL)
	}
	return session.NewMemoryStore()
}

func newSpeaker(cfg *config.Config, logger *zap.Logger) voice.Speaker {
	if cfg.TTSEndpoint == "" {
		return voice.NopSpeaker{}
	}
	logger.Info("Voice synthesis enabled", zap.String("endpoint", cfg.TTSEndpoint))
	return voice.NewHTTPSpeaker(cfg.TTSEndpoint, cfg.TTSTimeout)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.Int("question_count", cfg.QuestionCount),
		zap.Float64("passing_score", cfg.PassingScore))

	// prompt manager
	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	// oracle provider based on configuration
	oracleProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize oracle provider", zap.Error(err))
	}

	store := newSessionStore(cfg, logger)
	speaker := newSpeaker(cfg, logger)

	// Database is optional: without it results are not persisted durably and
	// the in-memory verdict is the only record.
	var sink interview.ResultSink
	var retryQueue *jobs.ResultQueue
	var retryJob *jobs.ResultRetryJob

	db, err := initDatabase()
	if err != nil {
		logger.Error("Failed to initialize database, interview results will not be persisted", zap.Error(err))
	} else {
		repo := repositories.NewApplicationRepository(db)
		sink = repo

		retryQueue = jobs.NewResultQueue()
		retryJob = jobs.NewResultRetryJob(retryQueue, repo, &jobs.RetryConfig{
			Schedule:    cfg.ResultRetrySchedule,
			Enabled:     cfg.ResultRetryEnabled,
			MaxAttempts: cfg.ResultRetryMaxAttempts,
		}, logger)
		if err := retryJob.Start(); err != nil {
			logger.Error("Failed to start result retry job", zap.Error(err))
		}
	}

	engine := interview.NewEngine(oracleProvider, promptManager, store, speaker, sink, retryQueue, interview.Config{
		QuestionCount: cfg.QuestionCount,
		PassingScore:  cfg.PassingScore,
	}, logger)

	interviewHandler := handlers.NewInterviewHandler(engine, logger)
	healthHandler := handlers.NewHealthHandler(oracleProvider, promptManager, cfg)

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(120*time.Second))
	router.Use(metrics.Middleware("interview"))

	registerRoutes(router, interviewHandler, healthHandler)

	serverAddr := ":" + cfg.Port

	// http server with timeouts; write timeout is generous because every
	// answer evaluation waits on an oracle round trip
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	if retryJob != nil {
		retryJob.Stop()
	}

	// graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
