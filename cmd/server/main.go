package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"garden-server/internal/ai"
	"garden-server/internal/auth"
	"garden-server/internal/config"
	"garden-server/internal/database"
	"garden-server/internal/feed"
	"garden-server/internal/handler"
	"garden-server/internal/logger"
	"garden-server/internal/repository"
	"garden-server/internal/scenario"
	"garden-server/internal/service"
	"garden-server/internal/simulation"
	"garden-server/migrations"
)

func main() {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	zapLogger.Info("Starting garden server",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.Storage))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := setupStore(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to set up storage", zap.Error(err))
	}
	defer cleanup()

	cache := setupCache(cfg, zapLogger)

	gateway, err := ai.NewGateway(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create completion gateway", zap.Error(err))
	}

	catalog := scenario.Default()
	engine := simulation.NewEngine(catalog, store.Messages, store.Sessions, gateway, zapLogger)

	newsClient := feed.NewNewsClient(cfg.NewsAPIKey, cache)
	imageClient := feed.NewImageClient(cfg.PixabayAPIKey, cache)
	generator := feed.NewGenerator(store.Profiles, store.Posts, gateway, newsClient, imageClient, zapLogger)

	authSvc := auth.NewService(store.Parents, cfg.JWTSecret, cfg.JWTTTL, zapLogger)
	gardenSvc := service.NewGardenService(store, generator, zapLogger)
	simulationSvc := service.NewSimulationService(gardenSvc, store, catalog, engine, zapLogger)

	h := handler.New(authSvc, gardenSvc, simulationSvc, zapLogger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(handler.ZapLogger(zapLogger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowOrigins) == 1 && cfg.CORSAllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

// setupStore builds the repository bundle for the configured storage mode.
// The returned cleanup closes the database pool when one was opened.
func setupStore(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*repository.Store, func(), error) {
	if cfg.Storage == "memory" {
		zapLogger.Warn("Using in-memory storage, all data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, database.Settings{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	zapLogger.Info("Connected to PostgreSQL", zap.String("dsn", cfg.MaskedDSN()))

	migrator := database.NewMigrator(migrations.FS, ".", pool)
	if err := migrator.Up(); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if version, dirty, err := migrator.Version(); err == nil {
		zapLogger.Info("Database migrations applied",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))
	}

	store := &repository.Store{
		Parents:  repository.NewPgParentRepository(pool),
		Gardens:  repository.NewPgGardenRepository(pool),
		Children: repository.NewPgChildRepository(pool),
		Profiles: repository.NewPgProfileRepository(pool),
		Posts:    repository.NewPgPostRepository(pool),
		Messages: repository.NewPgMessageRepository(pool),
		Sessions: repository.NewPgSessionRepository(pool),
	}
	return store, pool.Close, nil
}

// setupCache connects to Redis when configured, otherwise lookups go
// uncached.
func setupCache(cfg *config.Config, zapLogger *zap.Logger) feed.Cache {
	if cfg.RedisAddr == "" {
		return feed.NewNoopCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, content lookups go uncached", zap.Error(err))
		return feed.NewNoopCache()
	}
	zapLogger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return feed.NewRedisCache(client)
}
