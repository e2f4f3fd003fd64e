package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "docflow/api/swagger" // swagger docs
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/handler"
	"docflow/internal/logger"
	"docflow/internal/middleware"
	"docflow/internal/repository"
	"docflow/internal/service"
	"docflow/internal/websocket"
)

// @title           Docflow API
// @version         1.0
// @description     Document lifecycle engine: numbering, pricing, conversion and approvals.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetJWTSecret(cfg.JWT.Secret)

	db, err := database.NewConnection(cfg.Database, cfg.Log.Level, zapLog)
	if err != nil {
		zapLog.Fatal("database connection failed", zap.Error(err))
	}
	zapLog.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wsHub := websocket.NewHub(zapLog)
	go wsHub.Run(ctx)

	documentRepo := repository.NewDocumentRepository(db)
	sequences, closeRedis := newSequenceRepository(ctx, cfg, db, documentRepo, zapLog)
	defer closeRedis()

	deps := service.Dependencies{
		Documents:           documentRepo,
		Customers:           repository.NewCustomerRepository(db),
		Users:               repository.NewUserRepository(db),
		Audit:               repository.NewAuditRepository(db),
		TxManager:           repository.NewTransactionManager(db),
		Numbers:             service.NewNumberAllocator(sequences),
		Policy:              service.DefaultAuthorityPolicy(),
		Events:              wsHub,
		Logger:              zapLog,
		NumberRetryAttempts: cfg.Documents.NumberRetryAttempts,
		MaxChainLength:      cfg.Documents.MaxChainLength,
	}

	documentHandler := handler.NewDocumentHandler(service.NewDocumentService(deps), service.NewConversionService(deps))
	approvalHandler := handler.NewApprovalHandler(service.NewApprovalService(deps))
	auditHandler := handler.NewAuditHandler(service.NewAuditService(deps.Audit))
	statisticsHandler := handler.NewStatisticsHandler(service.NewStatisticsService(repository.NewStatisticsRepository(db)))

	router := gin.New()
	router.Use(logger.RequestID(), logger.GinMiddleware(zapLog), logger.Recovery(zapLog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c)
	})

	api := router.Group("")
	documentHandler.RegisterRoutes(api)
	approvalHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		zapLog.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newSequenceRepository picks the numbering backend. Redis falls back to the
// database counter when it is unreachable at startup.
func newSequenceRepository(ctx context.Context, cfg *config.Config, db *gorm.DB, counter repository.DocumentCounter, log *zap.Logger) (repository.SequenceRepository, func()) {
	noop := func() {}
	if cfg.Documents.NumberingBackend != config.NumberingRedis {
		return repository.NewSequenceRepository(db), noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, numbering from the database", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		_ = client.Close()
		return repository.NewSequenceRepository(db), noop
	}

	log.Info("numbering from redis", zap.String("addr", cfg.Redis.Addr()))
	return repository.NewRedisSequenceRepository(client, counter), func() { _ = client.Close() }
}
