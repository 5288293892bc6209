package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/controllers"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/services"
)

// historyCacheTTL bounds how stale a cached popup history can get when a
// change event is missed.
const historyCacheTTL = 30 * time.Second

func main() {
	log.Println("Starting service portal API...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLog := logger.New(cfg.LogFilePath, cfg.LogLevel, cfg.IsProduction())
	defer func() { _ = appLog.Sync() }()

	if err := config.ConnectDatabase(cfg.DatabaseURL, appLog.StdLog("gorm")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	appLog.Info("startup", "database migration completed", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local := services.NewLocalAttachmentService(cfg.UploadDir)
	var attachments services.AttachmentService = local
	if cfg.S3Configured() {
		s3, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		attachments = services.NewS3AttachmentService(s3)
		appLog.Info("startup", "attachments stored in S3", map[string]interface{}{"bucket": cfg.AWSS3Bucket})
	} else {
		appLog.Warn("startup", "S3 not configured, attachments stored on local disk", map[string]interface{}{"dir": cfg.UploadDir})
	}

	history, err := popupHistory(ctx, cfg, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize popup history: %v", err)
	}

	dispatcher := services.NewDispatcher(services.NewNotifier(cfg, appLog), cfg.MailTimeout, appLog)

	router := setupRouter(cfg, appLog, controllers.Dependencies{
		DB:            db,
		Log:           appLog,
		Auth:          services.NewAuthService(db, cfg, appLog),
		Dispatcher:    dispatcher,
		Attachments:   attachments,
		LocalFiles:    local,
		History:       history,
		Location:      cfg.Location(),
		StoreTimeout:  cfg.StoreTimeout,
		SecureCookies: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("startup", "server listening", map[string]interface{}{"port": cfg.Port, "env": cfg.GoEnv})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutdown", "shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown", "server shutdown failed", map[string]interface{}{"error": err})
	}
	dispatcher.Wait()
}

// popupHistory prefers Redis so every instance sees the same histories and
// falls back to process memory when Redis is not configured or unreachable.
func popupHistory(ctx context.Context, cfg *config.Config, appLog logger.Logger) (popup.HistoryStore, error) {
	var inner popup.HistoryStore = popup.NewMemoryStore()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			appLog.Warn("startup", "redis unreachable, popup history kept in memory", map[string]interface{}{"error": err})
			_ = client.Close()
		} else {
			inner = popup.NewRedisStore(client)
			appLog.Info("startup", "popup history stored in redis", nil)
		}
	}

	return popup.NewCachedStore(ctx, inner, historyCacheTTL)
}

// setupRouter builds the engine with middleware, health endpoints and every
// controller mounted under /api/v1.
func setupRouter(cfg *config.Config, appLog logger.Logger, deps controllers.Dependencies) *gin.Engine {
	router := gin.New()
	// ClientIP feeds the login throttle, so forwarded headers only count from known proxies.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		appLog.Error("startup", "invalid TRUSTED_PROXIES, trusting no proxy", map[string]interface{}{"error": err})
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.Recovery(appLog))
	router.Use(middleware.RequestLogger(appLog))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}
	controllers.Mount(v1, deps)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service portal API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database not initialized",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
