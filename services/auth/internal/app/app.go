package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authkit/pkg/cache"
	"authkit/pkg/config"
	"authkit/pkg/database"
	"authkit/pkg/jwt"
	"authkit/pkg/logger"
	"authkit/pkg/mailer"
	"authkit/pkg/middleware"
	"authkit/pkg/password"
	"authkit/pkg/queue"
	"authkit/pkg/s3"
	authHTTP "authkit/services/auth/internal/controller/http"
	identityCache "authkit/services/auth/internal/repo/cache"
	"authkit/services/auth/internal/repo/persistent"
	"authkit/services/auth/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "authkit/services/auth/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	hasher      *password.Hasher
	mailer      mailer.Mailer
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		// Redis only backs the identity cache
		log.Warn("Redis unavailable, identity cache disabled: %v", err)
		redisClient = nil
	}

	var s3Client *s3.Client
	if cfg.S3BucketName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Client, err = s3.NewClient(ctx, cfg)
		cancel()
		if err != nil {
			log.Error("Failed to create S3 client: %v", err)
			return nil, err
		}
	} else {
		log.Warn("S3_BUCKET_NAME not set, avatar upload disabled")
	}

	var queueClient *queue.Client
	var m mailer.Mailer
	switch cfg.MailTransport {
	case config.MailTransportQueue:
		queueClient, err = queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v", err)
			return nil, err
		}
		m = mailer.NewQueueMailer(queueClient)
	default:
		m = mailer.NewSMTPMailer(cfg, log)
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		queueClient: queueClient,
		jwtService:  jwt.NewService(cfg.JWTSecret),
		hasher:      password.NewHasher(cfg.BcryptCost, cfg.HashWorkers),
		mailer:      m,
	}, nil
}

func (a *App) Router() *gin.Engine {
	accountRepo := persistent.NewAccountRepository(a.db)
	tokenRepo := persistent.NewTokenRepository(a.db)

	var storage usecase.AvatarStorage
	if a.s3Client != nil {
		storage = a.s3Client
	}
	var cached usecase.IdentityCache
	if a.redisClient != nil {
		cached = identityCache.NewIdentityCache(a.redisClient, a.cfg.IdentityCacheTTL)
	}

	accountUseCase := usecase.NewAccountUseCase(accountRepo, tokenRepo, a.hasher, a.jwtService, storage, a.log)
	tokenUseCase := usecase.NewTokenUseCase(accountRepo, tokenRepo, a.hasher, a.mailer, usecase.MailSettings{
		ClientURL: a.cfg.ClientURL,
		Sender:    a.cfg.UserEmail,
		Timeout:   a.cfg.MailTimeout,
	}, a.log)
	resolver := usecase.NewIdentityResolver(accountRepo, cached, a.log)

	authHandler := authHTTP.NewAuthHandler(accountUseCase, tokenUseCase, authHTTP.CookieSettings{Secure: a.cfg.CookieSecure}, a.log)

	r := gin.Default()

	// Session cookies cross origins, so credentials must be allowed
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler.RegisterRoutes(r.Group("/api/v1"), middleware.AuthMiddleware(a.jwtService, resolver))

	return r
}

func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("Auth service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down auth service...")
}

func (a *App) Shutdown() error {
	// 5 seconds for in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			shutdownErr = err
		}
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	a.log.Info("Auth service exited")
	return shutdownErr
}
