package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"linkcycle/internal/config"
	"linkcycle/internal/handler"
	"linkcycle/internal/middleware"
	"linkcycle/internal/model"
	"linkcycle/internal/service"
	"linkcycle/internal/shortcode"
	"linkcycle/internal/store"
	"linkcycle/pkg/clock"
	"linkcycle/pkg/database"
	auth "linkcycle/pkg/jwt"
	"linkcycle/pkg/logger"
	"linkcycle/pkg/redis"

	_ "linkcycle/docs"

	"github.com/gin-gonic/gin"
	redisClient "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title linkcycle API
// @version 1.0
// @description URL shortener with code reclamation.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	logger.Init()
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("log sync failed:", err)
		}
	}()
	log := zap.S()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := database.InitMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("initializing database: %v", err)
	}
	log.Info("database ready")

	var rdb *redisClient.Client
	if cfg.Cache.Host != "" {
		rdb, err = redis.NewClient(&cfg.Cache)
		if err != nil {
			log.Warnf("cache unavailable, continuing without it: %v", err)
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Errorf("closing redis: %v", err)
				}
			}()
			log.Info("cache ready")
		}
	}

	linkStore := store.New(db, clock.Real{})

	generator := shortcode.NewGenerator(cfg.Shortener.Alphabet, cfg.Shortener.CodeLength, linkStore, log)
	generator.Start()
	defer generator.Stop()
	log.Info("code generator started")

	linkService := service.NewLinkService(linkStore, generator, rdb, &cfg.Shortener, log)

	sweeper := service.NewSweeper(linkService, cfg.Shortener.SweepInterval(), log)
	sweeper.Start()
	defer sweeper.Stop()
	log.Infof("sweeper started, interval %s, threshold %d days",
		cfg.Shortener.SweepInterval(), cfg.Shortener.InactivityDays)

	tokenManager := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.ExpirationHours)

	if err := createAdminUser(db); err != nil {
		log.Errorf("creating admin user: %v", err)
	}

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.RateLimit(&cfg.RateLimit))

	router.LoadHTMLGlob("web/templates/*")
	router.Static("/static", "./web/static")

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	linkHandler := handler.NewLinkHandler(linkService, &cfg.Shortener, log)
	authHandler := handler.NewAuthHandler(db, tokenManager)

	registerRoutes(router, linkHandler, authHandler,
		middleware.AuthMiddleware(tokenManager), middleware.AdminMiddleware())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.Infof("listening on http://localhost:%d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func registerRoutes(
	router *gin.Engine,
	linkHandler *handler.LinkHandler,
	authHandler *handler.AuthHandler,
	authMiddleware, adminMiddleware gin.HandlerFunc,
) {
	router.GET("/", linkHandler.IndexPage)
	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/:code", linkHandler.Redirect)
	router.POST("/api/shorten", linkHandler.CreateShortLink)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	api := router.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/me", authHandler.GetCurrentUser)
		api.GET("/links", linkHandler.GetAllLinks)
		api.GET("/stats", linkHandler.GetStats)
	}

	admin := api.Group("")
	admin.Use(adminMiddleware)
	{
		admin.PUT("/links/:code/never-expires", linkHandler.SetNeverExpires)
		admin.PUT("/links/:code/monetize", linkHandler.SetMonetize)
		admin.DELETE("/links/:code", linkHandler.DeleteLink)
		admin.POST("/sweep", linkHandler.RunSweep)
	}
}

func createAdminUser(db *gorm.DB) error {
	var existing model.User
	if err := db.Where("username = ?", "admin").First(&existing).Error; err == nil {
		return nil
	}

	admin := model.User{Username: "admin", Email: "admin@linkcycle.local", Role: "admin", IsActive: true}
	if err := admin.SetPassword("admin"); err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	zap.S().Infow("default admin user created", "username", "admin")
	return nil
}
