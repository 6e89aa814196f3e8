package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/holister/holister-api/internal/config"
	"github.com/holister/holister-api/internal/handler"
	"github.com/holister/holister-api/internal/middleware"
	"github.com/holister/holister-api/internal/repository"
	"github.com/holister/holister-api/internal/service"
	"github.com/holister/holister-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	bannerRepo := repository.NewBannerRepository(dbPool)
	settingsRepo := repository.NewSettingsRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, amqpCh, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(productRepo, redisClient, cfg.Redis.CacheTTL)
	cartSvc := service.NewCartService(cartRepo, productRepo, couponRepo)
	couponSvc := service.NewCouponService(couponRepo, cartRepo)
	checkoutSvc := service.NewCheckoutService(orderRepo, cartRepo, productRepo, couponRepo, amqpCh)
	orderSvc := service.NewOrderService(orderRepo)
	bannerSvc := service.NewBannerService(bannerRepo)
	settingsSvc := service.NewSettingsService(settingsRepo, redisClient)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	couponH := handler.NewCouponHandler(couponSvc, cartSvc)
	orderH := handler.NewOrderHandler(checkoutSvc, orderSvc)
	bannerH := handler.NewBannerHandler(bannerSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	mailer := &worker.LogMailer{Log: log}
	notificationWorker := worker.NewNotificationWorker(amqpCh, orderRepo, mailer, redisClient, log)

	// Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret)
	adminOnly := middleware.AdminOnly()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/password-reset", authH.RequestPasswordReset)
		auth.POST("/password-reset/confirm", authH.ConfirmPasswordReset)
		auth.GET("/profile", authRequired, authH.Profile)
		auth.PUT("/profile", authRequired, authH.UpdateProfile)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.Get)

		productsAdmin := products.Group("", authRequired, adminOnly)
		productsAdmin.POST("", productH.Create)
		productsAdmin.PUT("/:id", productH.Update)
		productsAdmin.DELETE("/:id", productH.Delete)
		productsAdmin.POST("/:id/variants", productH.AddVariant)
		productsAdmin.DELETE("/:id/variants/:variantId", productH.DeleteVariant)
		productsAdmin.POST("/:id/variants/:variantId/sizes", productH.AddSize)
		productsAdmin.PUT("/:id/sizes/:sizeId", productH.UpdateSize)
		productsAdmin.DELETE("/:id/sizes/:sizeId", productH.DeleteSize)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.Get)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:itemId", cartH.UpdateItem)
		cart.DELETE("/items/:itemId", cartH.RemoveItem)
		cart.DELETE("", cartH.Clear)
		cart.POST("/coupon", couponH.Apply)
		cart.DELETE("/coupon", couponH.Remove)

		coupons := v1.Group("/coupons", authRequired)
		coupons.POST("/validate", couponH.Validate)

		couponsAdmin := coupons.Group("", adminOnly)
		couponsAdmin.POST("", couponH.Create)
		couponsAdmin.GET("", couponH.List)
		couponsAdmin.GET("/:id", couponH.Get)
		couponsAdmin.PUT("/:id", couponH.Update)
		couponsAdmin.DELETE("/:id", couponH.Delete)
		couponsAdmin.GET("/:id/usage", couponH.UsageStats)

		orders := v1.Group("/orders", authRequired)
		orders.POST("/checkout", orderH.Checkout)
		orders.GET("", orderH.List)
		orders.GET("/stats", orderH.CustomerStats)
		orders.GET("/:id", orderH.Get)

		addresses := v1.Group("/shipping-addresses", authRequired)
		addresses.POST("", orderH.CreateAddress)
		addresses.GET("", orderH.ListAddresses)
		addresses.PUT("/:id", orderH.UpdateAddress)
		addresses.DELETE("/:id", orderH.DeleteAddress)

		ordersAdmin := v1.Group("/admin/orders", authRequired, adminOnly)
		ordersAdmin.GET("", orderH.ListAll)
		ordersAdmin.GET("/stats", orderH.Stats)
		ordersAdmin.GET("/recent", orderH.Recent)
		ordersAdmin.PATCH("/:id/status", orderH.UpdateStatus)

		banners := v1.Group("/banners")
		banners.GET("", bannerH.List)

		bannersAdmin := banners.Group("", authRequired, adminOnly)
		bannersAdmin.POST("", bannerH.Create)
		bannersAdmin.PUT("/:id", bannerH.Update)
		bannersAdmin.DELETE("/:id", bannerH.Delete)

		settings := v1.Group("/settings")
		settings.GET("", settingsH.Get)
		settings.PUT("", authRequired, adminOnly, settingsH.Update)
	}

	if err := notificationWorker.Start(ctx); err != nil {
		log.Error("start notification worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notificationWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
