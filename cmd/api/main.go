package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/myrush/myrush-api/api/swagger"
	"github.com/myrush/myrush-api/internal/handler"
	internalmiddleware "github.com/myrush/myrush-api/internal/middleware"
	"github.com/myrush/myrush-api/internal/repository"
	"github.com/myrush/myrush-api/internal/service"
	"github.com/myrush/myrush-api/pkg/cache"
	"github.com/myrush/myrush-api/pkg/config"
	"github.com/myrush/myrush-api/pkg/database"
	"github.com/myrush/myrush-api/pkg/jobs"
	"github.com/myrush/myrush-api/pkg/logger"
	corsmiddleware "github.com/myrush/myrush-api/pkg/middleware/cors"
	reqidmiddleware "github.com/myrush/myrush-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title MyRush API
// @version 1.0.0
// @description Court discovery, slot availability and booking for MyRush players
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	dependencies := map[string]handler.Pinger{"postgres": db}
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr, repository.WithNamespace(cfg.Cache.Namespace))
		defer cacheRepo.Close() //nolint:errcheck
		dependencies["redis"] = handler.PingFunc(cacheRepo.Ping)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	} else {
		logr.Warn("redis disabled; read models will not be cached")
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	courtRepo := repository.NewCourtRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	couponRepo := repository.NewCouponRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})

	otpQueue := jobs.NewQueue(service.OTPDeliveryJobType,
		service.NewOTPDeliveryHandler(service.NewLogSMSSender(logr), metricsSvc, logr),
		jobs.QueueConfig{
			Workers:  cfg.OTP.Workers,
			OnGiveUp: service.OTPDeliveryAbandoned(metricsSvc),
			Logger:   logr,
		},
	)
	otpQueue.Start(ctx)

	otpSvc := service.NewOTPService(
		otpRepo,
		userRepo,
		profileRepo,
		authSvc,
		service.NewKeyedRateLimiter(cfg.OTP.RatePerMinute, cfg.OTP.Burst),
		otpQueue,
		metricsSvc,
		validate,
		logr,
		service.OTPConfig{
			DevMode: cfg.OTP.DevMode,
			DevCode: cfg.OTP.DevCode,
			Length:  cfg.OTP.Length,
			TTL:     cfg.OTP.TTL,
		},
	)
	if cfg.OTP.DevMode && cfg.IsProduction() {
		logr.Warn("OTP dev mode is enabled in production")
	}

	resolver := service.NewSlotResolver(bookingRepo, metricsSvc, logr)
	venueSvc := service.NewVenueService(courtRepo, cacheSvc, logr)
	profileSvc := service.NewProfileService(profileRepo, userRepo, catalogRepo, cacheSvc, validate, logr)
	availabilitySvc := service.NewAvailabilityService(courtRepo, resolver)
	bookingSvc := service.NewBookingService(bookingRepo, courtRepo, resolver, userRepo, venueSvc, metricsSvc, validate, logr, service.BookingConfig{
		DefaultPricePerHour: cfg.Booking.DefaultPricePerHour,
		DefaultPlayers:      cfg.Booking.DefaultPlayers,
	})
	couponSvc := service.NewCouponService(couponRepo, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready"))
	r.Use(corsmiddleware.New(cfg.CORS))
	metricsPath := ""
	if metricsSvc != nil {
		metricsPath = cfg.Metrics.Path
	}
	r.Use(internalmiddleware.Metrics(metricsSvc, metricsPath, "/health", "/ready"))
	r.Use(internalmiddleware.WithResponseMeta())

	handler.RegisterRoutes(r, handler.RouterConfig{
		APIPrefix:   cfg.APIPrefix,
		MetricsPath: metricsPath,
		Auth:        handler.NewAuthHandler(authSvc, otpSvc),
		Profile:     handler.NewProfileHandler(profileSvc),
		Venues:      handler.NewVenueHandler(venueSvc, availabilitySvc),
		Booking:     handler.NewBookingHandler(bookingSvc),
		Coupons:     handler.NewCouponHandler(couponSvc),
		Health:      handler.NewHealthHandler(metricsSvc, dependencies),
		Tokens:      authSvc,
		Audit:       userRepo,
		Logger:      logr,
	})

	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	if err := otpQueue.Stop(shutdownCtx); err != nil {
		logr.Warn("otp queue did not drain", zap.Error(err))
	}

	logr.Info("server stopped")
}
