package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/middleware"
	"github.com/myrush/myrush-api/internal/models"
)

// RouterConfig collects the handlers and guards mounted by RegisterRoutes.
// Nil handlers leave their route group unmounted.
type RouterConfig struct {
	APIPrefix   string
	MetricsPath string

	Auth    *AuthHandler
	Profile *ProfileHandler
	Venues  *VenueHandler
	Booking *BookingHandler
	Coupons *CouponHandler
	Health  *HealthHandler

	Tokens middleware.TokenValidator
	Audit  middleware.AuditRecorder
	Logger *zap.Logger
}

// RegisterRoutes mounts the public API on r.
func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	if cfg.Health != nil {
		r.GET("/health", cfg.Health.Health)
		r.GET("/ready", cfg.Health.Ready)
		if cfg.MetricsPath != "" {
			r.GET(cfg.MetricsPath, cfg.Health.Prometheus)
		}
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	secured := middleware.JWT(cfg.Tokens)

	if cfg.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/send-otp", cfg.Auth.SendOTP)
		auth.POST("/verify-otp", cfg.Auth.VerifyOTP)
		auth.POST("/register", cfg.Auth.Register)
		auth.POST("/login", cfg.Auth.Login)
		auth.POST("/refresh", cfg.Auth.Refresh)
		auth.POST("/logout", secured, cfg.Auth.Logout)
		auth.GET("/profile", secured, cfg.Auth.Me)
	}

	if cfg.Profile != nil {
		profile := api.Group("/profile")
		profile.GET("/cities", cfg.Profile.Cities)
		profile.GET("/game-types", cfg.Profile.GameTypes)
		profile.GET("", secured, cfg.Profile.Get)
		profile.POST("", secured, cfg.Profile.Upsert)
	}

	if cfg.Venues != nil {
		api.GET("/venues", cfg.Venues.ListVenues)
		api.GET("/venues/:id", cfg.Venues.GetVenue)
		api.GET("/courts", cfg.Venues.ListCourts)
		api.GET("/courts/:id", cfg.Venues.GetCourt)
		api.GET("/courts/:id/available-slots", cfg.Venues.AvailableSlots)
	}

	if cfg.Booking != nil {
		bookings := api.Group("/bookings", secured)
		bookings.POST("", cfg.Booking.Create)
		bookings.GET("", cfg.Booking.List)
		exportChain := []gin.HandlerFunc{}
		if cfg.Audit != nil {
			exportChain = append(exportChain, middleware.Audit(cfg.Audit, cfg.Logger, models.AuditActionBookingExport, models.AuditResourceBookings))
		}
		exportChain = append(exportChain, cfg.Booking.Export)
		bookings.GET("/export", exportChain...)
	}

	if cfg.Coupons != nil {
		coupons := api.Group("/coupons")
		coupons.POST("/validate", cfg.Coupons.Validate)
		coupons.GET("/available", cfg.Coupons.Available)
	}
}
