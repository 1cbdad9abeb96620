package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/middleware"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
	"github.com/myrush/myrush-api/pkg/response"
)

// requireClaims writes a 401 and returns false when the request is unauthenticated.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindError(err error, message string) error {
	return appErrors.Invalid(err, message)
}

// clientOf returns the caller's address and user agent for audit trails.
func clientOf(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.Request.UserAgent()
}
