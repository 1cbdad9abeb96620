package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
	"github.com/myrush/myrush-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator parses access tokens into claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT admits requests bearing a valid access token and stores its claims
// under ContextUserKey. Rejections carry a WWW-Authenticate challenge.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *models.JWTClaims
			if claims, err = validator.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
				c.Next()
				return
			}
		}

		c.Header("WWW-Authenticate", `Bearer realm="myrush"`)
		response.Error(c, err)
		c.Abort()
	}
}

// Claims returns the claims stored by JWT, or nil on public routes.
func Claims(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.JWTClaims)
	return claims
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}
