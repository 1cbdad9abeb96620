package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrush/myrush-api/internal/models"
	"github.com/myrush/myrush-api/internal/service"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	got    string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.got = token
	return s.claims, s.err
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := newRouter()
	r.GET("/me", JWT(&stubValidator{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer   "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Equal(t, `Bearer realm="myrush"`, w.Header().Get("WWW-Authenticate"), header)
	}
}

func TestJWTInvalidToken(t *testing.T) {
	r := newRouter()
	validator := &stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	r.GET("/me", JWT(validator), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer expired")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "expired", validator.got)
}

func TestJWTStoresClaims(t *testing.T) {
	r := newRouter()
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1"}}
	var got *models.JWTClaims
	r.GET("/me", JWT(validator), func(c *gin.Context) {
		got = Claims(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "good-token", validator.got)
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	repo := &recordingAudit{err: errors.New("ignored")}
	r := newRouter()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1"})
		c.Next()
	})
	r.GET("/ok", Audit(repo, nil, models.AuditActionBookingExport, "booking"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", Audit(repo, nil, models.AuditActionBookingExport, "booking"), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, path := range []string{"/ok?format=pdf", "/fail"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, repo.logs, 1)
	entry := repo.logs[0]
	assert.Equal(t, models.AuditActionBookingExport, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.NewValues, &body))
	assert.Equal(t, "/ok", body["route"])
	assert.Equal(t, "format=pdf", body["query"])
	assert.Nil(t, entry.ResourceID)
}

func TestAuditAnonymousRequestHasNoUser(t *testing.T) {
	repo := &recordingAudit{}
	r := newRouter()
	r.GET("/courts/:id", Audit(repo, nil, "VIEW", "court"), func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/courts/c1", nil))

	require.Len(t, repo.logs, 1)
	assert.Nil(t, repo.logs[0].UserID)
	require.NotNil(t, repo.logs[0].ResourceID)
	assert.Equal(t, "c1", *repo.logs[0].ResourceID)
}

func TestResponseMeta(t *testing.T) {
	r := newRouter()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/x", func(c *gin.Context) {
		SetMeta(c, "slot_count", 3)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 3, meta["slot_count"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestMetricsLabelsRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/courts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/courts/a", "/courts/b", "/nowhere", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// one series for the matched route, one for the unmatched path, none for the scrape
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.Registry(), "myrush_http_requests_total"))
}
