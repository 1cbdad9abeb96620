package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, []string{"Hyderabad"}, map[string]interface{}{})

	body := decode(t, rec)
	assert.JSONEq(t, `["Hyderabad"]`, string(body["data"]))
	assert.NotContains(t, body, "meta")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestPaginated(t *testing.T) {
	c, rec := newContext()
	Paginated(c, []int{1, 2}, &models.Pagination{Page: 1, PageSize: 2, TotalCount: 5})

	body := decode(t, rec)
	assert.JSONEq(t, `{"page":1,"page_size":2,"total_count":5}`, string(body["pagination"]))
}

func TestErrorStatusAndContextErrors(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.ErrSlotUnavailable)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, c.Errors)

	c, rec = newContext()
	Error(c, errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, c.Errors, 1)
	assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"internal server error","status":500}`, string(decode(t, rec)["error"]))
}

func TestAttachmentQuotesFilename(t *testing.T) {
	c, rec := newContext()
	Attachment(c, "my bookings.pdf", "application/pdf", []byte("%PDF"))

	assert.Equal(t, `attachment; filename="my bookings.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
