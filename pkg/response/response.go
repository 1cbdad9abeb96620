package response

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

// Envelope is the body of every JSON response: data on success, error on
// failure, plus optional pagination and per-request meta.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes data with an optional meta block. Empty meta is omitted.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	write(c, status, Envelope{Data: data, Meta: firstMeta(meta)})
}

// Paginated writes one page of a list.
func Paginated(c *gin.Context, data interface{}, page *models.Pagination) {
	write(c, http.StatusOK, Envelope{Data: data, Pagination: page})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error converts err into its HTTP status and error body. Server-side
// failures are attached to the gin context for the access log.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	write(c, appErr.Status, Envelope{Error: appErr})
}

// Attachment streams a downloadable booking export.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	noStore(c)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func write(c *gin.Context, status int, body Envelope) {
	noStore(c)
	c.JSON(status, body)
}

func firstMeta(meta []map[string]interface{}) map[string]interface{} {
	if len(meta) == 0 || len(meta[0]) == 0 {
		return nil
	}
	return meta[0]
}

// Responses carry tokens and personal booking data.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
