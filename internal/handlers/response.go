package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsync-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFailure maps an error from a collaborator client onto the response.
// Errors that carry a status keep it; anything else is a 502 because the
// failure happened talking to an upstream, not in this process.
func RespondFailure(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		RespondError(c, apiErr.Status, apiErr.Code, err)
		return
	}
	RespondError(c, http.StatusBadGateway, "upstream_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
