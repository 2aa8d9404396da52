package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/james-see/fractune/internal/logger"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/james-see/fractune/pkg/store"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string   `json:"error"`
	Field     string   `json:"field,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Allowed   []string `json:"allowed,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// respondError maps engine and store errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   verr.Error(),
			Field:   verr.Field,
			Kind:    verr.Kind.String(),
			Allowed: verr.Allowed,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		fields := logger.WithContext(c)
		var ierr *engine.InternalError
		if errors.As(err, &ierr) {
			fields["stage"] = ierr.Stage
		}
		logger.Error("Request failed", err, fields)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "Internal server error",
			RequestID: c.GetString("request_id"),
		})
	}
}
