package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lxrose/internal/forms"
	"lxrose/internal/models"
)

const storeTimeout = 5 * time.Second

func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		slog.Error("panic recovered", "route", route, "panic", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	slog.Info("returning error", "route", route, "status", status, "message", message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondStoreError maps a store or auth error to its HTTP status.
func respondStoreError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "not found")
	case errors.Is(err, models.ErrInvalidTransition):
		respondWithError(c, http.StatusConflict, route, "invalid status transition")
	case errors.Is(err, models.ErrDuplicate):
		respondWithError(c, http.StatusConflict, route, "already exists")
	case errors.Is(err, models.ErrInvalidCredentials):
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("store timeout", "route", route, "error", err)
		respondWithError(c, http.StatusServiceUnavailable, route, "database timeout")
	default:
		slog.Error("store error", "route", route, "error", err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

// respondValidationError reports every invalid field. Errors that are not
// field validation failures are treated as a malformed body.
func respondValidationError(c *gin.Context, err error) {
	var validationErr *forms.ValidationError
	if errors.As(err, &validationErr) {
		details := make([]string, 0, len(validationErr.Fields))
		fields := make(map[string]string, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			details = append(details, f.Reason)
			fields[f.Field] = f.Reason
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
			"fields":  fields,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

// bindAndValidate decodes the JSON body into req and checks its tags.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidationError(c, err)
		return false
	}
	return checkRequest(c, req)
}

// checkRequest validates an already decoded request.
func checkRequest(c *gin.Context, req any) bool {
	if err := forms.ValidateStruct(req); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}
