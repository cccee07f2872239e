package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kediacrm/internal/authz"
	"kediacrm/internal/logger"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
	"kediacrm/internal/repositories"
	"kediacrm/internal/services"
)

// getActor reads the caller set by AuthMiddleware.
func getActor(c *gin.Context) models.Actor {
	a := models.Actor{
		ID:   c.GetString(middleware.CtxUserID),
		Name: c.GetString(middleware.CtxUserName),
	}
	if v, ok := c.Get(middleware.CtxRole); ok {
		a.Role, _ = v.(models.Role)
	}
	return a
}

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, authz.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidAssignee):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err under tag and writes {"error": ...}. Internal errors are not echoed.
func respondError(c *gin.Context, tag string, err error) {
	code := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.CtxRequestID)),
		zap.Int("status", code),
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.Error(tag, err, fields...)
		msg = "internal server error"
	} else {
		logger.Warn(tag, append(fields, zap.Error(err))...)
	}
	_ = c.Error(err)
	c.JSON(code, middleware.ErrorBody(msg))
}

func badRequest(c *gin.Context, tag string, err error) {
	logger.Warn(tag+"[bind]", zap.String("request_id", c.GetString(middleware.CtxRequestID)), zap.Error(err))
	c.JSON(http.StatusBadRequest, middleware.ErrorBody(err.Error()))
}

// parseDate accepts RFC3339 or the plain yyyy-mm-dd sent by date inputs.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q (RFC3339 or YYYY-MM-DD): %w", field, s, services.ErrValidation)
	}
	return &t, nil
}
