package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"webinarwins/internal/database"
	"webinarwins/internal/email"
	"webinarwins/internal/ingest"
	"webinarwins/internal/models"
	"webinarwins/internal/pipeline"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrInvalidRequest), errors.Is(err, ingest.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDeliveryUnavailable), errors.Is(err, email.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Server errors are logged and
// reported as action; client errors carry their own message.
func respondError(c echo.Context, logger zerolog.Logger, err error, resource, action string) error {
	status := statusFor(err)
	body := models.ErrorResponse{Error: err.Error()}
	switch status {
	case http.StatusNotFound:
		body.Error = resource + " not found"
	case http.StatusInternalServerError:
		logger.Error().Err(err).Str("path", c.Path()).Msg(action)
		body.Error = action
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}

// idParam reads a positive int64 path parameter
func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
