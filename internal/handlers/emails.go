package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ListEmailsHandler returns the generated emails of a webinar
// @Summary List generated emails
// @Tags emails
// @Produce json
// @Param id path int true "Webinar ID"
// @Success 200 {array} models.GeneratedEmailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/webinars/{id}/emails [get]
func ListEmailsHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid webinar ID")
		}

		emails, err := svc.ListEmails(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to list emails")
		}
		return c.JSON(http.StatusOK, emails)
	}
}

// SendEmailHandler sends one generated email
// @Summary Send a generated email
// @Tags emails
// @Produce json
// @Param id path int true "Email ID"
// @Success 200 {object} models.SendResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.SendResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/emails/{id}/send [post]
func SendEmailHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid email ID")
		}

		resp, err := svc.SendEmail(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, "Email", "Failed to send email")
		}
		if !resp.Success {
			return c.JSON(http.StatusBadGateway, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// SendNoShowsHandler sends every unsent No-Show email of a webinar
// @Summary Send No-Show emails
// @Tags emails
// @Produce json
// @Param id path int true "Webinar ID"
// @Success 200 {object} models.BulkSendResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/webinars/{id}/send-no-shows [post]
func SendNoShowsHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid webinar ID")
		}

		resp, err := svc.SendNoShows(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to send no-show emails")
		}
		return c.JSON(http.StatusOK, resp)
	}
}
