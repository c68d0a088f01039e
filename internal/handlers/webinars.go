package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"webinarwins/internal/models"
	"webinarwins/internal/pipeline"
	"webinarwins/internal/scoring"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WebinarService is the pipeline as seen by the HTTP layer
type WebinarService interface {
	Ingest(ctx context.Context, meta models.Webinar, attendanceCSV, chatCSV io.Reader) (*models.WebinarResponse, error)
	GetWebinar(ctx context.Context, id int64) (*models.WebinarResponse, error)
	ListAttendees(ctx context.Context, webinarID int64, tier string) ([]models.AttendeeResponse, error)
	GenerateBatch(ctx context.Context, req pipeline.BatchRequest) (*models.GenerateEmailsResponse, error)
	ListEmails(ctx context.Context, webinarID int64) ([]models.GeneratedEmailResponse, error)
	SendEmail(ctx context.Context, emailID int64) (*models.SendResponse, error)
	SendNoShows(ctx context.Context, webinarID int64) (*models.BulkSendResponse, error)
}

// UploadWebinarHandler ingests a webinar from its attendance and chat exports
// @Summary Upload a webinar
// @Description Parses the attendance and chat CSV exports, scores every attendee and stores the webinar
// @Tags webinars
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Webinar title"
// @Param topic formData string false "Webinar topic"
// @Param offer_name formData string false "Offer name"
// @Param offer_description formData string false "Offer description"
// @Param price formData number false "Offer price"
// @Param deadline formData string false "Offer deadline, free text"
// @Param replay_url formData string false "Replay URL"
// @Param attendance_csv formData file true "Attendance export"
// @Param chat_csv formData file false "Chat export"
// @Success 201 {object} models.WebinarResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/webinars [post]
func UploadWebinarHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		meta := models.Webinar{
			Title:            strings.TrimSpace(c.FormValue("title")),
			Topic:            strings.TrimSpace(c.FormValue("topic")),
			OfferName:        strings.TrimSpace(c.FormValue("offer_name")),
			OfferDescription: strings.TrimSpace(c.FormValue("offer_description")),
			Deadline:         strings.TrimSpace(c.FormValue("deadline")),
			ReplayURL:        strings.TrimSpace(c.FormValue("replay_url")),
		}
		if meta.Title == "" {
			return badRequest(c, "title is required")
		}
		if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil || price < 0 {
				return badRequest(c, "price must be a non-negative number")
			}
			meta.Price = &price
		}

		attendance, err := openUpload(c, "attendance_csv")
		if err != nil {
			return badRequest(c, "attendance_csv file is required")
		}
		defer func() { _ = attendance.Close() }()

		var chat io.Reader
		f, err := openUpload(c, "chat_csv")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// chat transcript is optional
		case err != nil:
			logger.Warn().Err(err).Msg("Failed to open chat upload")
			return badRequest(c, "chat_csv file could not be read")
		default:
			defer func() { _ = f.Close() }()
			chat = f
		}

		resp, err := svc.Ingest(c.Request().Context(), meta, attendance, chat)
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to ingest webinar")
		}

		return c.JSON(http.StatusCreated, resp)
	}
}

func openUpload(c echo.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return header.Open()
}

// GetWebinarHandler returns a webinar with its stats
// @Summary Get a webinar
// @Tags webinars
// @Produce json
// @Param id path int true "Webinar ID"
// @Success 200 {object} models.WebinarResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/webinars/{id} [get]
func GetWebinarHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid webinar ID")
		}

		resp, err := svc.GetWebinar(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to load webinar")
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// ListAttendeesHandler returns the attendees of a webinar, highest score first
// @Summary List attendees
// @Tags webinars
// @Produce json
// @Param id path int true "Webinar ID"
// @Param tier query string false "Tier filter, e.g. hot-lead or No-Show"
// @Success 200 {array} models.AttendeeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/webinars/{id}/attendees [get]
func ListAttendeesHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid webinar ID")
		}

		attendees, err := svc.ListAttendees(c.Request().Context(), id, c.QueryParam("tier"))
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to list attendees")
		}
		return c.JSON(http.StatusOK, attendees)
	}
}

// GenerateEmailsHandler generates follow-up emails for a webinar's attendees
// @Summary Generate follow-up emails
// @Description Generates one email per attendee. Individual failures are reported without failing the batch.
// @Tags emails
// @Produce json
// @Param id path int true "Webinar ID"
// @Param regenerate query bool false "Replace existing emails not edited by a user"
// @Param tier query string false "Only generate for this tier"
// @Success 200 {object} models.GenerateEmailsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/webinars/{id}/generate-emails [post]
func GenerateEmailsHandler(svc WebinarService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := idParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid webinar ID")
		}

		req := pipeline.BatchRequest{WebinarID: id}
		if raw := c.QueryParam("regenerate"); raw != "" {
			regenerate, err := strconv.ParseBool(raw)
			if err != nil {
				return badRequest(c, "regenerate must be true or false")
			}
			req.Regenerate = regenerate
		}
		if raw := c.QueryParam("tier"); raw != "" {
			tier, err := scoring.ParseTier(raw)
			if err != nil {
				return badRequest(c, err.Error())
			}
			req.Tier = &tier
		}

		resp, err := svc.GenerateBatch(c.Request().Context(), req)
		if err != nil {
			return respondError(c, logger, err, "Webinar", "Failed to generate emails")
		}
		return c.JSON(http.StatusOK, resp)
	}
}
