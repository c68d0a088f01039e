package handlers

import (
	"context"
	"fmt"
	"net/http"

	"webinarwins/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AnalyticsService provides usage summaries
type AnalyticsService interface {
	GetSummary(ctx context.Context, period string) (*models.AnalyticsSummary, error)
	GetDailyReport(ctx context.Context) (*models.AnalyticsSummary, error)
}

// AnalyticsHandler returns analytics summary for a given period
// @Summary Get analytics summary
// @Description Get analytics summary for a specified time period (today, yesterday, last_7_days, last_30_days)
// @Tags analytics
// @Accept json
// @Produce json
// @Param period query string false "Time period (today, yesterday, last_7_days, last_30_days)" default(yesterday)
// @Success 200 {object} models.AnalyticsResponse
// @Failure 500 {object} models.AnalyticsResponse
// @Router /api/analytics [get]
func AnalyticsHandler(analyticsService AnalyticsService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		period := c.QueryParam("period")
		if period == "" {
			period = "yesterday"
		}

		summary, err := analyticsService.GetSummary(c.Request().Context(), period)
		if err != nil {
			logger.Error().Err(err).Str("period", period).Msg("Failed to get analytics summary")
			return c.JSON(http.StatusInternalServerError, models.AnalyticsResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to get analytics summary: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.AnalyticsResponse{
			Success: true,
			Summary: summary,
		})
	}
}

// DailyReportHandler returns the analytics report of the previous day
// @Summary Get daily analytics report
// @Tags analytics
// @Accept json
// @Produce json
// @Success 200 {object} models.AnalyticsResponse
// @Failure 500 {object} models.AnalyticsResponse
// @Router /api/analytics/daily-report [get]
func DailyReportHandler(analyticsService AnalyticsService, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := analyticsService.GetDailyReport(c.Request().Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to generate daily report")
			return c.JSON(http.StatusInternalServerError, models.AnalyticsResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to generate daily report: %v", err),
			})
		}

		logger.Info().
			Int("webinars", summary.WebinarsIngested).
			Int("emails_generated", summary.EmailsGenerated).
			Int("openai_calls", summary.OpenAICalls).
			Int("tokens", summary.OpenAITokensUsed).
			Msg("Daily report generated")

		return c.JSON(http.StatusOK, models.AnalyticsResponse{
			Success: true,
			Summary: summary,
		})
	}
}
