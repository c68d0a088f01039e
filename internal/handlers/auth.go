package handlers

import (
	"net/http"

	"webinarwins/internal/auth"
	"webinarwins/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LoginHandler exchanges operator credentials for a bearer token
// @Summary Operator login
// @Description Authenticate and receive a token for uploading, generating and sending
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.LoginResponse
// @Failure 401 {object} models.LoginResponse
// @Router /api/auth/login [post]
func LoginHandler(authManager *auth.Manager, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.LoginResponse{
				Success: false,
				Error:   "Invalid request format",
			})
		}

		token, err := authManager.Authenticate(req.Username, req.Password)
		if err != nil {
			logger.Warn().Str("username", req.Username).Str("ip", c.RealIP()).Msg("Failed login attempt")
			return c.JSON(http.StatusUnauthorized, models.LoginResponse{
				Success: false,
				Error:   "Invalid username or password",
			})
		}

		logger.Info().Str("username", req.Username).Msg("Operator logged in")
		return c.JSON(http.StatusOK, models.LoginResponse{
			Success: true,
			Token:   token,
		})
	}
}
