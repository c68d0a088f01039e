package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid credentials", "operator", "s3cret", false},
		{"wrong password", "operator", "guess", true},
		{"wrong username", "admin", "s3cret", true},
		{"empty credentials", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := NewManager("operator", "s3cret")
			token, err := am.Authenticate(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.True(t, am.ValidateToken(token))
		})
	}
}

func TestAuthenticate_Disabled(t *testing.T) {
	am := NewManager("", "")
	assert.False(t, am.Enabled())

	_, err := am.Authenticate("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	am := NewManager("operator", "s3cret")
	am.now = func() time.Time { return now }

	token, err := am.Authenticate("operator", "s3cret")
	require.NoError(t, err)
	assert.False(t, am.ValidateToken("unknown"))

	now = now.Add(23 * time.Hour)
	assert.True(t, am.ValidateToken(token))

	now = now.Add(2 * time.Hour)
	assert.False(t, am.ValidateToken(token))
	assert.Empty(t, am.tokens, "expired token is removed")
}

func TestMiddleware(t *testing.T) {
	enabled := NewManager("operator", "s3cret")
	token, err := enabled.Authenticate("operator", "s3cret")
	require.NoError(t, err)

	tests := []struct {
		name           string
		manager        *Manager
		header         string
		expectedStatus int
	}{
		{"valid bearer token", enabled, "Bearer " + token, http.StatusOK},
		{"raw token", enabled, token, http.StatusOK},
		{"missing token", enabled, "", http.StatusUnauthorized},
		{"unknown token", enabled, "Bearer nope", http.StatusUnauthorized},
		{"disabled lets requests through", NewManager("", ""), "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/webinars", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Middleware(tt.manager)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
