package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"webinarwins/internal/models"

	"github.com/labstack/echo/v4"
)

// ErrInvalidCredentials is returned for a wrong username or password
var ErrInvalidCredentials = errors.New("invalid credentials")

// Manager issues and validates operator tokens for the routes that store
// webinars, call the generator or send email
type Manager struct {
	username    string
	password    string
	tokens      map[string]time.Time
	mu          sync.Mutex
	tokenExpiry time.Duration
	now         func() time.Time
}

// NewManager creates a new authentication manager. With no credentials
// configured authentication is disabled.
func NewManager(username, password string) *Manager {
	return &Manager{
		username:    username,
		password:    password,
		tokens:      make(map[string]time.Time),
		tokenExpiry: 24 * time.Hour, // Tokens expire after 24 hours
		now:         time.Now,
	}
}

// Enabled reports whether operator credentials are configured
func (am *Manager) Enabled() bool {
	return am.username != "" && am.password != ""
}

// Authenticate validates username and password and returns a token
func (am *Manager) Authenticate(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(am.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(am.password)) == 1
	if !am.Enabled() || !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	// Generate a secure random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	am.mu.Lock()
	defer am.mu.Unlock()
	am.cleanupExpiredTokens()
	am.tokens[token] = am.now().Add(am.tokenExpiry)

	return token, nil
}

// ValidateToken checks if a token is valid
func (am *Manager) ValidateToken(token string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()

	expiry, exists := am.tokens[token]
	if !exists {
		return false
	}

	if am.now().After(expiry) {
		delete(am.tokens, token)
		return false
	}

	return true
}

// cleanupExpiredTokens removes expired tokens. Callers hold mu.
func (am *Manager) cleanupExpiredTokens() {
	now := am.now()
	for token, expiry := range am.tokens {
		if now.After(expiry) {
			delete(am.tokens, token)
		}
	}
}

// Middleware rejects requests without a valid Bearer token. It lets every
// request through when authentication is disabled.
func Middleware(authManager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authManager.Enabled() {
				return next(c)
			}

			token := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "))
			if token == "" || !authManager.ValidateToken(token) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error: "Unauthorized. Please login first.",
				})
			}

			return next(c)
		}
	}
}
