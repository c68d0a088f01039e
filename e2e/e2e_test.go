// Package e2e provides end-to-end API tests against a running WebinarWins
// deployment. They are skipped unless E2E_BASE_URL is set.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"webinarwins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attendanceCSV = `Name,Email,Attended,Attendance %,Focus %
Ada Lovelace,ada@example.com,yes,95,85
Grace Hopper,grace@example.com,yes,60,50
Alan Turing,alan@example.com,no,,
`

const chatCSV = `Timestamp,Name,Email,Message
2024-03-05 18:01,Ada,ada@example.com,Is this recorded?
2024-03-05 18:02,Ada,ada@example.com,How long is the cohort?
2024-03-05 18:03,Ada,ada@example.com,Can I pay monthly?
2024-03-05 18:04,Ada,ada@example.com,Love this framework.
2024-03-05 18:05,Ada,ada@example.com,Taking notes.
2024-03-05 18:06,Ada,ada@example.com,Great session.
`

// getBaseURL returns the deployment under test, skipping when none is configured
func getBaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("E2E_BASE_URL")
	if url == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	return url
}

func newClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Minute}
}

// authorize sets the operator token when E2E_ADMIN_USERNAME is configured
func authorize(t *testing.T, client *http.Client, baseURL string, req *http.Request) {
	t.Helper()
	username := os.Getenv("E2E_ADMIN_USERNAME")
	if username == "" {
		return
	}

	body, err := json.Marshal(models.LoginRequest{Username: username, Password: os.Getenv("E2E_ADMIN_PASSWORD")})
	require.NoError(t, err)
	resp, err := client.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var login models.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.True(t, login.Success, login.Error)
	req.Header.Set("Authorization", "Bearer "+login.Token)
}

// TestHealthEndpoint verifies that the health endpoint is working.
func TestHealthEndpoint(t *testing.T) {
	baseURL := getBaseURL(t)
	t.Logf("Testing health endpoint at: %s", baseURL)

	resp, err := newClient().Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
}

// TestUploadAndScore uploads a small webinar and checks the scored attendees.
func TestUploadAndScore(t *testing.T) {
	baseURL := getBaseURL(t)
	client := newClient()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", fmt.Sprintf("E2E webinar %d", time.Now().Unix())))
	require.NoError(t, writer.WriteField("offer_name", "Growth Program"))
	for field, content := range map[string]string{"attendance_csv": attendanceCSV, "chat_csv": chatCSV} {
		part, err := writer.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/webinars", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	authorize(t, client, baseURL, req)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var webinar models.WebinarResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&webinar))
	require.NotNil(t, webinar.Stats)
	assert.Equal(t, 3, webinar.Stats.TotalRegistrants)
	assert.Equal(t, 2, webinar.Stats.TotalAttendees)
	assert.Equal(t, 1, webinar.Stats.NoShows)

	attendeesResp, err := client.Get(fmt.Sprintf("%s/api/webinars/%d/attendees?tier=hot", baseURL, webinar.ID))
	require.NoError(t, err)
	defer attendeesResp.Body.Close()
	require.Equal(t, http.StatusOK, attendeesResp.StatusCode)

	var attendees []models.AttendeeResponse
	require.NoError(t, json.NewDecoder(attendeesResp.Body).Decode(&attendees))
	require.Len(t, attendees, 1)
	assert.Equal(t, "ada@example.com", attendees[0].Email)
}
