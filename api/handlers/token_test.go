package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey    = "api-key"
	testAPISecret = "this-is-a-test-secret-of-sufficient-length"
	testServerURL = "ws://localhost:7880"
)

func newTokenHandler(t *testing.T) *TokenHandler {
	t.Helper()
	return NewTokenHandler(testAPIKey, testAPISecret, testServerURL, "voiceloop", newTestStore(t), nil)
}

func TestTokenHandlerRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	newTokenHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/token", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "identity is required", body["error"])
}

func TestTokenHandlerIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTokenHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/token?identity=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, testServerURL, body.URL)
	require.NotEmpty(t, body.Token)

	parsed, err := jwt.Parse(body.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testAPISecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, testAPIKey, claims["iss"])

	video, ok := claims["video"].(map[string]interface{})
	require.True(t, ok, "token missing video grant")
	assert.Equal(t, true, video["roomJoin"])
	assert.Equal(t, "voice-room", video["room"])
	assert.Equal(t, true, video["canPublish"])
	assert.Equal(t, true, video["canSubscribe"])
}
