package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postRPC(t *testing.T, server *httptest.Server, token, path string, payload any) (int, usageTotalResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var total usageTotalResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&total))
	}
	return resp.StatusCode, total
}

func TestUsage_IncrementAndRead(t *testing.T) {
	server := setupSyncServer(t)
	token := userToken(t, "user-1")

	status, total := postRPC(t, server, token, "/rpc/increment_daily_usage", incrementUsageRequest{
		UserID:    "user-1",
		UsageType: "translation_chars",
		Increment: 120,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(120), total.Total)

	status, total = postRPC(t, server, token, "/rpc/increment_daily_usage", incrementUsageRequest{
		UserID:    "user-1",
		UsageType: "translation_chars",
		Increment: 80,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(200), total.Total)

	status, total = postRPC(t, server, token, "/rpc/get_current_usage", currentUsageRequest{
		UserID:    "user-1",
		UsageType: "translation_chars",
		Period:    "daily",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(200), total.Total)
}

func TestUsage_ZeroWhenUnused(t *testing.T) {
	server := setupSyncServer(t)
	token := userToken(t, "user-1")

	status, total := postRPC(t, server, token, "/rpc/get_current_usage", currentUsageRequest{
		UserID:    "never-seen",
		UsageType: "translation_chars",
		Period:    "monthly",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, total.Total)
}

func TestUsage_RejectsMissingFields(t *testing.T) {
	server := setupSyncServer(t)
	token := userToken(t, "user-1")

	status, _ := postRPC(t, server, token, "/rpc/increment_daily_usage", incrementUsageRequest{
		UsageType: "translation_chars",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUsage_RequiresAuth(t *testing.T) {
	server := setupSyncServer(t)

	resp, err := http.Post(server.URL+"/rpc/get_current_usage", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
