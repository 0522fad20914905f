package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/syncclient"
)

var testAuthSecret = []byte("test-secret")

func setupSyncServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_sync_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{DB: db, AuthSecret: testAuthSecret, Version: "test"})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		db.Close()
		os.Remove(dbPath)
	})
	return server
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
	signed, err := token.SignedString(testAuthSecret)
	require.NoError(t, err)
	return signed
}

func clientFor(t *testing.T, server *httptest.Server, userID string) *syncclient.Client {
	t.Helper()
	token := userToken(t, userID)
	return syncclient.NewClient(server.URL, func(context.Context) (string, error) {
		return token, nil
	})
}

func TestSync_EndToEnd(t *testing.T) {
	server := setupSyncServer(t)
	client := clientFor(t, server, "user-1")
	ctx := context.Background()

	const t1 = int64(1_700_000_000_000)

	pushed, err := client.PushChanges(ctx, &entities.SyncData{
		Books: []entities.Book{{BookHash: "abc", Title: "X", UpdatedAt: t1}},
	})
	require.NoError(t, err)
	require.Len(t, pushed.Books, 1)
	assert.Equal(t, "X", pushed.Books[0].Title)

	// since is exclusive: t1-1 returns the record, t1+1 does not.
	result, err := client.PullChanges(ctx, t1-1, "", "", "")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "abc", result.Books[0].BookHash)

	result, err = client.PullChanges(ctx, t1+1, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, result.Books)
}

func TestSync_LastWriterWinsAcrossDevices(t *testing.T) {
	server := setupSyncServer(t)
	ctx := context.Background()

	desktop := clientFor(t, server, "user-1")
	phone := clientFor(t, server, "user-1")

	_, err := desktop.PushChanges(ctx, &entities.SyncData{
		Configs: []entities.BookConfig{{BookHash: "abc", Progress: "0.40", UpdatedAt: 2000}},
	})
	require.NoError(t, err)

	// The phone pushes an older position; the server keeps the newer one
	// and returns it so the phone converges.
	result, err := phone.PushChanges(ctx, &entities.SyncData{
		Configs: []entities.BookConfig{{BookHash: "abc", Progress: "0.10", UpdatedAt: 1000}},
	})
	require.NoError(t, err)
	require.Len(t, result.Configs, 1)
	assert.Equal(t, "0.40", result.Configs[0].Progress)
}

func TestSync_TombstoneRoundTrip(t *testing.T) {
	server := setupSyncServer(t)
	client := clientFor(t, server, "user-1")
	ctx := context.Background()

	deletedAt := int64(3000)
	_, err := client.PushChanges(ctx, &entities.SyncData{
		Books: []entities.Book{{BookHash: "abc", Title: "X", UpdatedAt: 1000}},
	})
	require.NoError(t, err)

	_, err = client.PushChanges(ctx, &entities.SyncData{
		Books: []entities.Book{{BookHash: "abc", Title: "X", UpdatedAt: 3000, DeletedAt: &deletedAt}},
	})
	require.NoError(t, err)

	result, err := client.PullChanges(ctx, 2000, "", "", "")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	require.NotNil(t, result.Books[0].DeletedAt)
	assert.Equal(t, deletedAt, *result.Books[0].DeletedAt)
}

func TestSync_UsersAreIsolated(t *testing.T) {
	server := setupSyncServer(t)
	ctx := context.Background()

	alice := clientFor(t, server, "alice")
	bob := clientFor(t, server, "bob")

	_, err := alice.PushChanges(ctx, &entities.SyncData{
		Books: []entities.Book{{BookHash: "private", UpdatedAt: 100}},
	})
	require.NoError(t, err)

	result, err := bob.PullChanges(ctx, 0, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, result.Books)
}

func TestSync_RejectsInvalidTokens(t *testing.T) {
	server := setupSyncServer(t)

	for name, header := range map[string]string{
		"missing":       "",
		"not bearer":    "Basic abc",
		"garbage token": "Bearer not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, server.URL+"/sync?since=0", nil)
			require.NoError(t, err)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSync_RejectsWrongSignature(t *testing.T) {
	server := setupSyncServer(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "mallory"})
	signed, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/sync?since=0", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSync_BadRequests(t *testing.T) {
	server := setupSyncServer(t)
	token := userToken(t, "user-1")

	get := func(path string) int {
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusBadRequest, get("/sync?since=not-a-number"))
	assert.Equal(t, http.StatusBadRequest, get("/sync?since=0&type=bogus"))
}

func TestSync_PushRequiresBookHash(t *testing.T) {
	server := setupSyncServer(t)
	client := clientFor(t, server, "user-1")

	_, err := client.PushChanges(context.Background(), &entities.SyncData{
		Books: []entities.Book{{Title: "no hash", UpdatedAt: 1}},
	})

	var se *syncclient.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
}
