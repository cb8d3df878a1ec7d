package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/messaging"
	"github.com/hongminglow/messagely/internal/middleware"
	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/models/dto"
	"github.com/hongminglow/messagely/internal/storage"
	"github.com/hongminglow/messagely/internal/storage/postgres"
	"github.com/hongminglow/messagely/internal/storage/sqlite"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t   *testing.T
	url string
}

func newTestAPI(t *testing.T, store storage.Store) *apiClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("handlers-test-secret", "messagely", time.Hour)
	authSvc := auth.NewService(store, tokens, bcrypt.MinCost, logger)
	msgSvc := messaging.NewService(store, store, logger)
	protect := middleware.RequireIdentity(tokens, logger)

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(authSvc, logger).Register(mux)
	NewUsersHandler(authSvc, msgSvc, logger).Register(mux, protect)
	NewMessagesHandler(msgSvc, logger).Register(mux, protect)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &apiClient{t: t, url: ts.URL}
}

func (c *apiClient) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.url+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if resp.StatusCode < http.StatusBadRequest {
		assert.NotContains(c.t, string(raw), "password", "%s %s leaked a password field", method, path)
		assert.NotContains(c.t, string(raw), "$2a$", "%s %s leaked a bcrypt hash", method, path)
	}

	var env envelope
	require.NoError(c.t, json.Unmarshal(raw, &env))
	assert.Equal(c.t, resp.StatusCode, env.Code)
	if out != nil && len(env.Data) > 0 {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

func (c *apiClient) register(username, password string) string {
	c.t.Helper()
	var tok dto.TokenResponse
	status := c.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{
		Username:  username,
		Password:  password,
		FirstName: "First",
		LastName:  "Last",
		Phone:     "+15550001111",
	}, &tok)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, tok.Token)
	return tok.Token
}

func (c *apiClient) send(token, to, body string) models.Message {
	c.t.Helper()
	var out struct {
		Message models.Message `json:"message"`
	}
	status := c.do(http.MethodPost, "/messages", token, dto.SendMessageRequest{ToUsername: to, Body: body}, &out)
	require.Equal(c.t, http.StatusCreated, status)
	return out.Message
}

func TestAPI(t *testing.T) {
	store, err := sqlite.NewStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	runAPIScenario(t, newTestAPI(t, store), "")
}

// TestAPIIntegration runs the same flow against a live Postgres database.
func TestAPIIntegration(t *testing.T) {
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, dbURL, "DATABASE_URL is required")

	store, err := postgres.NewStore(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	runAPIScenario(t, newTestAPI(t, store), fmt.Sprintf("_%d", time.Now().UnixNano()))
}

func runAPIScenario(t *testing.T, api *apiClient, suffix string) {
	alice, bob, carol := "alice"+suffix, "bob"+suffix, "carol"+suffix

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, nil))
	})

	aliceToken := api.register(alice, "pw1")
	bobToken := api.register(bob, "pw2")
	carolToken := api.register(carol, "pw3")

	t.Run("register rejects duplicate username", func(t *testing.T) {
		status := api.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{Username: alice, Password: "other"}, nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("register rejects missing password", func(t *testing.T) {
		status := api.do(http.MethodPost, "/auth/register", "", dto.RegisterRequest{Username: "nopass" + suffix}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("login", func(t *testing.T) {
		var tok dto.TokenResponse
		status := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Username: alice, Password: "pw1"}, &tok)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, tok.Token)
		assert.False(t, tok.LastLoginAt.IsZero())

		status = api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Username: alice, Password: "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status = api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Username: "nobody" + suffix, Password: "pw1"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users", "", nil, nil))
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/users", "garbage", nil, nil))
	})

	t.Run("users list and profile", func(t *testing.T) {
		var list struct {
			Users []models.UserSummary `json:"users"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users", aliceToken, nil, &list))
		names := make([]string, 0, len(list.Users))
		for _, u := range list.Users {
			names = append(names, u.Username)
		}
		assert.Subset(t, names, []string{alice, bob, carol})

		var detail struct {
			User models.User `json:"user"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/"+alice, aliceToken, nil, &detail))
		assert.Equal(t, alice, detail.User.Username)
		assert.NotNil(t, detail.User.LastLoginAt)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/users/"+alice, bobToken, nil, nil))
	})

	t.Run("send validates input", func(t *testing.T) {
		status := api.do(http.MethodPost, "/messages", aliceToken, dto.SendMessageRequest{ToUsername: bob, Body: "  "}, nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status = api.do(http.MethodPost, "/messages", aliceToken, dto.SendMessageRequest{ToUsername: "ghost" + suffix, Body: "hi"}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	msg := api.send(aliceToken, bob, "hello bob")
	assert.Nil(t, msg.ReadAt)

	t.Run("sender view does not mark read", func(t *testing.T) {
		var out struct {
			Message models.MessageDetail `json:"message"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/messages/"+msg.ID, aliceToken, nil, &out))
		assert.Equal(t, bob, out.Message.ToUser.Username)
		assert.Nil(t, out.Message.ReadAt)
	})

	t.Run("outsiders cannot view or mark read", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/messages/"+msg.ID, carolToken, nil, nil))
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/messages/"+msg.ID+"/read", carolToken, nil, nil))
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/messages/"+msg.ID+"/read", aliceToken, nil, nil))
	})

	var firstRead time.Time
	t.Run("recipient view marks read once", func(t *testing.T) {
		var out struct {
			Message models.MessageDetail `json:"message"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/messages/"+msg.ID, bobToken, nil, &out))
		require.NotNil(t, out.Message.ReadAt)
		firstRead = *out.Message.ReadAt

		var receipt struct {
			Message dto.ReadReceipt `json:"message"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/messages/"+msg.ID+"/read", bobToken, nil, &receipt))
		assert.Equal(t, msg.ID, receipt.Message.ID)
		assert.True(t, firstRead.Equal(receipt.Message.ReadAt))
	})

	t.Run("unknown message", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/messages/not-a-uuid", bobToken, nil, nil))
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/messages/00000000-0000-0000-0000-000000000000/read", bobToken, nil, nil))
	})

	t.Run("inbox and outbox", func(t *testing.T) {
		var inbox struct {
			Messages []models.ReceivedMessage `json:"messages"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/"+bob+"/to", bobToken, nil, &inbox))
		require.Len(t, inbox.Messages, 1)
		assert.Equal(t, alice, inbox.Messages[0].FromUser.Username)
		require.NotNil(t, inbox.Messages[0].ReadAt)
		assert.True(t, firstRead.Equal(*inbox.Messages[0].ReadAt))

		var outbox struct {
			Messages []models.SentMessage `json:"messages"`
		}
		require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/"+alice+"/from", aliceToken, nil, &outbox))
		require.Len(t, outbox.Messages, 1)
		assert.Equal(t, bob, outbox.Messages[0].ToUser.Username)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/users/"+bob+"/to", aliceToken, nil, nil))
	})
}

func loadDotEnv() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
		filepath.Join("..", "..", ".env"),
		filepath.Join("..", "..", "..", ".env"),
	}
	for _, path := range candidates {
		if err := godotenv.Overload(path); err == nil {
			return
		}
	}
}
