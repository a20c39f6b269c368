package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/pkg/auth"
	"github.com/parleybot/parley/pkg/dialog"
	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/testutils"
	"github.com/parleybot/parley/pkg/training"
)

type noopPublisher struct{}

func (noopPublisher) Publish(models.TaskTopic, map[string]string, any) error { return nil }
func (noopPublisher) Close() error                                          { return nil }

func newTestRouterState(t *testing.T) (*models.AppState, string) {
	t.Helper()

	as := testutils.NewTestAppState()
	as.Trainer = training.NewCoordinator(as, noopPublisher{})
	as.Engine = dialog.NewEngine(as)

	chatbotID := testutils.GenerateRandomChatbotID()
	require.NoError(t, testutils.SeedDeliveryBot(context.Background(), as, chatbotID))
	return as, chatbotID
}

func TestAdminRoutes(t *testing.T) {
	as, chatbotID := newTestRouterState(t)
	srv := httptest.NewServer(setupRouter(as))
	defer srv.Close()

	get := func(t *testing.T, path string) *http.Response {
		t.Helper()
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		return res
	}

	t.Run("healthz", func(t *testing.T) {
		res := get(t, "/healthz")
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("version header is sent", func(t *testing.T) {
		res := get(t, "/healthz")
		defer res.Body.Close()
		assert.NotEmpty(t, res.Header.Get("X-Parley-Version"))
	})

	t.Run("list intents", func(t *testing.T) {
		res := get(t, "/api/v1/chatbots/"+chatbotID+"/intents")
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var intents []models.Intent
		require.NoError(t, json.NewDecoder(res.Body).Decode(&intents))
		require.Len(t, intents, 1)
		assert.Equal(t, "takeout", intents[0].Name)
		assert.Len(t, intents[0].Slots, 3)
	})

	t.Run("get intent by name", func(t *testing.T) {
		res := get(t, "/api/v1/chatbots/"+chatbotID+"/intents/takeout")
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("unknown intent is 404", func(t *testing.T) {
		res := get(t, "/api/v1/chatbots/"+chatbotID+"/intents/nope")
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("list dictionaries", func(t *testing.T) {
		res := get(t, "/api/v1/chatbots/"+chatbotID+"/dicts")
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var dicts []models.Dict
		require.NoError(t, json.NewDecoder(res.Body).Decode(&dicts))
		assert.Len(t, dicts, 2)
	})

	t.Run("referenced system dictionaries", func(t *testing.T) {
		res := get(t, "/api/v1/chatbots/"+chatbotID+"/sysdicts")
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var names []string
		require.NoError(t, json.NewDecoder(res.Body).Decode(&names))
		assert.Equal(t, []string{"@LOC"}, names)
	})

	t.Run("system dictionary catalog", func(t *testing.T) {
		res := get(t, "/api/v1/sysdicts")
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var names []string
		require.NoError(t, json.NewDecoder(res.Body).Decode(&names))
		assert.Len(t, names, 3)
	})

	t.Run("session lifecycle", func(t *testing.T) {
		body, err := json.Marshal(models.SessionKey{
			ChatbotID: chatbotID, UID: "u1", Channel: "web", Branch: "dev",
		})
		require.NoError(t, err)

		res, err := http.Post(srv.URL+"/api/v1/sessions", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var session models.ChatSession
		require.NoError(t, json.NewDecoder(res.Body).Decode(&session))
		assert.Regexp(t, "^[0-9A-F]{32}$", session.ID)

		got := get(t, "/api/v1/sessions/"+session.ID)
		defer got.Body.Close()
		assert.Equal(t, http.StatusOK, got.StatusCode)

		missing := get(t, "/api/v1/sessions/NOPE")
		defer missing.Body.Close()
		assert.Equal(t, http.StatusNotFound, missing.StatusCode)

		// No model was trained in this state, so a chat turn is 503.
		chatBody := []byte(`{"text_message": "你好"}`)
		chatRes, err := http.Post(
			srv.URL+"/api/v1/sessions/"+session.ID+"/chat",
			"application/json",
			bytes.NewReader(chatBody),
		)
		require.NoError(t, err)
		defer chatRes.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, chatRes.StatusCode)
	})

	t.Run("training control", func(t *testing.T) {
		res, err := http.Post(srv.URL+"/api/v1/chatbots/"+chatbotID+"/train", "application/json", nil)
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusAccepted, res.StatusCode)

		statusRes := get(t, "/api/v1/chatbots/"+chatbotID+"/train")
		defer statusRes.Body.Close()
		require.Equal(t, http.StatusOK, statusRes.StatusCode)

		var job models.TrainingJob
		require.NoError(t, json.NewDecoder(statusRes.Body).Decode(&job))
		assert.Equal(t, models.TrainingStateRunning, job.State)
	})
}

func TestAdminRoutesWithAuth(t *testing.T) {
	as, chatbotID := newTestRouterState(t)
	as.Config.Auth.Required = true
	as.Config.Auth.Secret = "test-secret"

	srv := httptest.NewServer(setupRouter(as))
	defer srv.Close()

	url := fmt.Sprintf("%s/api/v1/chatbots/%s/intents", srv.URL, chatbotID)

	t.Run("request without token is unauthorized", func(t *testing.T) {
		res, err := http.Get(url)
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("request with token passes", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+auth.GenerateJWT(as.Config))

		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})
}
