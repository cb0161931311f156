package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/assistant"
	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/config"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/storage"
)

type testServerOption func(*Handlers)

func withRedis(t *testing.T, turnsPerMinute int) testServerOption {
	return func(h *Handlers) {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("failed to start miniredis: %v", err)
		}
		t.Cleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		h.cache = storage.NewInsightCache(client, time.Minute)
		h.limiter = storage.NewRateLimiter(client, turnsPerMinute)
	}
}

func newTestServer(t *testing.T, graphURL string, opts ...testServerOption) http.Handler {
	client := meta.NewClient(config.MetaConfig{
		AppID:          "app-id",
		AppSecret:      "app-secret",
		BaseURL:        graphURL,
		RedirectURL:    "http://localhost:3000/callback",
		TimeoutSeconds: 5,
	})
	authSvc := auth.NewService(
		auth.NewSupabaseClient(config.SupabaseConfig{URL: "http://unused", TimeoutSeconds: 5}),
		config.AuthConfig{
			SecretKey:          "test-secret",
			TokenExpiryMinutes: 30,
			DevBypassToken:     "dev-token",
			DevBypassEnabled:   true,
		},
	)

	handlers := NewHandlers(
		assistant.New(client, nil),
		advisor.New(client),
		client,
		meta.NewMonitor(client, config.PollingConfig{IntervalSeconds: 3600}),
		authSvc,
		nil, nil, nil,
		config.ChatConfig{TurnsPerMinute: 30, HistoryLimit: 20},
	)
	for _, opt := range opts {
		opt(handlers)
	}

	return SetupRoutes(handlers, authSvc, []string{"http://localhost:3000"})
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer dev-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheckOpen(t *testing.T) {
	handler := newTestServer(t, "http://unused")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestAPIRequiresAuth(t *testing.T) {
	handler := newTestServer(t, "http://unused")

	req := httptest.NewRequest(http.MethodGet, "/api/meta/ad-accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCampaigns(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_123/campaigns", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"111","name":"Summer Sale","status":"ACTIVE"}]}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodGet, "/api/meta/campaigns/act_123?access_token=tok", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	campaigns := body["campaigns"].([]any)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Summer Sale", campaigns[0].(map[string]any)["name"])
}

func TestGetCampaignsUsesCache(t *testing.T) {
	calls := 0
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":[{"id":"111","name":"Summer Sale","status":"ACTIVE"}]}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL, withRedis(t, 30))

	rec := doRequest(t, handler, http.MethodGet, "/api/meta/campaigns/act_123?access_token=tok", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/meta/campaigns/act_123?access_token=tok", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["cached"])
	assert.Equal(t, 1, calls, "second read comes from the cache")
}

func TestMissingMetaToken(t *testing.T) {
	handler := newTestServer(t, "http://unused")

	// The dev bypass user has no stored Meta token and none is passed.
	rec := doRequest(t, handler, http.MethodGet, "/api/meta/ad-accounts", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "Meta access token")
}

func TestGraphErrorPassesThroughAs502(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodGet, "/api/meta/campaigns/act_123?access_token=bad", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Error validating access token", decodeBody(t, rec)["error"])
}

func TestUpdateCampaignStatusValidation(t *testing.T) {
	handler := newTestServer(t, "http://unused")

	rec := doRequest(t, handler, http.MethodPost,
		"/api/meta/campaigns/456/status?access_token=tok", `{"status":"RUNNING"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCampaignBudget(t *testing.T) {
	var gotBudget string
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotBudget = r.PostFormValue("daily_budget")
		w.Write([]byte(`{"success":true}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodPost,
		"/api/meta/campaigns/456/budget?access_token=tok", `{"daily_budget":100}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10000", gotBudget, "dollars convert to cents on the wire")
}

func TestCreateCampaign(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_123/campaigns", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Summer Sale", r.PostFormValue("name"))
		assert.Equal(t, "PAUSED", r.PostFormValue("status"))
		w.Write([]byte(`{"id":"999"}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodPost, "/api/meta/campaigns/?access_token=tok",
		`{"account_id":"act_123","name":"Summer Sale","objective":"CONVERSIONS","daily_budget":50}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "999", decodeBody(t, rec)["id"])
}

func TestCreateAdSetEncodesTargeting(t *testing.T) {
	var gotTargeting string
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_123/adsets", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Lookalike US", r.PostFormValue("name"))
		gotTargeting = r.PostFormValue("targeting")
		w.Write([]byte(`{"id":"888"}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodPost, "/api/meta/ad-sets/?access_token=tok",
		`{"account_id":"act_123","campaign_id":"456","name":"Lookalike US",
		  "daily_budget":25,"targeting":{"geo_locations":{"countries":["US"]},"age_min":21}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "888", decodeBody(t, rec)["id"])

	var targeting map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotTargeting), &targeting),
		"targeting reaches the wire as a JSON string")
	assert.Equal(t, float64(21), targeting["age_min"])
}

func TestGetLoginLink(t *testing.T) {
	handler := newTestServer(t, "http://unused")
	rec := doRequest(t, handler, http.MethodGet, "/api/meta/login-link", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["login_url"], "facebook.com")
	assert.NotEmpty(t, body["state"])
}

func TestSendChatMessage(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"111","name":"Summer Sale","status":"ACTIVE","ctr":"2.5","spend":"1450"}]}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodPost, "/api/chat/message",
		`{"content":"Show my campaigns for act_123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["response"], "I found 1 campaign(s):")
}

func TestSendChatMessageClassifyFailure(t *testing.T) {
	handler := newTestServer(t, "http://unused")
	rec := doRequest(t, handler, http.MethodPost, "/api/chat/message",
		`{"content":"what is the weather"}`)

	require.Equal(t, http.StatusOK, rec.Code, "turn failures stay inside the reply")
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["suggestions"])
}

func TestSendChatMessageRateLimited(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL, withRedis(t, 1))

	rec := doRequest(t, handler, http.MethodPost, "/api/chat/message",
		`{"content":"Show my campaigns for act_123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/chat/message",
		`{"content":"Show my campaigns for act_123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestChatSuggestions(t *testing.T) {
	handler := newTestServer(t, "http://unused")
	rec := doRequest(t, handler, http.MethodGet, "/api/chat/suggestions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	suggestions := decodeBody(t, rec)["suggestions"].([]any)
	assert.NotEmpty(t, suggestions)
}

func TestAnalyzeCampaigns(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"111","name":"Summer Sale","status":"ACTIVE","ctr":"0.8","spend":"2450"},
			{"id":"222","name":"Brand Push","status":"PAUSED","ctr":"3.2","spend":"1200"}
		]}`))
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodPost, "/api/chat/analyze?access_token=tok",
		`{"account_id":"act_123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, float64(2), analysis["total_campaigns"])
	assert.Equal(t, float64(1), analysis["active_campaigns"])
	assert.InDelta(t, 36.5, analysis["total_spend"], 0.01)
	assert.InDelta(t, 2.0, analysis["avg_ctr"], 0.01)
	assert.NotEmpty(t, body["recommendations"])
	assert.NotNil(t, body["chart_data"])
}

func TestChatHistoryDisabled(t *testing.T) {
	handler := newTestServer(t, "http://unused")
	rec := doRequest(t, handler, http.MethodGet, "/api/chat/sessions", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRealtimeInsights(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/insights"):
			w.Write([]byte(`{"data":[{"spend":"75","impressions":"30000","clicks":"500"}]}`))
		default:
			w.Write([]byte(`{"data":[{"id":"111","name":"Summer Sale","status":"ACTIVE","ctr":"2.5","impressions":"30000"}]}`))
		}
	}))
	defer graph.Close()

	handler := newTestServer(t, graph.URL)
	rec := doRequest(t, handler, http.MethodGet, "/api/meta/realtime/act_123?access_token=tok", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "act_123", body["account_id"])
	require.NotNil(t, body["summary"])
	summary := body["summary"].(map[string]any)
	assert.InDelta(t, 75.0, summary["spend"], 0.01)
}
