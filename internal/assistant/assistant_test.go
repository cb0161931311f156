package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspilot/metads-assistant/internal/config"
	"github.com/adspilot/metads-assistant/internal/meta"
)

func newTestAssistant(serverURL string) *Assistant {
	client := meta.NewClient(config.MetaConfig{
		AppID:          "app-id",
		AppSecret:      "app-secret",
		BaseURL:        serverURL,
		RedirectURL:    "http://localhost:3000/callback",
		TimeoutSeconds: 5,
	})
	return New(client, nil)
}

func TestHandleMessageCampaignTurn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"111","name":"Summer Sale","status":"ACTIVE","ctr":"0.80","spend":"1450","impressions":"125000","clicks":"1000"},
			{"id":"222","name":"Brand Push","status":"ACTIVE","ctr":"3.20","spend":"1200","impressions":"89000","clicks":"2848"}
		]}`))
	}))
	defer server.Close()

	reply := newTestAssistant(server.URL).HandleMessage(context.Background(), "tok", "Show my campaigns for act_123")

	assert.Empty(t, reply.Err)
	assert.Contains(t, reply.Text, "I found 2 campaign(s):")
	assert.Contains(t, reply.Text, "Summer Sale")
	assert.Len(t, reply.Data, 2)
	require.Len(t, reply.Recommendations, 1)
	assert.Contains(t, reply.Recommendations[0], "low CTR")
	assert.NotEmpty(t, reply.Suggestions)
}

func TestHandleMessageClassifyFailure(t *testing.T) {
	reply := newTestAssistant("http://unused").HandleMessage(context.Background(), "tok", "what is the weather today")

	assert.Empty(t, reply.Text)
	assert.NotEmpty(t, reply.Err)
	assert.NotEmpty(t, reply.Suggestions, "unrecognized requests come with example prompts")
}

func TestHandleMessageMissingEntity(t *testing.T) {
	reply := newTestAssistant("http://unused").HandleMessage(context.Background(), "tok", "Show my campaigns")

	assert.NotEmpty(t, reply.Err)
	assert.Contains(t, reply.Err, "account")
	assert.NotEmpty(t, reply.Suggestions)
}

func TestHandleMessageRemoteFailureVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	reply := newTestAssistant(server.URL).HandleMessage(context.Background(), "bad-token", "Show my campaigns for act_123")

	assert.Empty(t, reply.Text)
	assert.Contains(t, reply.Err, "Error validating access token")
}

func TestHandleMessageInsightsTurnHasChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"date_start":"2024-01-01","spend":"40","impressions":"1000","clicks":"30"},
			{"date_start":"2024-01-02","spend":"60","impressions":"2000","clicks":"60"}
		]}`))
	}))
	defer server.Close()

	reply := newTestAssistant(server.URL).HandleMessage(context.Background(), "tok", "Show insights for campaign_123 last 30 days")

	assert.Empty(t, reply.Err)
	assert.Contains(t, reply.Text, "Total spend $100.00")
	require.NotNil(t, reply.Chart)
	assert.Equal(t, ChartLine, reply.Chart.Kind)
	require.Len(t, reply.Chart.Labels, 2)
	for _, series := range reply.Chart.Series {
		assert.Len(t, series.Values, len(reply.Chart.Labels))
	}
}
