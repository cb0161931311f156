package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adspilot/metads-assistant/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.MetaConfig{
		AppID:          "app-id",
		AppSecret:      "app-secret",
		BaseURL:        serverURL,
		RedirectURL:    "http://localhost:3000/callback",
		TimeoutSeconds: 5,
	})
}

func TestAdAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/adaccounts" {
			t.Errorf("Expected path /me/adaccounts, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "tok" {
			t.Error("Missing access_token query parameter")
		}
		w.Write([]byte(`{"data":[
			{"id":"act_123456789","name":"Main Ad Account","account_status":1,"currency":"USD","timezone_name":"America/New_York"},
			{"id":"act_987654321","name":"Secondary Account","account_status":1,"currency":"USD"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	accounts, err := client.AdAccounts(context.Background(), "tok")
	if err != nil {
		t.Fatalf("AdAccounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].ID != "act_123456789" {
		t.Errorf("Expected id act_123456789, got %s", accounts[0].ID)
	}
	if accounts[0].Currency != "USD" {
		t.Errorf("Expected currency USD, got %s", accounts[0].Currency)
	}
}

func TestCampaigns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/act_123/campaigns" {
			t.Errorf("Expected path /act_123/campaigns, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"id":"111","name":"Summer Sale","status":"ACTIVE","objective":"CONVERSIONS","daily_budget":"10000","spend":"2450","impressions":"125000","clicks":"3200","ctr":"2.56"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	campaigns, err := client.Campaigns(context.Background(), "tok", "act_123")
	if err != nil {
		t.Fatalf("Campaigns failed: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("Expected 1 campaign, got %d", len(campaigns))
	}
	if campaigns[0].Name != "Summer Sale" {
		t.Errorf("Expected name 'Summer Sale', got '%s'", campaigns[0].Name)
	}
	if campaigns[0].DailyBudget != "10000" {
		t.Errorf("Expected daily_budget '10000', got '%s'", campaigns[0].DailyBudget)
	}
}

func TestInsightsDatePreset(t *testing.T) {
	var gotPreset, gotLevel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPreset = r.URL.Query().Get("date_preset")
		gotLevel = r.URL.Query().Get("level")
		w.Write([]byte(`{"data":[
			{"date_start":"2024-01-01","date_stop":"2024-01-01","spend":"100","impressions":"5000","clicks":"150"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	insights, err := client.Insights(context.Background(), "tok", "123", InsightsQuery{TimeRange: "last_7d", Level: "campaign"})
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	if gotPreset != "last_7d" {
		t.Errorf("Expected date_preset last_7d, got %s", gotPreset)
	}
	if gotLevel != "campaign" {
		t.Errorf("Expected level campaign, got %s", gotLevel)
	}
	if len(insights) != 1 || insights[0].Spend != "100" {
		t.Errorf("Unexpected insights payload: %+v", insights)
	}
}

func TestInsightsDefaultTimeRange(t *testing.T) {
	var gotPreset string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPreset = r.URL.Query().Get("date_preset")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Insights(context.Background(), "tok", "123", InsightsQuery{})
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	if gotPreset != "last_30d" {
		t.Errorf("Expected default date_preset last_30d, got %s", gotPreset)
	}
}

func TestUpdateCampaignBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostFormValue("daily_budget"); got != "10000" {
			t.Errorf("Expected daily_budget 10000, got %s", got)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if err := client.UpdateCampaignBudget(context.Background(), "tok", "456", 10000); err != nil {
		t.Fatalf("UpdateCampaignBudget failed: %v", err)
	}
}

func TestGraphErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.UpdateCampaignStatus(context.Background(), "tok", "456", StatusPaused)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var metaErr *MetaError
	if !errors.As(err, &metaErr) {
		t.Fatalf("Expected MetaError, got %T: %v", err, err)
	}
	if metaErr.Message != "Invalid parameter" {
		t.Errorf("Expected upstream message to pass through, got %q", metaErr.Message)
	}
	if metaErr.Code != 100 {
		t.Errorf("Expected code 100, got %d", metaErr.Code)
	}
}

func TestValidateToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") == "good" {
			w.Write([]byte(`{"id":"42","name":"Test User"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if !client.ValidateToken(context.Background(), "good") {
		t.Error("Expected good token to validate")
	}
	if client.ValidateToken(context.Background(), "bad") {
		t.Error("Expected bad token to fail validation")
	}
}

func TestDatePreset(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"today", "today"},
		{"this_week", "this_week_sun_today"},
		{"last_week", "last_week_sun_sat"},
		{"last_90d", "last_90d"},
		{"", "last_30d"},
		{"bogus", "last_30d"},
	}

	for _, tt := range tests {
		if got := DatePreset(tt.token); got != tt.want {
			t.Errorf("DatePreset(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestLoginLink(t *testing.T) {
	client := newTestClient("https://graph.facebook.com/v18.0")
	link := client.LoginLink("state-123")
	if link == "" {
		t.Fatal("Expected non-empty login link")
	}
	for _, want := range []string{"client_id=app-id", "state=state-123", "facebook.com"} {
		if !strings.Contains(link, want) {
			t.Errorf("Login link missing %q: %s", want, link)
		}
	}
}
