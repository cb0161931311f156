package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/adspilot/metads-assistant/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// Client is a Meta Graph API client. Every call carries the user's access
// token; the client holds no credential state beyond the app identity used
// for login links. Failed calls surface the upstream error message verbatim
// and are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	oauth      *oauth2.Config
}

// NewClient creates a new Graph API client.
func NewClient(cfg config.MetaConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"ads_read", "ads_management"},
			Endpoint:     facebook.Endpoint,
		},
	}
}

// listEnvelope is the standard Graph list response shape.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// errorEnvelope wraps the Graph error body.
type errorEnvelope struct {
	Error *MetaError `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, params url.Values, form url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)
	fullURL := c.baseURL + path + "?" + params.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var env errorEnvelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
			return nil, env.Error
		}
		return nil, fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}

func (c *Client) getList(ctx context.Context, path, token string, params url.Values, out any) error {
	raw, err := c.doRequest(ctx, http.MethodGet, path, token, params, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ValidateToken reports whether the access token is usable.
func (c *Client) ValidateToken(ctx context.Context, token string) bool {
	_, err := c.doRequest(ctx, http.MethodGet, "/me", token, nil, nil)
	return err == nil
}

// UserInfo fetches the profile behind the access token.
func (c *Client) UserInfo(ctx context.Context, token string) (*UserInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,name,email")

	raw, err := c.doRequest(ctx, http.MethodGet, "/me", token, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching user info: %w", err)
	}

	var info UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("parsing user info: %w", err)
	}
	return &info, nil
}

// AdAccounts fetches the user's ad accounts.
func (c *Client) AdAccounts(ctx context.Context, token string) ([]AdAccount, error) {
	params := url.Values{}
	params.Set("fields", "id,name,account_status,currency,timezone_name,business_name")

	var env listEnvelope[AdAccount]
	if err := c.getList(ctx, "/me/adaccounts", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching ad accounts: %w", err)
	}
	return env.Data, nil
}

// AccountInfo fetches a single ad account.
func (c *Client) AccountInfo(ctx context.Context, token, accountID string) (*AdAccount, error) {
	params := url.Values{}
	params.Set("fields", "id,name,account_status,currency,timezone_name,business_name")

	raw, err := c.doRequest(ctx, http.MethodGet, "/"+accountID, token, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching account info: %w", err)
	}

	var account AdAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("parsing account info: %w", err)
	}
	return &account, nil
}

const campaignFields = "id,name,status,objective,daily_budget,lifetime_budget,spend,impressions,clicks,ctr,cpc,created_time,updated_time"

// Campaigns fetches campaigns for an ad account.
func (c *Client) Campaigns(ctx context.Context, token, accountID string) ([]Campaign, error) {
	params := url.Values{}
	params.Set("fields", campaignFields)

	var env listEnvelope[Campaign]
	if err := c.getList(ctx, "/"+accountID+"/campaigns", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching campaigns: %w", err)
	}
	return env.Data, nil
}

// CampaignDetails fetches a single campaign.
func (c *Client) CampaignDetails(ctx context.Context, token, campaignID string) (*Campaign, error) {
	params := url.Values{}
	params.Set("fields", campaignFields)

	raw, err := c.doRequest(ctx, http.MethodGet, "/"+campaignID, token, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching campaign details: %w", err)
	}

	var campaign Campaign
	if err := json.Unmarshal(raw, &campaign); err != nil {
		return nil, fmt.Errorf("parsing campaign details: %w", err)
	}
	return &campaign, nil
}

// CreateCampaignParams are the fields for a new campaign. DailyBudgetCents
// is in minor currency units as the Graph API requires.
type CreateCampaignParams struct {
	Name             string
	Objective        string
	Status           string
	DailyBudgetCents int64
}

// CreateCampaign creates a campaign and returns its id.
func (c *Client) CreateCampaign(ctx context.Context, token, accountID string, p CreateCampaignParams) (string, error) {
	form := url.Values{}
	form.Set("name", p.Name)
	form.Set("objective", p.Objective)
	form.Set("status", p.Status)
	form.Set("special_ad_categories", "[]")
	if p.DailyBudgetCents > 0 {
		form.Set("daily_budget", fmt.Sprintf("%d", p.DailyBudgetCents))
	}

	raw, err := c.doRequest(ctx, http.MethodPost, "/"+accountID+"/campaigns", token, nil, form)
	if err != nil {
		return "", fmt.Errorf("creating campaign: %w", err)
	}
	return parseID(raw)
}

// UpdateCampaignStatus sets a campaign's status (ACTIVE, PAUSED, ARCHIVED).
func (c *Client) UpdateCampaignStatus(ctx context.Context, token, campaignID, status string) error {
	form := url.Values{}
	form.Set("status", status)

	if _, err := c.doRequest(ctx, http.MethodPost, "/"+campaignID, token, nil, form); err != nil {
		return fmt.Errorf("updating campaign status: %w", err)
	}
	return nil
}

// UpdateCampaignBudget sets a campaign's daily budget in minor currency units.
func (c *Client) UpdateCampaignBudget(ctx context.Context, token, campaignID string, dailyBudgetCents int64) error {
	form := url.Values{}
	form.Set("daily_budget", fmt.Sprintf("%d", dailyBudgetCents))

	if _, err := c.doRequest(ctx, http.MethodPost, "/"+campaignID, token, nil, form); err != nil {
		return fmt.Errorf("updating campaign budget: %w", err)
	}
	return nil
}

// AdSets fetches ad sets for a campaign.
func (c *Client) AdSets(ctx context.Context, token, campaignID string) ([]AdSet, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,campaign_id,daily_budget,lifetime_budget,targeting,created_time,updated_time")

	var env listEnvelope[AdSet]
	if err := c.getList(ctx, "/"+campaignID+"/adsets", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching ad sets: %w", err)
	}
	return env.Data, nil
}

// AdSetDetails fetches a single ad set.
func (c *Client) AdSetDetails(ctx context.Context, token, adsetID string) (*AdSet, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,campaign_id,daily_budget,lifetime_budget,targeting")

	raw, err := c.doRequest(ctx, http.MethodGet, "/"+adsetID, token, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching ad set details: %w", err)
	}

	var adset AdSet
	if err := json.Unmarshal(raw, &adset); err != nil {
		return nil, fmt.Errorf("parsing ad set details: %w", err)
	}
	return &adset, nil
}

// CreateAdSetParams are the fields for a new ad set.
type CreateAdSetParams struct {
	Name             string
	CampaignID       string
	Status           string
	DailyBudgetCents int64
	Targeting        string // JSON targeting spec, optional
}

// CreateAdSet creates an ad set under the account and returns its id.
func (c *Client) CreateAdSet(ctx context.Context, token, accountID string, p CreateAdSetParams) (string, error) {
	form := url.Values{}
	form.Set("name", p.Name)
	form.Set("campaign_id", p.CampaignID)
	form.Set("status", p.Status)
	if p.DailyBudgetCents > 0 {
		form.Set("daily_budget", fmt.Sprintf("%d", p.DailyBudgetCents))
	}
	if p.Targeting != "" {
		form.Set("targeting", p.Targeting)
	}

	raw, err := c.doRequest(ctx, http.MethodPost, "/"+accountID+"/adsets", token, nil, form)
	if err != nil {
		return "", fmt.Errorf("creating ad set: %w", err)
	}
	return parseID(raw)
}

// Ads fetches ads for an ad set.
func (c *Client) Ads(ctx context.Context, token, adsetID string) ([]Ad, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,adset_id,creative,created_time,updated_time")

	var env listEnvelope[Ad]
	if err := c.getList(ctx, "/"+adsetID+"/ads", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching ads: %w", err)
	}
	return env.Data, nil
}

// AdDetails fetches a single ad.
func (c *Client) AdDetails(ctx context.Context, token, adID string) (*Ad, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,adset_id,creative")

	raw, err := c.doRequest(ctx, http.MethodGet, "/"+adID, token, params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching ad details: %w", err)
	}

	var ad Ad
	if err := json.Unmarshal(raw, &ad); err != nil {
		return nil, fmt.Errorf("parsing ad details: %w", err)
	}
	return &ad, nil
}

// CreateAdParams are the fields for a new ad.
type CreateAdParams struct {
	Name       string
	AdsetID    string
	CreativeID string
	Status     string
}

// CreateAd creates an ad under the account and returns its id.
func (c *Client) CreateAd(ctx context.Context, token, accountID string, p CreateAdParams) (string, error) {
	form := url.Values{}
	form.Set("name", p.Name)
	form.Set("adset_id", p.AdsetID)
	form.Set("creative", fmt.Sprintf(`{"creative_id":"%s"}`, p.CreativeID))
	form.Set("status", p.Status)

	raw, err := c.doRequest(ctx, http.MethodPost, "/"+accountID+"/ads", token, nil, form)
	if err != nil {
		return "", fmt.Errorf("creating ad: %w", err)
	}
	return parseID(raw)
}

// UpdateAd updates an ad's name and/or status. Empty fields are left alone.
func (c *Client) UpdateAd(ctx context.Context, token, adID, name, status string) error {
	form := url.Values{}
	if name != "" {
		form.Set("name", name)
	}
	if status != "" {
		form.Set("status", status)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/"+adID, token, nil, form); err != nil {
		return fmt.Errorf("updating ad: %w", err)
	}
	return nil
}

// Creatives fetches ad creatives for an account.
func (c *Client) Creatives(ctx context.Context, token, accountID string) ([]Creative, error) {
	params := url.Values{}
	params.Set("fields", "id,name,title,body,image_url")

	var env listEnvelope[Creative]
	if err := c.getList(ctx, "/"+accountID+"/adcreatives", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching creatives: %w", err)
	}
	return env.Data, nil
}

// CreateCreativeParams are the fields for a new creative.
type CreateCreativeParams struct {
	Name     string
	Title    string
	Body     string
	ImageURL string
	LinkURL  string
	PageID   string
}

// CreateCreative creates an ad creative and returns its id.
func (c *Client) CreateCreative(ctx context.Context, token, accountID string, p CreateCreativeParams) (string, error) {
	form := url.Values{}
	form.Set("name", p.Name)
	form.Set("title", p.Title)
	form.Set("body", p.Body)
	if p.ImageURL != "" {
		form.Set("image_url", p.ImageURL)
	}
	if p.LinkURL != "" {
		form.Set("link_url", p.LinkURL)
	}
	if p.PageID != "" {
		form.Set("object_story_spec", fmt.Sprintf(`{"page_id":"%s"}`, p.PageID))
	}

	raw, err := c.doRequest(ctx, http.MethodPost, "/"+accountID+"/adcreatives", token, nil, form)
	if err != nil {
		return "", fmt.Errorf("creating creative: %w", err)
	}
	return parseID(raw)
}

const insightFields = "date_start,date_stop,spend,impressions,clicks,ctr,cpc,cpm,reach,frequency"

// Insights fetches insights for a campaign, ad set, ad, or account.
func (c *Client) Insights(ctx context.Context, token, objectID string, q InsightsQuery) ([]Insight, error) {
	params := url.Values{}
	params.Set("fields", insightFields)
	params.Set("date_preset", DatePreset(q.TimeRange))
	params.Set("time_increment", "1")
	if q.Level != "" {
		params.Set("level", q.Level)
	}
	if q.Breakdown != "" {
		params.Set("breakdowns", q.Breakdown)
	}

	var env listEnvelope[Insight]
	if err := c.getList(ctx, "/"+objectID+"/insights", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching insights: %w", err)
	}
	return env.Data, nil
}

// TodayInsights fetches today's insights for an account. Used by the
// realtime monitor.
func (c *Client) TodayInsights(ctx context.Context, token, accountID string) ([]Insight, error) {
	params := url.Values{}
	params.Set("fields", insightFields)
	params.Set("date_preset", "today")

	var env listEnvelope[Insight]
	if err := c.getList(ctx, "/"+accountID+"/insights", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching today's insights: %w", err)
	}
	return env.Data, nil
}

// BudgetSchedules fetches high-demand budget schedules for a campaign.
func (c *Client) BudgetSchedules(ctx context.Context, token, campaignID string) ([]BudgetSchedule, error) {
	params := url.Values{}
	params.Set("fields", "id,budget_value,budget_value_type,time_start,time_end,schedule_status")

	var env listEnvelope[BudgetSchedule]
	if err := c.getList(ctx, "/"+campaignID+"/budget_schedules", token, params, &env); err != nil {
		return nil, fmt.Errorf("fetching budget schedules: %w", err)
	}
	return env.Data, nil
}

// AdLibrarySearch searches the public Ad Library archive.
func (c *Client) AdLibrarySearch(ctx context.Context, token, searchTerms, countries string) ([]ArchiveAd, error) {
	if countries == "" {
		countries = `["US"]`
	}
	params := url.Values{}
	params.Set("search_terms", searchTerms)
	params.Set("ad_reached_countries", countries)
	params.Set("fields", "id,page_name,ad_creative_bodies,ad_creative_link_titles,ad_delivery_start_time,ad_delivery_stop_time")

	var env listEnvelope[ArchiveAd]
	if err := c.getList(ctx, "/ads_archive", token, params, &env); err != nil {
		return nil, fmt.Errorf("searching ad library: %w", err)
	}
	return env.Data, nil
}

// LoginLink returns the Meta OAuth dialog URL the frontend sends the user
// to when connecting an ad account.
func (c *Client) LoginLink(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func parseID(raw []byte) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("parsing create response: %w", err)
	}
	return result.ID, nil
}
