package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/pkg/httputil"
	"github.com/adspilot/metads-assistant/internal/storage"
)

// ValidateMetaToken checks whether a Meta access token still works.
func (h *Handlers) ValidateMetaToken(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	httputil.OK(w, map[string]bool{"valid": h.client.ValidateToken(r.Context(), token)})
}

// GetMetaUserInfo returns the Meta profile behind the access token.
func (h *Handlers) GetMetaUserInfo(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	info, err := h.client.UserInfo(r.Context(), token)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, info)
}

// GetAdAccounts lists the ad accounts the token can access.
func (h *Handlers) GetAdAccounts(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	accounts, err := h.client.AdAccounts(r.Context(), token)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"accounts": accounts})
}

// GetCampaigns lists campaigns for an account. Results are cached briefly
// when Redis is configured.
func (h *Handlers) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	cacheKey := storage.CacheKey(accountID, "campaigns")
	if h.cache != nil {
		var cached []meta.Campaign
		if hit, err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil && hit {
			httputil.OK(w, map[string]any{"campaigns": cached, "cached": true})
			return
		}
	}

	campaigns, err := h.client.Campaigns(r.Context(), token, accountID)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, campaigns)
	}
	httputil.OK(w, map[string]any{"campaigns": campaigns})
}

// GetCampaignDetails returns one campaign with budget fields.
func (h *Handlers) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	campaign, err := h.client.CampaignDetails(r.Context(), token, chi.URLParam(r, "campaignID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, campaign)
}

type createCampaignRequest struct {
	AccountID   string  `json:"account_id"`
	Name        string  `json:"name"`
	Objective   string  `json:"objective"`
	Status      string  `json:"status"`
	DailyBudget float64 `json:"daily_budget"`
}

// CreateCampaign creates a campaign. The daily budget arrives in dollars
// and goes to the Graph API in cents.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req createCampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.Name == "" {
		httputil.BadRequest(w, "account_id and name are required")
		return
	}
	if req.Status == "" {
		req.Status = meta.StatusPaused
	}

	id, err := h.client.CreateCampaign(r.Context(), token, req.AccountID, meta.CreateCampaignParams{
		Name:             req.Name,
		Objective:        req.Objective,
		Status:           req.Status,
		DailyBudgetCents: int64(req.DailyBudget * 100),
	})
	if err != nil {
		writeGraphError(w, err)
		return
	}
	h.invalidateCampaigns(r, req.AccountID)
	httputil.Created(w, map[string]string{"id": id})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateCampaignStatus pauses, resumes, or archives a campaign.
func (h *Handlers) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Status != meta.StatusActive && req.Status != meta.StatusPaused && req.Status != meta.StatusArchived {
		httputil.BadRequest(w, "status must be ACTIVE, PAUSED, or ARCHIVED")
		return
	}

	campaignID := chi.URLParam(r, "campaignID")
	if err := h.client.UpdateCampaignStatus(r.Context(), token, campaignID, req.Status); err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"id": campaignID, "status": req.Status})
}

type updateBudgetRequest struct {
	DailyBudget float64 `json:"daily_budget"`
}

// UpdateCampaignBudget sets a campaign's daily budget, given in dollars.
func (h *Handlers) UpdateCampaignBudget(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req updateBudgetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.DailyBudget <= 0 {
		httputil.BadRequest(w, "daily_budget must be positive")
		return
	}

	campaignID := chi.URLParam(r, "campaignID")
	if err := h.client.UpdateCampaignBudget(r.Context(), token, campaignID, int64(req.DailyBudget*100)); err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"id": campaignID, "daily_budget": req.DailyBudget})
}

// GetInsights returns performance rows for any ads object.
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	objectID := chi.URLParam(r, "objectID")
	query := meta.InsightsQuery{
		TimeRange: r.URL.Query().Get("time_range"),
		Level:     r.URL.Query().Get("level"),
		Breakdown: r.URL.Query().Get("breakdown"),
	}

	cacheKey := storage.CacheKey(objectID, "insights:"+query.TimeRange+":"+query.Level)
	if h.cache != nil {
		var cached []meta.Insight
		if hit, err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil && hit {
			httputil.OK(w, map[string]any{"insights": cached, "cached": true})
			return
		}
	}

	insights, err := h.client.Insights(r.Context(), token, objectID, query)
	if err != nil {
		writeGraphError(w, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, insights)
	}
	httputil.OK(w, map[string]any{"insights": insights})
}

// GetAdSets lists ad sets under a campaign.
func (h *Handlers) GetAdSets(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	adsets, err := h.client.AdSets(r.Context(), token, chi.URLParam(r, "campaignID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ad_sets": adsets})
}

type createAdSetRequest struct {
	AccountID   string         `json:"account_id"`
	CampaignID  string         `json:"campaign_id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	DailyBudget float64        `json:"daily_budget"`
	Targeting   map[string]any `json:"targeting"`
}

// CreateAdSet creates an ad set under a campaign.
func (h *Handlers) CreateAdSet(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req createAdSetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.CampaignID == "" || req.Name == "" {
		httputil.BadRequest(w, "account_id, campaign_id, and name are required")
		return
	}
	if req.Status == "" {
		req.Status = meta.StatusPaused
	}

	targeting := ""
	if len(req.Targeting) > 0 {
		raw, err := json.Marshal(req.Targeting)
		if err != nil {
			httputil.BadRequest(w, "targeting is not serializable")
			return
		}
		targeting = string(raw)
	}

	id, err := h.client.CreateAdSet(r.Context(), token, req.AccountID, meta.CreateAdSetParams{
		Name:             req.Name,
		CampaignID:       req.CampaignID,
		Status:           req.Status,
		DailyBudgetCents: int64(req.DailyBudget * 100),
		Targeting:        targeting,
	})
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"id": id})
}

// GetAds lists ads under an ad set.
func (h *Handlers) GetAds(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	ads, err := h.client.Ads(r.Context(), token, chi.URLParam(r, "adsetID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ads": ads})
}

type createAdRequest struct {
	AccountID  string `json:"account_id"`
	AdsetID    string `json:"adset_id"`
	CreativeID string `json:"creative_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// CreateAd creates an ad inside an ad set.
func (h *Handlers) CreateAd(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req createAdRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.AdsetID == "" || req.Name == "" {
		httputil.BadRequest(w, "account_id, adset_id, and name are required")
		return
	}
	if req.Status == "" {
		req.Status = meta.StatusPaused
	}

	id, err := h.client.CreateAd(r.Context(), token, req.AccountID, meta.CreateAdParams{
		Name:       req.Name,
		AdsetID:    req.AdsetID,
		CreativeID: req.CreativeID,
		Status:     req.Status,
	})
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"id": id})
}

type updateAdRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// UpdateAd renames an ad or changes its status.
func (h *Handlers) UpdateAd(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req updateAdRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	adID := chi.URLParam(r, "adID")
	if err := h.client.UpdateAd(r.Context(), token, adID, req.Name, req.Status); err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"id": adID})
}

// GetCreatives lists ad creatives for an account.
func (h *Handlers) GetCreatives(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	creatives, err := h.client.Creatives(r.Context(), token, chi.URLParam(r, "accountID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"creatives": creatives})
}

type createCreativeRequest struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImageURL  string `json:"image_url"`
	LinkURL   string `json:"link_url"`
	PageID    string `json:"page_id"`
}

// CreateCreative creates an ad creative.
func (h *Handlers) CreateCreative(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var req createCreativeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.Name == "" {
		httputil.BadRequest(w, "account_id and name are required")
		return
	}

	id, err := h.client.CreateCreative(r.Context(), token, req.AccountID, meta.CreateCreativeParams{
		Name:     req.Name,
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		PageID:   req.PageID,
	})
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"id": id})
}

// GetBudgetSchedules lists scheduled budget changes for a campaign.
func (h *Handlers) GetBudgetSchedules(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	schedules, err := h.client.BudgetSchedules(r.Context(), token, chi.URLParam(r, "campaignID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"budget_schedules": schedules})
}

// SearchAdLibrary queries the public ad archive.
func (h *Handlers) SearchAdLibrary(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	terms := r.URL.Query().Get("search_terms")
	if terms == "" {
		httputil.BadRequest(w, "search_terms is required")
		return
	}

	ads, err := h.client.AdLibrarySearch(r.Context(), token, terms, r.URL.Query().Get("countries"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ads": ads})
}

// GetLoginLink returns the Meta OAuth dialog URL with a fresh state.
func (h *Handlers) GetLoginLink(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	httputil.OK(w, map[string]string{
		"login_url": h.client.LoginLink(state),
		"state":     state,
	})
}

type connectMetaRequest struct {
	AccessToken string `json:"access_token"`
	MetaUserID  string `json:"meta_user_id"`
}

// ConnectMetaAccount validates a Meta access token and stores it on the
// user's account for future requests.
func (h *Handlers) ConnectMetaAccount(w http.ResponseWriter, r *http.Request) {
	var req connectMetaRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" {
		httputil.BadRequest(w, "access_token is required")
		return
	}
	if !h.client.ValidateToken(r.Context(), req.AccessToken) {
		httputil.BadRequest(w, "access token is not valid")
		return
	}

	if req.MetaUserID == "" {
		if info, err := h.client.UserInfo(r.Context(), req.AccessToken); err == nil {
			req.MetaUserID = info.ID
		}
	}

	user := auth.CurrentUser(r.Context())
	if err := h.authSvc.StoreMetaCredentials(r.Context(), user.ID, req.AccessToken, req.MetaUserID); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"message": "Meta account connected"})
}

// GetRealtimeInsights starts (or reuses) a poller for the account and
// returns its latest snapshot.
func (h *Handlers) GetRealtimeInsights(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	// Pollers outlive the request that started them.
	collector := h.monitor.Watch(context.Background(), token, accountID)
	if collector.GetLastFetchTime().IsZero() {
		collector.FetchNow(r.Context())
	}
	httputil.OK(w, map[string]any{
		"account_id": accountID,
		"summary":    collector.GetLatestSummary(),
		"campaigns":  collector.GetLatestCampaigns(),
		"insights":   collector.GetLatestInsights(),
		"last_fetch": collector.GetLastFetchTime(),
		"is_running": collector.IsRunning(),
	})
}

// GetStrategies generates optimization strategies for active campaigns.
func (h *Handlers) GetStrategies(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	strategies, err := h.advisor.Strategies(r.Context(), token, chi.URLParam(r, "accountID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"strategies": strategies})
}

// ExecuteStrategy applies a strategy's actions to its campaign.
func (h *Handlers) ExecuteStrategy(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	var strategy advisor.Strategy
	if !httputil.Decode(w, r, &strategy) {
		return
	}

	if err := h.advisor.Execute(r.Context(), token, strategy); err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"executed": true, "campaign_id": strategy.CampaignID})
}

// GetAccountPerformance summarizes active campaign totals for an account.
func (h *Handlers) GetAccountPerformance(w http.ResponseWriter, r *http.Request) {
	token, ok := requireMetaToken(w, r)
	if !ok {
		return
	}
	summary, err := h.advisor.AccountPerformance(r.Context(), token, chi.URLParam(r, "accountID"))
	if err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.OK(w, summary)
}

func (h *Handlers) invalidateCampaigns(r *http.Request, accountID string) {
	if h.cache == nil || accountID == "" {
		return
	}
	_ = h.cache.Delete(r.Context(), storage.CacheKey(accountID, "campaigns"))
}
