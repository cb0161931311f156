package meta

import "fmt"

// Campaign status values accepted by the Graph API.
const (
	StatusActive   = "ACTIVE"
	StatusPaused   = "PAUSED"
	StatusArchived = "ARCHIVED"
)

// AdAccount represents a Meta ad account.
type AdAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountStatus int    `json:"account_status,omitempty"`
	Currency      string `json:"currency,omitempty"`
	TimezoneName  string `json:"timezone_name,omitempty"`
	BusinessName  string `json:"business_name,omitempty"`
}

// Campaign represents an ad campaign. The Graph API returns budget and
// metric fields as strings; they are kept as returned and coerced at
// formatting time.
type Campaign struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Objective      string `json:"objective,omitempty"`
	DailyBudget    string `json:"daily_budget,omitempty"`
	LifetimeBudget string `json:"lifetime_budget,omitempty"`
	Spend          string `json:"spend,omitempty"`
	Impressions    string `json:"impressions,omitempty"`
	Clicks         string `json:"clicks,omitempty"`
	CTR            string `json:"ctr,omitempty"`
	CPC            string `json:"cpc,omitempty"`
	CreatedTime    string `json:"created_time,omitempty"`
	UpdatedTime    string `json:"updated_time,omitempty"`
}

// AdSet represents an ad set inside a campaign.
type AdSet struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	CampaignID     string         `json:"campaign_id,omitempty"`
	DailyBudget    string         `json:"daily_budget,omitempty"`
	LifetimeBudget string         `json:"lifetime_budget,omitempty"`
	Targeting      map[string]any `json:"targeting,omitempty"`
	CreatedTime    string         `json:"created_time,omitempty"`
	UpdatedTime    string         `json:"updated_time,omitempty"`
}

// Ad represents a single ad.
type Ad struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	AdsetID     string         `json:"adset_id,omitempty"`
	Creative    map[string]any `json:"creative,omitempty"`
	CreatedTime string         `json:"created_time,omitempty"`
	UpdatedTime string         `json:"updated_time,omitempty"`
}

// Creative represents an ad creative.
type Creative struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Insight is a single insights row. All numeric fields arrive as strings
// from the Graph API.
type Insight struct {
	DateStart   string `json:"date_start"`
	DateStop    string `json:"date_stop"`
	Spend       string `json:"spend,omitempty"`
	Impressions string `json:"impressions,omitempty"`
	Clicks      string `json:"clicks,omitempty"`
	CTR         string `json:"ctr,omitempty"`
	CPC         string `json:"cpc,omitempty"`
	CPM         string `json:"cpm,omitempty"`
	Reach       string `json:"reach,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
}

// BudgetSchedule is a high-demand budget schedule attached to a campaign.
type BudgetSchedule struct {
	ID               string `json:"id"`
	BudgetValue      string `json:"budget_value,omitempty"`
	BudgetValueType  string `json:"budget_value_type,omitempty"`
	TimeStart        int64  `json:"time_start,omitempty"`
	TimeEnd          int64  `json:"time_end,omitempty"`
	ScheduleStatus   string `json:"schedule_status,omitempty"`
}

// ArchiveAd is a row from the public Ad Library archive.
type ArchiveAd struct {
	ID                     string   `json:"id"`
	PageName               string   `json:"page_name,omitempty"`
	AdCreativeBodies       []string `json:"ad_creative_bodies,omitempty"`
	AdCreativeLinkTitles   []string `json:"ad_creative_link_titles,omitempty"`
	AdDeliveryStartTime    string   `json:"ad_delivery_start_time,omitempty"`
	AdDeliveryStopTime     string   `json:"ad_delivery_stop_time,omitempty"`
}

// UserInfo is the profile behind an access token.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// InsightsQuery controls an insights fetch.
type InsightsQuery struct {
	TimeRange string // one of the accepted time-range tokens; "" means last_30d
	Level     string // campaign, adset, ad, account
	Breakdown string // optional breakdown dimension
}

// MetaError is an error returned by the Graph API. The upstream message
// passes through verbatim.
type MetaError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

func (e *MetaError) Error() string {
	return fmt.Sprintf("graph API error (code %d, %s): %s", e.Code, e.Type, e.Message)
}

// TimeRangeTokens is the fixed set of accepted coarse time ranges.
var TimeRangeTokens = []string{
	"today", "yesterday", "this_week", "last_week",
	"this_month", "last_month", "last_7d", "last_30d", "last_90d",
}

// DatePreset maps a coarse time-range token to the Graph API date_preset
// value. Unknown or empty tokens default to last_30d.
func DatePreset(token string) string {
	switch token {
	case "today", "yesterday", "this_month", "last_month", "last_7d", "last_30d", "last_90d":
		return token
	case "this_week":
		return "this_week_sun_today"
	case "last_week":
		return "last_week_sun_sat"
	default:
		return "last_30d"
	}
}
