package assistant

// Kind identifies one of the fixed ads-data operations a chat message can
// resolve to.
type Kind string

const (
	KindGetAdAccounts     Kind = "get_ad_accounts"
	KindGetAccountInfo    Kind = "get_account_info"
	KindGetCampaigns      Kind = "get_campaigns"
	KindGetCampaignDetail Kind = "get_campaign_details"
	KindCreateCampaign    Kind = "create_campaign"
	KindUpdateCampaign    Kind = "update_campaign"
	KindGetAdSets         Kind = "get_adsets"
	KindGetAdSetDetail    Kind = "get_adset_details"
	KindCreateAdSet       Kind = "create_adset"
	KindGetAds            Kind = "get_ads"
	KindGetAdDetail       Kind = "get_ad_details"
	KindCreateAd          Kind = "create_ad"
	KindUpdateAd          Kind = "update_ad"
	KindGetCreatives      Kind = "get_ad_creatives"
	KindCreateCreative    Kind = "create_ad_creative"
	KindGetInsights       Kind = "get_insights"
	KindGetBudgetSchedule Kind = "get_budget_schedule"
	KindGetAdLibrary      Kind = "get_ad_library"
	KindGetLoginLink      Kind = "get_login_link"
)

// Command is a classified, parameter-bound request to the ads boundary.
// Commands are built fresh per chat turn and discarded after dispatch.
type Command struct {
	Kind        Kind           `json:"kind"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description"`
}

// StringParam returns a string parameter, or "" when absent.
func (c *Command) StringParam(name string) string {
	if v, ok := c.Params[name].(string); ok {
		return v
	}
	return ""
}

// FloatParam returns a numeric parameter, or 0 when absent.
func (c *Command) FloatParam(name string) float64 {
	switch v := c.Params[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
