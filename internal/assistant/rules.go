package assistant

import (
	"fmt"
	"regexp"
	"strings"
)

// ClassifyError is a structured classification failure: a user-facing
// message plus example phrasings the user could try instead.
type ClassifyError struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

func (e *ClassifyError) Error() string {
	return e.Message
}

func missingField(field string, examples ...string) *ClassifyError {
	return &ClassifyError{
		Message:     fmt.Sprintf("I couldn't find %s in your message.", field),
		Suggestions: examples,
	}
}

// Rule pairs a predicate with a command builder. Rules are evaluated
// top-to-bottom and the first match wins, so slice order is part of the
// routing contract; ties between overlapping keyword sets are broken by
// position, never by specificity.
type Rule struct {
	Name  string
	Match func(lower string, e Entities) bool
	Build func(lower string, e Entities) (*Command, error)
}

var (
	quotedNameRe   = regexp.MustCompile(`["']([^"']+)["']`)
	calledNameRe   = regexp.MustCompile(`(?:called|named)\s+([a-z0-9][a-z0-9 ]*)`)
	adWordRe       = regexp.MustCompile(`\bads?\b`)
	adsetWordRe    = regexp.MustCompile(`\badsets?\b`)
	creativeWordRe = regexp.MustCompile(`\bcreatives?\b`)
	searchTermRe   = regexp.MustCompile(`(?:for|about)\s+(.+)$`)
)

func extractName(lower string) string {
	if m := quotedNameRe.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := calledNameRe.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// hasAdWord matches "ad"/"ads" as whole words so "ad accounts" and id
// tokens like adset_123 don't count.
func hasAdWord(lower string) bool {
	return adWordRe.MatchString(lower)
}

func hasAdsetWord(lower string) bool {
	return strings.Contains(lower, "ad set") || adsetWordRe.MatchString(lower) ||
		containsAny(lower, []string{"targeting", "audience"})
}

func hasCreativeWord(lower string) bool {
	return creativeWordRe.MatchString(lower)
}

var (
	showWords    = []string{"show", "list", "all", "my", "what", "get", "which"}
	detailWords  = []string{"details", "detail", "info", "information", "about", "tell me"}
	createWords  = []string{"create", "new", "make", "launch", "set up"}
	updateWords  = []string{"update", "change", "set ", "modify", "increase", "decrease", "raise", "lower", "pause", "resume", "stop", "activate", "archive", "budget"}
	insightWords = []string{"performance", "insight", "spend", "trend", "metric", "report", "how is", "how are", "results"}
)

// rules is the classification cascade. Each entry maps a keyword
// combination to a command builder; reordering entries changes routing
// behavior for messages that match more than one rule.
var rules = []Rule{
	{
		Name: "login_link",
		Match: func(lower string, e Entities) bool {
			return containsAny(lower, []string{"login link", "log in", "connect my", "connect meta", "connect facebook", "authorize"})
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetLoginLink,
				Params:      map[string]any{},
				Description: "Generate a Meta login link",
			}, nil
		},
	},
	{
		Name: "ad_library",
		Match: func(lower string, e Entities) bool {
			return containsAny(lower, []string{"ad library", "ads library", "competitor"})
		},
		Build: func(lower string, e Entities) (*Command, error) {
			terms := ""
			if m := searchTermRe.FindStringSubmatch(lower); m != nil {
				terms = strings.TrimSpace(m[1])
			}
			if terms == "" {
				return nil, missingField("a search term",
					"Search the ad library for running shoes",
					"Show me competitor ads about fitness apps")
			}
			return &Command{
				Kind:        KindGetAdLibrary,
				Params:      map[string]any{"search_terms": terms},
				Description: "Search the Meta Ad Library",
			}, nil
		},
	},
	{
		Name: "budget_schedule",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "budget schedule") ||
				(strings.Contains(lower, "schedule") && strings.Contains(lower, "budget"))
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.CampaignID == "" {
				return nil, missingField("a campaign id",
					"Show budget schedules for campaign_123456789")
			}
			return &Command{
				Kind:        KindGetBudgetSchedule,
				Params:      map[string]any{"campaign_id": e.CampaignID},
				Description: "Fetch budget schedules",
			}, nil
		},
	},
	{
		Name: "account_list",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "account") && containsAny(lower, showWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetAdAccounts,
				Params:      map[string]any{},
				Description: "List ad accounts",
			}, nil
		},
	},
	{
		Name: "account_details",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "account") && containsAny(lower, detailWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" {
				return nil, missingField("an account id",
					"Tell me about account act_123456789")
			}
			return &Command{
				Kind:        KindGetAccountInfo,
				Params:      map[string]any{"account_id": e.AccountID},
				Description: "Fetch ad account details",
			}, nil
		},
	},
	{
		Name: "account_fallback",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "account")
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetAdAccounts,
				Params:      map[string]any{},
				Description: "List ad accounts",
			}, nil
		},
	},
	{
		Name: "adset_create",
		Match: func(lower string, e Entities) bool {
			return hasAdsetWord(lower) && containsAny(lower, createWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" || e.CampaignID == "" {
				return nil, missingField("an account id and a campaign id",
					`Create an ad set called "US Audience" in act_123456789 for campaign_123456789`)
			}
			name := extractName(lower)
			if name == "" {
				return nil, missingField("an ad set name",
					`Create an ad set called "US Audience" in act_123456789 for campaign_123456789`)
			}
			params := map[string]any{
				"account_id":  e.AccountID,
				"campaign_id": e.CampaignID,
				"name":        name,
				"status":      "PAUSED",
			}
			if e.HasAmount {
				params["daily_budget"] = e.Amount
			}
			return &Command{
				Kind:        KindCreateAdSet,
				Params:      params,
				Description: "Create an ad set",
			}, nil
		},
	},
	{
		Name: "campaign_create",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "campaign") && containsAny(lower, createWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" {
				return nil, missingField("an account id",
					`Create a campaign called "Summer Sale" in act_123456789 with $50 daily budget`)
			}
			name := extractName(lower)
			if name == "" {
				return nil, missingField("a campaign name",
					`Create a campaign called "Summer Sale" in act_123456789 with $50 daily budget`)
			}
			params := map[string]any{
				"account_id": e.AccountID,
				"name":       name,
				"objective":  objectiveFor(lower),
				"status":     "PAUSED",
			}
			if e.HasAmount {
				params["daily_budget"] = e.Amount
			}
			return &Command{
				Kind:        KindCreateCampaign,
				Params:      params,
				Description: "Create a campaign",
			}, nil
		},
	},
	{
		Name: "campaign_update",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "campaign") && containsAny(lower, updateWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.CampaignID == "" {
				return nil, missingField("a campaign id",
					"Update campaign campaign_123456789 budget to $100",
					"Pause campaign campaign_123456789")
			}
			params := map[string]any{"campaign_id": e.CampaignID}
			if e.HasAmount {
				params["daily_budget"] = e.Amount
			} else {
				params["status"] = e.Status
			}
			return &Command{
				Kind:        KindUpdateCampaign,
				Params:      params,
				Description: "Update a campaign",
			}, nil
		},
	},
	{
		Name: "insights",
		Match: func(lower string, e Entities) bool {
			return containsAny(lower, insightWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			objectID, level := insightsTarget(e)
			if objectID == "" {
				return nil, missingField("a campaign, ad set, ad, or account id",
					"Show performance for campaign_123456789",
					"Show insights for act_123456789 over the last 7 days")
			}
			return &Command{
				Kind: KindGetInsights,
				Params: map[string]any{
					"object_id":  objectID,
					"time_range": e.TimeRange,
					"level":      level,
				},
				Description: "Fetch performance insights",
			}, nil
		},
	},
	{
		Name: "adset_details",
		Match: func(lower string, e Entities) bool {
			return hasAdsetWord(lower) && e.AdsetID != "" && containsAny(lower, detailWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetAdSetDetail,
				Params:      map[string]any{"adset_id": e.AdsetID},
				Description: "Fetch ad set details",
			}, nil
		},
	},
	{
		Name: "adset_list",
		Match: func(lower string, e Entities) bool {
			return hasAdsetWord(lower)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.CampaignID == "" {
				return nil, missingField("a campaign id",
					"Show ad sets for campaign_123456789")
			}
			return &Command{
				Kind:        KindGetAdSets,
				Params:      map[string]any{"campaign_id": e.CampaignID},
				Description: "List ad sets",
			}, nil
		},
	},
	{
		Name: "campaign_details",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "campaign") && e.CampaignID != "" && containsAny(lower, detailWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetCampaignDetail,
				Params:      map[string]any{"campaign_id": e.CampaignID},
				Description: "Fetch campaign details",
			}, nil
		},
	},
	{
		Name: "campaign_list",
		Match: func(lower string, e Entities) bool {
			return strings.Contains(lower, "campaign")
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" {
				return nil, missingField("an account id",
					"Show campaigns for act_123456789")
			}
			return &Command{
				Kind:        KindGetCampaigns,
				Params:      map[string]any{"account_id": e.AccountID},
				Description: "List campaigns",
			}, nil
		},
	},
	{
		Name: "creative_create",
		Match: func(lower string, e Entities) bool {
			return hasCreativeWord(lower) && containsAny(lower, createWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" {
				return nil, missingField("an account id",
					`Create a creative called "Sale Banner" in act_123456789`)
			}
			name := extractName(lower)
			if name == "" {
				return nil, missingField("a creative name",
					`Create a creative called "Sale Banner" in act_123456789`)
			}
			return &Command{
				Kind: KindCreateCreative,
				Params: map[string]any{
					"account_id": e.AccountID,
					"name":       name,
				},
				Description: "Create an ad creative",
			}, nil
		},
	},
	{
		Name: "creative_list",
		Match: func(lower string, e Entities) bool {
			return hasCreativeWord(lower)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" {
				return nil, missingField("an account id",
					"Show creatives for act_123456789")
			}
			return &Command{
				Kind:        KindGetCreatives,
				Params:      map[string]any{"account_id": e.AccountID},
				Description: "List ad creatives",
			}, nil
		},
	},
	{
		Name: "ad_create",
		Match: func(lower string, e Entities) bool {
			return hasAdWord(lower) && containsAny(lower, createWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AccountID == "" || e.AdsetID == "" {
				return nil, missingField("an account id and an ad set id",
					`Create an ad called "Hero Ad" in act_123456789 for adset_123456789 using creative_987654`)
			}
			name := extractName(lower)
			if name == "" {
				return nil, missingField("an ad name",
					`Create an ad called "Hero Ad" in act_123456789 for adset_123456789 using creative_987654`)
			}
			params := map[string]any{
				"account_id": e.AccountID,
				"adset_id":   e.AdsetID,
				"name":       name,
				"status":     "PAUSED",
			}
			if e.CreativeID != "" {
				params["creative_id"] = e.CreativeID
			}
			return &Command{
				Kind:        KindCreateAd,
				Params:      params,
				Description: "Create an ad",
			}, nil
		},
	},
	{
		Name: "ad_update",
		Match: func(lower string, e Entities) bool {
			return hasAdWord(lower) && containsAny(lower, updateWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AdID == "" {
				return nil, missingField("an ad id",
					"Pause ad ad_123456789")
			}
			return &Command{
				Kind: KindUpdateAd,
				Params: map[string]any{
					"ad_id":  e.AdID,
					"status": e.Status,
				},
				Description: "Update an ad",
			}, nil
		},
	},
	{
		Name: "ad_details",
		Match: func(lower string, e Entities) bool {
			return hasAdWord(lower) && e.AdID != "" && containsAny(lower, detailWords)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			return &Command{
				Kind:        KindGetAdDetail,
				Params:      map[string]any{"ad_id": e.AdID},
				Description: "Fetch ad details",
			}, nil
		},
	},
	{
		Name: "ad_list",
		Match: func(lower string, e Entities) bool {
			return hasAdWord(lower)
		},
		Build: func(lower string, e Entities) (*Command, error) {
			if e.AdsetID == "" {
				return nil, missingField("an ad set id",
					"Show ads for adset_123456789")
			}
			return &Command{
				Kind:        KindGetAds,
				Params:      map[string]any{"adset_id": e.AdsetID},
				Description: "List ads",
			}, nil
		},
	},
}

func objectiveFor(lower string) string {
	switch {
	case strings.Contains(lower, "awareness"):
		return "BRAND_AWARENESS"
	case strings.Contains(lower, "traffic"):
		return "LINK_CLICKS"
	case strings.Contains(lower, "lead"):
		return "LEAD_GENERATION"
	default:
		return "CONVERSIONS"
	}
}

// insightsTarget picks the most specific id present and its insights level.
func insightsTarget(e Entities) (objectID, level string) {
	switch {
	case e.AdID != "":
		return e.AdID, "ad"
	case e.AdsetID != "":
		return e.AdsetID, "adset"
	case e.CampaignID != "":
		return e.CampaignID, "campaign"
	case e.AccountID != "":
		return e.AccountID, "account"
	default:
		return "", ""
	}
}
