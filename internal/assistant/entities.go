package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

// Entities holds the values pulled out of a raw chat message. Extraction is
// best effort; a zero value means "not found" and the classifier decides
// whether that is fatal for the matched rule.
type Entities struct {
	AccountID  string
	CampaignID string
	AdsetID    string
	AdID       string
	CreativeID string
	TimeRange  string
	Amount     float64
	HasAmount  bool
	Status     string
}

var (
	accountIDRe  = regexp.MustCompile(`act_\d+`)
	campaignIDRe = regexp.MustCompile(`campaign[_\s](\d+)`)
	adsetIDRe    = regexp.MustCompile(`adset[_\s](\d+)`)
	adIDRe       = regexp.MustCompile(`\bad[_\s](\d+)`)
	creativeIDRe = regexp.MustCompile(`creative[_\s](\d+)`)
	amountRe     = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)`)
	idTokenRe    = regexp.MustCompile(`(act|campaign|adset|ad|creative)_\d+`)
)

// timeRangePhrases maps message wording to the fixed time-range tokens the
// insights operation accepts. Checked in order.
var timeRangePhrases = []struct {
	token   string
	phrases []string
}{
	{"yesterday", []string{"yesterday"}},
	{"today", []string{"today"}},
	{"last_7d", []string{"last 7", "past 7", "7 days"}},
	{"last_90d", []string{"last 90", "past 90", "90 days", "quarter"}},
	{"last_30d", []string{"last 30", "past 30", "30 days"}},
	{"this_week", []string{"this week"}},
	{"last_week", []string{"last week"}},
	{"this_month", []string{"this month"}},
	{"last_month", []string{"last month"}},
}

// ExtractEntities pulls identifiers, a time range, a monetary amount, and a
// target status out of free text. Matching is case-insensitive and purely
// shape-based; nothing is validated against the remote API.
func ExtractEntities(text string) Entities {
	lower := strings.ToLower(text)

	e := Entities{
		TimeRange: extractTimeRange(lower),
		Status:    extractStatus(lower),
	}

	e.AccountID = accountIDRe.FindString(lower)
	if m := campaignIDRe.FindStringSubmatch(lower); m != nil {
		e.CampaignID = m[1]
	}
	if m := adsetIDRe.FindStringSubmatch(lower); m != nil {
		e.AdsetID = m[1]
	}
	if m := adIDRe.FindStringSubmatch(lower); m != nil {
		e.AdID = m[1]
	}
	if m := creativeIDRe.FindStringSubmatch(lower); m != nil {
		e.CreativeID = m[1]
	}

	// Strip id tokens first so their digits are never mistaken for money.
	stripped := idTokenRe.ReplaceAllString(lower, "")
	if m := amountRe.FindStringSubmatch(stripped); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			e.Amount = amount
			e.HasAmount = true
		}
	}

	return e
}

func extractTimeRange(lower string) string {
	for _, tr := range timeRangePhrases {
		for _, phrase := range tr.phrases {
			if strings.Contains(lower, phrase) {
				return tr.token
			}
		}
	}
	return "last_30d"
}

func extractStatus(lower string) string {
	switch {
	case containsAny(lower, []string{"start", "run", "activate", "active", "resume", "enable", "turn on"}):
		return "ACTIVE"
	case containsAny(lower, []string{"pause", "stop", "disable", "turn off"}):
		return "PAUSED"
	case containsAny(lower, []string{"archive", "delete", "remove"}):
		return "ARCHIVED"
	default:
		return "PAUSED"
	}
}

// containsAny checks if text contains any of the keywords
func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
