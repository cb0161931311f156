package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities_IDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Entities
	}{
		{
			name: "account id keeps prefix",
			text: "Show campaigns for act_123456789",
			want: Entities{AccountID: "act_123456789"},
		},
		{
			name: "campaign id is digits only",
			text: "Show performance for campaign_123",
			want: Entities{CampaignID: "123"},
		},
		{
			name: "adset and ad ids",
			text: "Show ads for adset_555 and details for ad_777",
			want: Entities{AdsetID: "555", AdID: "777"},
		},
		{
			name: "creative id",
			text: "Use creative_987654 for the new ad",
			want: Entities{CreativeID: "987654"},
		},
		{
			name: "nothing recognizable",
			text: "hello there",
			want: Entities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.text)
			assert.Equal(t, tt.want.AccountID, got.AccountID)
			assert.Equal(t, tt.want.CampaignID, got.CampaignID)
			assert.Equal(t, tt.want.AdsetID, got.AdsetID)
			assert.Equal(t, tt.want.AdID, got.AdID)
			assert.Equal(t, tt.want.CreativeID, got.CreativeID)
		})
	}
}

func TestExtractEntities_Amount(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		amount    float64
		hasAmount bool
	}{
		{"dollar amount", "set budget to $100", 100, true},
		{"decimal amount", "raise budget to 49.99", 49.99, true},
		{"id digits are not money", "pause campaign campaign_456", 0, false},
		{"amount next to an id", "Update campaign campaign_456 budget to $100", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.text)
			assert.Equal(t, tt.hasAmount, got.HasAmount)
			assert.Equal(t, tt.amount, got.Amount)
		})
	}
}

func TestExtractEntities_TimeRange(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"show spend for today", "today"},
		{"how did we do yesterday", "yesterday"},
		{"insights for this week", "this_week"},
		{"insights for last week", "last_week"},
		{"spend this month", "this_month"},
		{"spend last month", "last_month"},
		{"last 7 days please", "last_7d"},
		{"past 30 days", "last_30d"},
		{"last 90 days", "last_90d"},
		{"no range mentioned", "last_30d"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEntities(tt.text).TimeRange)
		})
	}
}

func TestExtractEntities_Status(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"start the campaign", "ACTIVE"},
		{"resume campaign_1", "ACTIVE"},
		{"pause campaign_1", "PAUSED"},
		{"stop everything", "PAUSED"},
		{"archive campaign_1", "ARCHIVED"},
		{"delete that ad", "ARCHIVED"},
		{"campaign_1 budget", "PAUSED"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEntities(tt.text).Status)
		})
	}
}
