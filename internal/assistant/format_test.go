package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightRecords() []Record {
	return []Record{
		{"date_start": "2024-01-01", "spend": "100", "impressions": "5000", "clicks": "150"},
	}
}

func campaignRecords() []Record {
	return []Record{
		{"id": "111", "name": "Summer Sale", "status": "ACTIVE", "ctr": "2.56", "spend": "2450", "impressions": "125000"},
		{"id": "222", "name": "Brand Awareness", "status": "PAUSED", "ctr": "1.35", "spend": "1890", "impressions": "89000"},
	}
}

func TestFormatInsightsScenario(t *testing.T) {
	text := formatInsights(insightRecords(), "last_30d")

	assert.Contains(t, text, "$100.00")
	assert.Contains(t, text, "CTR 3.00%")
	assert.Contains(t, text, "CPC $0.67")
}

func TestFormatInsightsZeroGuards(t *testing.T) {
	records := []Record{
		{"date_start": "2024-01-01", "spend": "0", "impressions": "0", "clicks": "0"},
	}

	text := formatInsights(records, "last_30d")

	assert.Contains(t, text, "CTR 0.00%")
	assert.Contains(t, text, "CPC $0.00")
	assert.Contains(t, text, "CPM $0.00")
}

func TestFormatInsightsEmpty(t *testing.T) {
	assert.Equal(t, "No performance data for that period.", formatInsights(nil, "last_30d"))
}

func TestFormatCampaignsSpendInDollars(t *testing.T) {
	text := formatCampaigns(campaignRecords())

	assert.Contains(t, text, "I found 2 campaign(s)")
	assert.Contains(t, text, "Summer Sale")
	assert.Contains(t, text, "$24.50")
	assert.Contains(t, text, "CTR: 2.56%")
}

func TestInsightsChartInvariant(t *testing.T) {
	records := []Record{
		{"date_start": "2024-01-01", "spend": "100", "impressions": "5000", "clicks": "150"},
		{"date_start": "2024-01-02", "spend": "120", "impressions": "6000"},
		{"date_start": "2024-01-03"},
	}

	chart := insightsChart(records)

	require.NotNil(t, chart)
	assert.Equal(t, ChartLine, chart.Kind)
	require.Len(t, chart.Labels, 3)
	for _, series := range chart.Series {
		assert.Len(t, series.Values, len(chart.Labels))
	}
	// Missing fields coerce to zero, not NaN
	assert.Equal(t, 0.0, chart.Series[2].Values[1], "clicks absent on day two")
	assert.Equal(t, 0.0, chart.Series[0].Values[2], "spend absent on day three")
}

func TestCampaignChartKeywords(t *testing.T) {
	records := campaignRecords()

	bar := campaignChart(records, "which campaigns have the best ctr?")
	require.NotNil(t, bar)
	assert.Equal(t, ChartBar, bar.Kind)
	assert.Equal(t, []string{"Summer Sale", "Brand Awareness"}, bar.Labels)
	require.Len(t, bar.Series, 1)
	assert.Equal(t, []float64{2.56, 1.35}, bar.Series[0].Values)

	doughnut := campaignChart(records, "show me impressions by campaign")
	require.NotNil(t, doughnut)
	assert.Equal(t, ChartDoughnut, doughnut.Kind)
	assert.Equal(t, []float64{125000, 89000}, doughnut.Series[0].Values)

	assert.Nil(t, campaignChart(records, "show me my campaigns"), "no metric keyword means no chart")
	assert.Nil(t, campaignChart(nil, "best ctr"), "no records means no chart")
}

func TestFormatDispatchedInsights(t *testing.T) {
	cmd := &Command{Kind: KindGetInsights, Params: map[string]any{"time_range": "last_30d"}}
	result := &DispatchResult{Records: insightRecords()}

	text, chart := Format(cmd, result, "show performance for campaign_123")

	assert.Contains(t, text, "$100.00")
	require.NotNil(t, chart)
	assert.Equal(t, ChartLine, chart.Kind)
}

func TestFormatEmptyLists(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindGetAdAccounts, "No ad accounts found."},
		{KindGetCampaigns, "No campaigns found for that account."},
		{KindGetInsights, "No performance data for that period."},
		{KindGetBudgetSchedule, "No budget schedules found for that campaign."},
	}

	for _, tt := range tests {
		cmd := &Command{Kind: tt.kind, Params: map[string]any{}}
		text, chart := Format(cmd, &DispatchResult{}, "")
		assert.Equal(t, tt.want, text)
		assert.Nil(t, chart)
	}
}

func TestFormatLoginLink(t *testing.T) {
	cmd := &Command{Kind: KindGetLoginLink, Params: map[string]any{}}
	text, _ := Format(cmd, &DispatchResult{Link: "https://www.facebook.com/v3.2/dialog/oauth?x=1"}, "")

	assert.Contains(t, text, "https://www.facebook.com")
}

func TestFormatUpdateCampaign(t *testing.T) {
	cmd := &Command{Kind: KindUpdateCampaign, Params: map[string]any{"campaign_id": "456", "daily_budget": 100.0}}
	text, _ := Format(cmd, &DispatchResult{ID: "456"}, "")
	assert.Contains(t, text, "$100.00")

	cmd = &Command{Kind: KindUpdateCampaign, Params: map[string]any{"campaign_id": "456", "status": "PAUSED"}}
	text, _ = Format(cmd, &DispatchResult{ID: "456"}, "")
	assert.Contains(t, text, "PAUSED")
}
