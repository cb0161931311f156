package assistant

import (
	"fmt"
	"strings"
)

// Format turns a dispatched result into response text and, where a
// template applies, a chart. The original message steers chart selection
// for campaign lists.
func Format(cmd *Command, result *DispatchResult, originalText string) (string, *ChartSeries) {
	lower := strings.ToLower(originalText)

	switch cmd.Kind {
	case KindGetAdAccounts:
		return formatAccounts(result.Records), nil

	case KindGetAccountInfo:
		if len(result.Records) == 0 {
			return "No data found for that account.", nil
		}
		rec := result.Records[0]
		return fmt.Sprintf("Account %s (%s): currency %s, timezone %s.",
			rec["name"], rec["id"], rec["currency"], rec["timezone_name"]), nil

	case KindGetCampaigns:
		return formatCampaigns(result.Records), campaignChart(result.Records, lower)

	case KindGetCampaignDetail:
		if len(result.Records) == 0 {
			return "No data found for that campaign.", nil
		}
		rec := result.Records[0]
		return fmt.Sprintf("Campaign %s (%s) is %s. Objective: %s. Daily budget: $%.2f. Spend: $%.2f. CTR: %.2f%%.",
			rec["name"], rec["id"], rec["status"], rec["objective"],
			toFloat(rec["daily_budget"])/100, toFloat(rec["spend"])/100, toFloat(rec["ctr"])), nil

	case KindCreateCampaign:
		return fmt.Sprintf("Created campaign %q with id %s. It starts paused so you can review it first.",
			cmd.StringParam("name"), result.ID), nil

	case KindUpdateCampaign:
		if budget := cmd.FloatParam("daily_budget"); budget > 0 {
			return fmt.Sprintf("Updated campaign %s daily budget to $%.2f.", result.ID, budget), nil
		}
		return fmt.Sprintf("Set campaign %s to %s.", result.ID, cmd.StringParam("status")), nil

	case KindGetAdSets:
		return formatNamedList(result.Records, "ad set"), nil

	case KindGetAdSetDetail:
		if len(result.Records) == 0 {
			return "No data found for that ad set.", nil
		}
		rec := result.Records[0]
		return fmt.Sprintf("Ad set %s (%s) is %s. Daily budget: $%.2f.",
			rec["name"], rec["id"], rec["status"], toFloat(rec["daily_budget"])/100), nil

	case KindCreateAdSet:
		return fmt.Sprintf("Created ad set %q with id %s.", cmd.StringParam("name"), result.ID), nil

	case KindGetAds:
		return formatNamedList(result.Records, "ad"), nil

	case KindGetAdDetail:
		if len(result.Records) == 0 {
			return "No data found for that ad.", nil
		}
		rec := result.Records[0]
		return fmt.Sprintf("Ad %s (%s) is %s.", rec["name"], rec["id"], rec["status"]), nil

	case KindCreateAd:
		return fmt.Sprintf("Created ad %q with id %s.", cmd.StringParam("name"), result.ID), nil

	case KindUpdateAd:
		return fmt.Sprintf("Set ad %s to %s.", result.ID, cmd.StringParam("status")), nil

	case KindGetCreatives:
		return formatNamedList(result.Records, "creative"), nil

	case KindCreateCreative:
		return fmt.Sprintf("Created creative %q with id %s.", cmd.StringParam("name"), result.ID), nil

	case KindGetInsights:
		return formatInsights(result.Records, cmd.StringParam("time_range")), insightsChart(result.Records)

	case KindGetBudgetSchedule:
		return formatBudgetSchedules(result.Records), nil

	case KindGetAdLibrary:
		return formatArchive(result.Records), nil

	case KindGetLoginLink:
		return fmt.Sprintf("Here's your Meta login link: %s", result.Link), nil

	default:
		return "Done.", nil
	}
}

func formatAccounts(records []Record) string {
	if len(records) == 0 {
		return "No ad accounts found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I found %d ad account(s):\n", len(records)))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("• %s (%s) - %s\n", rec["name"], rec["id"], rec["currency"]))
	}
	return sb.String()
}

func formatCampaigns(records []Record) string {
	if len(records) == 0 {
		return "No campaigns found for that account."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I found %d campaign(s):\n", len(records)))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("• %s - %s - CTR: %.2f%% - Spend: $%.2f\n",
			rec["name"], rec["status"], toFloat(rec["ctr"]), toFloat(rec["spend"])/100))
	}
	return sb.String()
}

func formatNamedList(records []Record, noun string) string {
	if len(records) == 0 {
		return fmt.Sprintf("No %ss found.", noun)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I found %d %s(s):\n", len(records), noun))
	for _, rec := range records {
		status := ""
		if s, ok := rec["status"].(string); ok && s != "" {
			status = " - " + s
		}
		sb.WriteString(fmt.Sprintf("• %s (%s)%s\n", rec["name"], rec["id"], status))
	}
	return sb.String()
}

// formatInsights sums the daily rows and derives CTR, CPC, and CPM. Zero
// impressions or clicks yield zero ratios, never a division error.
func formatInsights(records []Record, timeRange string) string {
	if len(records) == 0 {
		return "No performance data for that period."
	}

	var spend, impressions, clicks, reach float64
	for _, rec := range records {
		spend += toFloat(rec["spend"])
		impressions += toFloat(rec["impressions"])
		clicks += toFloat(rec["clicks"])
		reach += toFloat(rec["reach"])
	}

	ctr := 0.0
	if impressions > 0 {
		ctr = clicks / impressions * 100
	}
	cpc := 0.0
	if clicks > 0 {
		cpc = spend / clicks
	}
	cpm := 0.0
	if impressions > 0 {
		cpm = spend / impressions * 1000
	}

	return fmt.Sprintf(
		"Performance (%s): Total spend $%.2f, Impressions %.0f, Clicks %.0f, Reach %.0f, CTR %.2f%%, CPC $%.2f, CPM $%.2f.",
		timeRange, spend, impressions, clicks, reach, ctr, cpc, cpm)
}

func formatBudgetSchedules(records []Record) string {
	if len(records) == 0 {
		return "No budget schedules found for that campaign."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I found %d budget schedule(s):\n", len(records)))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("• %s: %s %s (%s)\n",
			rec["id"], rec["budget_value"], rec["budget_value_type"], rec["schedule_status"]))
	}
	return sb.String()
}

func formatArchive(records []Record) string {
	if len(records) == 0 {
		return "No ads found in the Ad Library for that search."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I found %d ad(s) in the Ad Library:\n", len(records)))
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("• %s (started %s)\n", rec["page_name"], rec["ad_delivery_start_time"]))
	}
	return sb.String()
}
