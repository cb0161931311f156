// Package advisor turns raw campaign metrics into optimization advice:
// plain-text recommendations, executable optimization strategies, and
// account-level performance rollups.
package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/adspilot/metads-assistant/internal/meta"
)

// Performance thresholds used across recommendations and strategies.
const (
	lowCTRThreshold    = 1.0
	highCPCThreshold   = 2.0
	lowReachThreshold  = 10000
	targetCPM          = 15.0
	adviseCTRThreshold = 1.5
	adviseSpendCents   = 2000
)

// Advisor generates and executes optimization advice for an ad account.
type Advisor struct {
	client *meta.Client
}

// New creates an advisor over the given Graph client.
func New(client *meta.Client) *Advisor {
	return &Advisor{client: client}
}

// Recommendations inspects campaign rows and flags weak CTR and heavy
// spenders. Amounts in campaign rows are in cents.
func Recommendations(campaigns []meta.Campaign) []string {
	var recommendations []string

	for _, campaign := range campaigns {
		ctr := meta.ParseMetric(campaign.CTR)
		spend := meta.ParseMetric(campaign.Spend)

		if ctr < adviseCTRThreshold {
			recommendations = append(recommendations, fmt.Sprintf(
				"Campaign %q has a low CTR of %.2f%%. Consider improving ad creative or targeting.",
				campaign.Name, ctr))
		}

		if spend > adviseSpendCents && campaign.Status == meta.StatusActive {
			recommendations = append(recommendations, fmt.Sprintf(
				"Campaign %q has spent $%.2f. Consider reviewing performance and adjusting budget if needed.",
				campaign.Name, spend/100))
		}
	}

	return recommendations
}

// AccountSummary is an account-level rollup across active campaigns.
type AccountSummary struct {
	AccountID        string    `json:"account_id"`
	TotalCampaigns   int       `json:"total_campaigns"`
	ActiveCampaigns  int       `json:"active_campaigns"`
	TotalSpend       float64   `json:"total_spend"`
	TotalImpressions int64     `json:"total_impressions"`
	TotalClicks      int64     `json:"total_clicks"`
	AverageCTR       float64   `json:"average_ctr"`
	AverageCPC       float64   `json:"average_cpc"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Summarize aggregates active-campaign metrics with zero-guarded averages.
func Summarize(accountID string, campaigns []meta.Campaign) AccountSummary {
	summary := AccountSummary{
		AccountID:      accountID,
		TotalCampaigns: len(campaigns),
		LastUpdated:    time.Now(),
	}

	for _, campaign := range campaigns {
		if campaign.Status != meta.StatusActive {
			continue
		}
		summary.ActiveCampaigns++
		summary.TotalSpend += meta.ParseMetric(campaign.Spend)
		summary.TotalImpressions += int64(meta.ParseMetric(campaign.Impressions))
		summary.TotalClicks += int64(meta.ParseMetric(campaign.Clicks))
	}

	if summary.TotalImpressions > 0 {
		summary.AverageCTR = float64(summary.TotalClicks) / float64(summary.TotalImpressions) * 100
	}
	if summary.TotalClicks > 0 {
		summary.AverageCPC = summary.TotalSpend / float64(summary.TotalClicks)
	}

	return summary
}

// AccountPerformance fetches the account's campaigns and summarizes them.
func (a *Advisor) AccountPerformance(ctx context.Context, token, accountID string) (*AccountSummary, error) {
	campaigns, err := a.client.Campaigns(ctx, token, accountID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(accountID, campaigns)
	return &summary, nil
}
