package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/adspilot/metads-assistant/internal/meta"
)

// StrategyRules are the thresholds a strategy was derived from.
type StrategyRules struct {
	MinCTR          float64 `json:"min_ctr"`
	MaxCPC          float64 `json:"max_cpc"`
	TargetCPM       float64 `json:"target_cpm"`
	BudgetThreshold float64 `json:"budget_threshold"`
}

// StrategyActions flag which optimizations apply to a campaign.
type StrategyActions struct {
	PauseLowPerforming bool `json:"pause_low_performing"`
	IncreaseBudget     bool `json:"increase_budget"`
	AdjustBidding      bool `json:"adjust_bidding"`
	ExpandAudience     bool `json:"expand_audience"`
}

// PerformanceMetrics are the recent numbers a strategy was built on.
type PerformanceMetrics struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
}

// Strategy is a per-campaign optimization plan derived from recent
// insights. Executing it applies the flagged actions through the Graph
// API.
type Strategy struct {
	CampaignID   string             `json:"campaign_id"`
	CampaignName string             `json:"campaign_name"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	Rules        StrategyRules      `json:"rules"`
	Actions      StrategyActions    `json:"actions"`
	Metrics      PerformanceMetrics `json:"performance_metrics"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// AnalyzeCampaign derives an optimization strategy for one campaign from
// a recent insight row.
func AnalyzeCampaign(campaign meta.Campaign, insight meta.Insight) Strategy {
	metrics := PerformanceMetrics{
		Spend:       meta.ParseMetric(insight.Spend),
		Impressions: int64(meta.ParseMetric(insight.Impressions)),
		Clicks:      int64(meta.ParseMetric(insight.Clicks)),
		CTR:         meta.ParseMetric(insight.CTR),
		CPC:         meta.ParseMetric(insight.CPC),
		CPM:         meta.ParseMetric(insight.CPM),
	}

	now := time.Now()
	return Strategy{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Type:         "performance_optimization",
		Status:       "active",
		Rules: StrategyRules{
			MinCTR:          lowCTRThreshold,
			MaxCPC:          highCPCThreshold,
			TargetCPM:       targetCPM,
			BudgetThreshold: meta.ParseMetric(campaign.DailyBudget) * 0.8,
		},
		Actions: StrategyActions{
			PauseLowPerforming: metrics.CTR < lowCTRThreshold,
			IncreaseBudget:     metrics.CPC < 1.5 && metrics.CTR > 2.0,
			AdjustBidding:      metrics.CPC > highCPCThreshold,
			ExpandAudience:     meta.ParseMetric(insight.Reach) < lowReachThreshold,
		},
		Metrics:   metrics,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Strategies derives optimization strategies for every active campaign in
// the account, from its last week of insights.
func (a *Advisor) Strategies(ctx context.Context, token, accountID string) ([]Strategy, error) {
	campaigns, err := a.client.Campaigns(ctx, token, accountID)
	if err != nil {
		return nil, err
	}

	var strategies []Strategy
	for _, campaign := range campaigns {
		if campaign.Status != meta.StatusActive {
			continue
		}

		insights, err := a.client.Insights(ctx, token, campaign.ID, meta.InsightsQuery{TimeRange: "last_7d"})
		if err != nil || len(insights) == 0 {
			continue
		}

		strategies = append(strategies, AnalyzeCampaign(campaign, insights[0]))
	}

	return strategies, nil
}

// Execute applies a strategy's flagged actions: pausing a low performer
// and raising budget by 20% over recent spend.
func (a *Advisor) Execute(ctx context.Context, token string, strategy Strategy) error {
	if strategy.CampaignID == "" {
		return fmt.Errorf("strategy has no campaign id")
	}

	if strategy.Actions.PauseLowPerforming {
		if err := a.client.UpdateCampaignStatus(ctx, token, strategy.CampaignID, meta.StatusPaused); err != nil {
			return fmt.Errorf("pausing campaign %s: %w", strategy.CampaignID, err)
		}
	}

	if strategy.Actions.IncreaseBudget {
		newBudgetCents := int64(strategy.Metrics.Spend * 1.2 * 100)
		if err := a.client.UpdateCampaignBudget(ctx, token, strategy.CampaignID, newBudgetCents); err != nil {
			return fmt.Errorf("raising budget for campaign %s: %w", strategy.CampaignID, err)
		}
	}

	return nil
}
