package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/pkg/logger"
)

// Record is one row of a dispatched result, in the loose shape the
// formatter consumes. Absent or non-numeric fields coerce to zero there.
type Record map[string]any

// DispatchResult carries the payload of an executed command. List reads
// fill Records; creates fill ID; the login link fills Link. Campaign
// lists additionally keep the typed rows for the advisor.
type DispatchResult struct {
	Records   []Record
	Campaigns []meta.Campaign
	ID        string
	Link      string
}

// Dispatcher executes classified commands against the Graph API. Each
// dispatch is a single request/response exchange; mutations apply exactly
// the remote change requested, with no retry and no local compensation.
type Dispatcher struct {
	client *meta.Client
}

// NewDispatcher creates a dispatcher over the given Graph client.
func NewDispatcher(client *meta.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Dispatch runs a command with the user's access token. Remote failures
// come back as-is with the upstream message attached.
func (d *Dispatcher) Dispatch(ctx context.Context, token string, cmd *Command) (*DispatchResult, error) {
	logger.Debug("dispatching command", "kind", string(cmd.Kind))

	switch cmd.Kind {
	case KindGetAdAccounts:
		accounts, err := d.client.AdAccounts(ctx, token)
		if err != nil {
			return nil, err
		}
		return listResult(accounts)

	case KindGetAccountInfo:
		account, err := d.client.AccountInfo(ctx, token, cmd.StringParam("account_id"))
		if err != nil {
			return nil, err
		}
		return singleResult(account)

	case KindGetCampaigns:
		campaigns, err := d.client.Campaigns(ctx, token, cmd.StringParam("account_id"))
		if err != nil {
			return nil, err
		}
		result, err := listResult(campaigns)
		if err != nil {
			return nil, err
		}
		result.Campaigns = campaigns
		return result, nil

	case KindGetCampaignDetail:
		campaign, err := d.client.CampaignDetails(ctx, token, cmd.StringParam("campaign_id"))
		if err != nil {
			return nil, err
		}
		return singleResult(campaign)

	case KindCreateCampaign:
		id, err := d.client.CreateCampaign(ctx, token, cmd.StringParam("account_id"), meta.CreateCampaignParams{
			Name:             cmd.StringParam("name"),
			Objective:        cmd.StringParam("objective"),
			Status:           cmd.StringParam("status"),
			DailyBudgetCents: toCents(cmd.FloatParam("daily_budget")),
		})
		if err != nil {
			return nil, err
		}
		return &DispatchResult{ID: id}, nil

	case KindUpdateCampaign:
		campaignID := cmd.StringParam("campaign_id")
		if budget := cmd.FloatParam("daily_budget"); budget > 0 {
			if err := d.client.UpdateCampaignBudget(ctx, token, campaignID, toCents(budget)); err != nil {
				return nil, err
			}
		} else if err := d.client.UpdateCampaignStatus(ctx, token, campaignID, cmd.StringParam("status")); err != nil {
			return nil, err
		}
		return &DispatchResult{ID: campaignID}, nil

	case KindGetAdSets:
		adsets, err := d.client.AdSets(ctx, token, cmd.StringParam("campaign_id"))
		if err != nil {
			return nil, err
		}
		return listResult(adsets)

	case KindGetAdSetDetail:
		adset, err := d.client.AdSetDetails(ctx, token, cmd.StringParam("adset_id"))
		if err != nil {
			return nil, err
		}
		return singleResult(adset)

	case KindCreateAdSet:
		id, err := d.client.CreateAdSet(ctx, token, cmd.StringParam("account_id"), meta.CreateAdSetParams{
			Name:             cmd.StringParam("name"),
			CampaignID:       cmd.StringParam("campaign_id"),
			Status:           cmd.StringParam("status"),
			DailyBudgetCents: toCents(cmd.FloatParam("daily_budget")),
		})
		if err != nil {
			return nil, err
		}
		return &DispatchResult{ID: id}, nil

	case KindGetAds:
		ads, err := d.client.Ads(ctx, token, cmd.StringParam("adset_id"))
		if err != nil {
			return nil, err
		}
		return listResult(ads)

	case KindGetAdDetail:
		ad, err := d.client.AdDetails(ctx, token, cmd.StringParam("ad_id"))
		if err != nil {
			return nil, err
		}
		return singleResult(ad)

	case KindCreateAd:
		id, err := d.client.CreateAd(ctx, token, cmd.StringParam("account_id"), meta.CreateAdParams{
			Name:       cmd.StringParam("name"),
			AdsetID:    cmd.StringParam("adset_id"),
			CreativeID: cmd.StringParam("creative_id"),
			Status:     cmd.StringParam("status"),
		})
		if err != nil {
			return nil, err
		}
		return &DispatchResult{ID: id}, nil

	case KindUpdateAd:
		adID := cmd.StringParam("ad_id")
		if err := d.client.UpdateAd(ctx, token, adID, cmd.StringParam("name"), cmd.StringParam("status")); err != nil {
			return nil, err
		}
		return &DispatchResult{ID: adID}, nil

	case KindGetCreatives:
		creatives, err := d.client.Creatives(ctx, token, cmd.StringParam("account_id"))
		if err != nil {
			return nil, err
		}
		return listResult(creatives)

	case KindCreateCreative:
		id, err := d.client.CreateCreative(ctx, token, cmd.StringParam("account_id"), meta.CreateCreativeParams{
			Name:  cmd.StringParam("name"),
			Title: cmd.StringParam("title"),
			Body:  cmd.StringParam("body"),
		})
		if err != nil {
			return nil, err
		}
		return &DispatchResult{ID: id}, nil

	case KindGetInsights:
		insights, err := d.client.Insights(ctx, token, cmd.StringParam("object_id"), meta.InsightsQuery{
			TimeRange: cmd.StringParam("time_range"),
			Level:     cmd.StringParam("level"),
			Breakdown: cmd.StringParam("breakdown"),
		})
		if err != nil {
			return nil, err
		}
		return listResult(insights)

	case KindGetBudgetSchedule:
		schedules, err := d.client.BudgetSchedules(ctx, token, cmd.StringParam("campaign_id"))
		if err != nil {
			return nil, err
		}
		return listResult(schedules)

	case KindGetAdLibrary:
		archive, err := d.client.AdLibrarySearch(ctx, token, cmd.StringParam("search_terms"), "")
		if err != nil {
			return nil, err
		}
		return listResult(archive)

	case KindGetLoginLink:
		return &DispatchResult{Link: d.client.LoginLink(uuid.NewString())}, nil

	default:
		return nil, fmt.Errorf("unknown command kind: %s", cmd.Kind)
	}
}

// toCents converts a dollar amount from chat text to the minor currency
// units the Graph API expects.
func toCents(dollars float64) int64 {
	return int64(dollars * 100)
}

// listResult flattens typed rows into records via a JSON round trip so the
// formatter can treat every payload uniformly.
func listResult(rows any) (*DispatchResult, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &DispatchResult{Records: records}, nil
}

func singleResult(row any) (*DispatchResult, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &DispatchResult{Records: []Record{record}}, nil
}
