// Package assistant implements the chat command router: free text goes
// through extract, classify, dispatch, and format, producing a response
// with optional chart data and recommendations. Each chat turn is an
// isolated request-scoped pipeline run.
package assistant

import (
	"context"

	"github.com/adspilot/metads-assistant/internal/advisor"
	"github.com/adspilot/metads-assistant/internal/meta"
	"github.com/adspilot/metads-assistant/internal/pkg/logger"
)

// Reply is the outcome of one chat turn.
type Reply struct {
	Text            string       `json:"response"`
	Data            []Record     `json:"data,omitempty"`
	Chart           *ChartSeries `json:"chart_data,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	Suggestions     []string     `json:"suggestions,omitempty"`
	Err             string       `json:"error,omitempty"`
}

// Assistant runs the chat pipeline. The OpenAI agent is optional; when it
// is absent or fails, the rule-based formatter's text is the response.
type Assistant struct {
	dispatcher *Dispatcher
	openai     *OpenAIAgent
}

// New creates an assistant over the Graph client. openai may be nil.
func New(client *meta.Client, openai *OpenAIAgent) *Assistant {
	return &Assistant{
		dispatcher: NewDispatcher(client),
		openai:     openai,
	}
}

// Dispatcher exposes the underlying dispatcher for callers that execute
// commands directly.
func (a *Assistant) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// HandleMessage runs one chat turn to completion. Failures never escape a
// turn: classification and dispatch errors come back inside the reply.
func (a *Assistant) HandleMessage(ctx context.Context, token, text string) Reply {
	cmd, err := Classify(text)
	if err != nil {
		if ce, ok := err.(*ClassifyError); ok {
			return Reply{Err: ce.Message, Suggestions: ce.Suggestions}
		}
		return Reply{Err: err.Error(), Suggestions: DefaultSuggestions}
	}

	result, err := a.dispatcher.Dispatch(ctx, token, cmd)
	if err != nil {
		logger.Warn("dispatch failed", "kind", string(cmd.Kind), "error", err.Error())
		return Reply{Err: err.Error()}
	}

	summary, chart := Format(cmd, result, text)

	reply := Reply{
		Text:        summary,
		Data:        result.Records,
		Chart:       chart,
		Suggestions: followupSuggestions(cmd.Kind),
	}

	if cmd.Kind == KindGetCampaigns {
		reply.Recommendations = advisor.Recommendations(result.Campaigns)
	}

	if a.openai != nil {
		if narrative, err := a.openai.Narrate(ctx, token, text, summary); err == nil && narrative != "" {
			reply.Text = narrative
		} else if err != nil {
			logger.Warn("narrative generation failed, using summary", "error", err.Error())
		}
	}

	return reply
}

// followupSuggestions offers next questions keyed to what was just asked.
func followupSuggestions(kind Kind) []string {
	switch kind {
	case KindGetAdAccounts, KindGetAccountInfo:
		return []string{
			"Show campaigns for act_123456789",
			"Show insights for act_123456789",
		}
	case KindGetCampaigns, KindGetCampaignDetail:
		return []string{
			"Which campaigns have the best CTR?",
			"Show me impressions by campaign",
			"Show performance for campaign_123456789",
		}
	case KindGetInsights:
		return []string{
			"Show me my spend trend for the last 7 days",
			"Which campaigns have the best CTR?",
		}
	case KindGetAdSets, KindGetAdSetDetail:
		return []string{
			"Show ads for adset_123456789",
		}
	default:
		return []string{
			"Show me my ad accounts",
			"What are my campaign performance metrics?",
		}
	}
}
