package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adspilot/metads-assistant/internal/config"
)

// OpenAIAgent generates conversational responses with tool calling bound
// to the read-only ads operations. It is an optional layer; the rule-based
// formatter remains the fallback.
type OpenAIAgent struct {
	apiKey     string
	model      string
	dispatcher *Dispatcher
	httpClient *http.Client
}

// openAIChatMessage is a message in the OpenAI conversation.
type openAIChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type openAIRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Tools       []tool              `json:"tools,omitempty"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIChatMessage `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIAgent creates the narrative agent, or nil when disabled.
func NewOpenAIAgent(cfg config.OpenAIConfig, dispatcher *Dispatcher) *OpenAIAgent {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIAgent{
		apiKey:     cfg.APIKey,
		model:      model,
		dispatcher: dispatcher,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Narrate produces a conversational response to the user's message. The
// already-computed summary is passed as grounding so the model narrates
// real numbers instead of inventing them; tools let it pull extra data.
func (o *OpenAIAgent) Narrate(ctx context.Context, token, userMessage, summary string) (string, error) {
	messages := []openAIChatMessage{
		{Role: "system", Content: narrativeSystemPrompt},
		{Role: "system", Content: "Data already fetched for this turn:\n" + summary},
		{Role: "user", Content: userMessage},
	}

	request := openAIRequest{
		Model:       o.model,
		Messages:    messages,
		Tools:       o.tools(),
		Temperature: 0.7,
		MaxTokens:   1500,
	}

	maxIterations := 6
	for i := 0; i < maxIterations; i++ {
		response, err := o.callOpenAI(ctx, request)
		if err != nil {
			return "", fmt.Errorf("OpenAI API error: %w", err)
		}

		if len(response.Choices) == 0 {
			return "", fmt.Errorf("no response from OpenAI")
		}

		choice := response.Choices[0]

		if choice.FinishReason == "tool_calls" && len(choice.Message.ToolCalls) > 0 {
			request.Messages = append(request.Messages, choice.Message)

			for _, call := range choice.Message.ToolCalls {
				result := o.executeTool(ctx, token, call.Function.Name, call.Function.Arguments)
				request.Messages = append(request.Messages, openAIChatMessage{
					Role:       "tool",
					Content:    result,
					ToolCallID: call.ID,
				})
			}
			continue
		}

		return choice.Message.Content, nil
	}

	return "", fmt.Errorf("tool loop did not converge")
}

func (o *OpenAIAgent) callOpenAI(ctx context.Context, request openAIRequest) (*openAIResponse, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}

	return &response, nil
}

// tools exposes the read-only operations to the model. Mutations stay out
// on purpose; those only run through the explicit command router.
func (o *OpenAIAgent) tools() []tool {
	return []tool{
		{
			Type: "function",
			Function: toolFunction{
				Name:        "get_ad_accounts",
				Description: "List the user's Meta ad accounts",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
		{
			Type: "function",
			Function: toolFunction{
				Name:        "get_campaigns",
				Description: "List campaigns for an ad account",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"account_id": map[string]any{"type": "string", "description": "Ad account id, e.g. act_123456789"},
					},
					"required": []string{"account_id"},
				},
			},
		},
		{
			Type: "function",
			Function: toolFunction{
				Name:        "get_insights",
				Description: "Fetch performance insights for a campaign, ad set, ad, or account",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"object_id":  map[string]any{"type": "string"},
						"time_range": map[string]any{"type": "string", "enum": []string{"today", "yesterday", "this_week", "last_week", "this_month", "last_month", "last_7d", "last_30d", "last_90d"}},
						"level":      map[string]any{"type": "string", "enum": []string{"account", "campaign", "adset", "ad"}},
					},
					"required": []string{"object_id"},
				},
			},
		},
	}
}

func (o *OpenAIAgent) executeTool(ctx context.Context, token, name, arguments string) string {
	var params map[string]any
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		return fmt.Sprintf(`{"error": "invalid arguments: %s"}`, err)
	}

	cmd := &Command{Kind: Kind(name), Params: params}
	switch cmd.Kind {
	case KindGetAdAccounts, KindGetCampaigns, KindGetInsights:
	default:
		return `{"error": "unknown tool"}`
	}

	result, err := o.dispatcher.Dispatch(ctx, token, cmd)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	data, err := json.Marshal(result.Records)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

const narrativeSystemPrompt = `You are an expert Meta (Facebook) Ads analyst assisting an advertiser through chat.

You receive a data summary already fetched for this turn. Base your answer on it. Use the tools only when you need additional data the summary does not cover.

## How to respond
- Be specific: use the actual campaign names, ids, and numbers
- Currency amounts in campaign rows are in cents; divide by 100 before showing dollars
- Call out weak CTR (<1.5%) and high CPC (>$2.00) when you see them
- Keep responses short and scannable; end with one concrete next step
- Never invent metrics that are not in the data`
