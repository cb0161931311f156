package assistant

import "strings"

// DefaultSuggestions are the canned question prompts offered when the
// router can't make sense of a message, and by the suggestions endpoint.
var DefaultSuggestions = []string{
	"Show me my ad accounts",
	"Show campaigns for act_123456789",
	"What are my campaign performance metrics?",
	"Generate a chart of my daily spend",
	"Which campaigns have the best CTR?",
	"Show me impressions by campaign",
	"Show me my ad sets and targeting",
	"What's my current ad spend trend?",
}

// Classify maps free text to a Command by walking the rule cascade in
// order. It returns a *ClassifyError when no rule matches or when the
// matched rule is missing a required identifier.
func Classify(text string) (*Command, error) {
	lower := strings.ToLower(text)
	entities := ExtractEntities(text)

	for _, rule := range rules {
		if rule.Match(lower, entities) {
			return rule.Build(lower, entities)
		}
	}

	return nil, &ClassifyError{
		Message: "I'm here to help you with your Meta Ads campaigns! " +
			"You can ask me about your ad accounts, campaigns, performance metrics, and charts.",
		Suggestions: DefaultSuggestions,
	}
}
