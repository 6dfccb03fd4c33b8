package graph

import "strings"

// Confidence and retention constants.
const (
	SeedConfidence       = 0.7
	DiscoveredWeight     = 0.6
	DiscoveredConfidence = 0.6
	DiscoveredRelevance  = 0.8

	// MaxLearnedInstances is the size past which a concept's history is trimmed.
	MaxLearnedInstances = 100
	// RetainedInstances is how many of the most recent instances survive a trim.
	RetainedInstances = 50

	// ReinforceMinInstances is the instance count a concept must exceed to be reinforced.
	ReinforceMinInstances = 3
	// ReinforceBelow is the confidence at or above which reinforcement stops.
	ReinforceBelow = 0.9
)

type seed struct {
	name        string
	weight      float64
	connections []string
}

// seeds is the base concept set installed into an empty store.
var seeds = []seed{
	{"revenue_generation", 0.9, []string{"business", "automation", "ai"}},
	{"problem_solving", 0.95, []string{"analysis", "creativity", "logic"}},
	{"learning", 1.0, []string{"adaptation", "memory", "pattern_recognition"}},
	{"communication", 0.85, []string{"language", "empathy", "clarity"}},
	{"automation", 0.9, []string{"efficiency", "technology", "optimization"}},
}

type keywordRule struct {
	keywords []string
	concept  string
}

func (r keywordRule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractionRules map absorbed content to an existing concept. First match wins.
var extractionRules = []keywordRule{
	{[]string{"business", "revenue", "money"}, "revenue_generation"},
	{[]string{"problem", "solution", "fix"}, "problem_solving"},
	{[]string{"learn", "education", "knowledge"}, "learning"},
	{[]string{"automat", "ai", "artificial"}, "automation"},
	{[]string{"communication", "language", "chat"}, "communication"},
}

// discoveryRules create new concepts when absorbed content mentions them.
// Every matching rule fires.
var discoveryRules = []keywordRule{
	{[]string{"crypto", "blockchain", "web3"}, "blockchain_technology"},
	{[]string{"social", "media", "viral"}, "social_media_strategy"},
	{[]string{"data", "analytics", "insights"}, "data_analysis"},
	{[]string{"market", "competition", "strategy"}, "market_intelligence"},
}

// ExtractConcept returns the name of the concept the content is about,
// using the first keyword group found in the lowercased content.
func ExtractConcept(content string) (string, bool) {
	lower := strings.ToLower(content)
	for _, rule := range extractionRules {
		if rule.matches(lower) {
			return rule.concept, true
		}
	}
	return "", false
}
