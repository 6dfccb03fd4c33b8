package cognition

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/atlas/core"
)

// GapThreshold is the confidence below which an analyzed concept is a knowledge gap.
const GapThreshold = 0.8

type intentRule struct {
	keywords []string
	intent   core.Intent
}

// intentRules are checked in order against the lowercased prompt.
var intentRules = []intentRule{
	{[]string{"how", "como", "cómo"}, core.IntentHowTo},
	{[]string{"what is", "que es", "qué es"}, core.IntentDefinition},
	{[]string{"help", "ayuda"}, core.IntentAssistance},
	{[]string{"create", "crear"}, core.IntentCreation},
	{[]string{"analyze", "analizar"}, core.IntentAnalysis},
	{[]string{"solve", "resolver"}, core.IntentProblemSolving},
	{[]string{"optimize", "optimizar"}, core.IntentOptimization},
}

type toneRule struct {
	keywords []string
	tone     core.EmotionalTone
}

var toneRules = []toneRule{
	{[]string{"urgent", "emergencia"}, core.ToneUrgent},
	{[]string{"help", "ayuda"}, core.ToneSeekingHelp},
	{[]string{"great", "excellent"}, core.TonePositive},
	{[]string{"frustrated", "problem"}, core.ToneFrustrated},
}

var creativityKeywords = []string{"crear", "create", "diseñar", "design", "innovar", "innovate", "idea", "creative"}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// DetectIntent classifies the prompt by the first matching keyword group.
func DetectIntent(prompt string) core.Intent {
	lower := strings.ToLower(prompt)
	for _, rule := range intentRules {
		if containsAny(lower, rule.keywords) {
			return rule.intent
		}
	}
	return core.IntentGeneral
}

// DetectTone classifies the emotional tone of the prompt.
func DetectTone(prompt string) core.EmotionalTone {
	lower := strings.ToLower(prompt)
	for _, rule := range toneRules {
		if containsAny(lower, rule.keywords) {
			return rule.tone
		}
	}
	return core.ToneNeutral
}

// RequiresCreativity reports whether the prompt asks for something new.
func RequiresCreativity(prompt string) bool {
	return containsAny(strings.ToLower(prompt), creativityKeywords)
}

// ComplexityScore sums surface heuristics over the prompt as written.
// Keyword checks are case sensitive substring matches.
func ComplexityScore(prompt string) float64 {
	score := 0.0
	if utf8.RuneCountInString(prompt) > 100 {
		score += 0.3
	}
	if strings.Count(prompt, "?") >= 2 {
		score += 0.2
	}
	if strings.Contains(prompt, "y") || strings.Contains(prompt, "and") {
		score += 0.1
	}
	if strings.Contains(prompt, "pero") || strings.Contains(prompt, "but") {
		score += 0.2
	}
	if strings.Contains(prompt, "porque") || strings.Contains(prompt, "because") {
		score += 0.15
	}
	return score
}

// AssessComplexity buckets ComplexityScore at 0.3 and 0.6.
func AssessComplexity(prompt string) core.Complexity {
	score := ComplexityScore(prompt)
	switch {
	case score < 0.3:
		return core.ComplexityLow
	case score < 0.6:
		return core.ComplexityMedium
	default:
		return core.ComplexityHigh
	}
}

// Analyze runs the analysis phase. It reads the graph but never changes it.
//
// Besides the concepts the prompt names directly, the analysis includes every
// concept one connection away from a direct match, with zero relevance. This
// widens every query, not only ones like "automate my business": a prompt
// about "business ideas" analyzes revenue_generation and its neighbor
// automation, and reports a knowledge gap for automation as well.
func Analyze(g Graph, prompt string, queryContext json.RawMessage, now time.Time) core.Analysis {
	lower := strings.ToLower(prompt)

	concepts := g.RetrieveRelevant(lower)
	concepts = appendNeighbors(g, concepts)

	var gaps []core.KnowledgeGap
	for _, c := range concepts {
		if c.Confidence < GapThreshold {
			gaps = append(gaps, core.KnowledgeGap{
				Concept:     c.Name,
				Confidence:  c.Confidence,
				GapSeverity: 1 - c.Confidence,
			})
		}
	}

	return core.Analysis{
		Intent:             DetectIntent(prompt),
		Concepts:           concepts,
		Complexity:         AssessComplexity(prompt),
		EmotionalTone:      DetectTone(prompt),
		RequiresCreativity: RequiresCreativity(prompt),
		KnowledgeGaps:      gaps,
		Context:            queryContext,
		Timestamp:          now,
	}
}

// appendNeighbors adds, after the directly matched concepts, every connection of
// a matched concept that is itself a concept. Neighbors carry zero relevance so
// the list stays in non-increasing relevance order.
func appendNeighbors(g Graph, matches []core.ConceptMatch) []core.ConceptMatch {
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		seen[m.Name] = true
	}
	direct := len(matches)
	for i := 0; i < direct; i++ {
		for _, name := range g.Neighbors(matches[i].Name) {
			if seen[name] {
				continue
			}
			c, ok := g.Get(name)
			if !ok {
				continue
			}
			seen[name] = true
			matches = append(matches, core.ConceptMatch{Name: name, Confidence: c.Confidence})
		}
	}
	return matches
}
