package cognition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/atlas/core"
)

// Knowledge is what the retrieval phase found for a query.
type Knowledge struct {
	Concepts []*core.Concept    // Full copies, in analyzed order
	Memories []core.Interaction // Related recent interactions
	Patterns []core.Pattern     // Patterns whose key names an analyzed concept
}

// ConceptNames returns the names of the retrieved concepts.
func (k *Knowledge) ConceptNames() []string {
	names := make([]string, len(k.Concepts))
	for i, c := range k.Concepts {
		names[i] = c.Name
	}
	return names
}

func (k *Knowledge) concept(name string) *core.Concept {
	for _, c := range k.Concepts {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Retrieve runs the retrieval phase.
func Retrieve(g Graph, m Memory, analysis *core.Analysis) *Knowledge {
	names := analysis.ConceptNames()
	k := &Knowledge{
		Memories: m.Related(names),
		Patterns: m.PatternsMatching(names),
	}
	for _, name := range names {
		if c, ok := g.Get(name); ok {
			k.Concepts = append(k.Concepts, c)
		}
	}
	return k
}

// GenerateInsights derives up to three observations from the analysis and the
// retrieved knowledge. The insights are not yet attached to an interaction.
func GenerateInsights(analysis *core.Analysis, k *Knowledge) []core.Insight {
	var insights []core.Insight

	if len(k.Patterns) > 0 {
		insights = append(insights, core.Insight{
			Type:       core.InsightPatternRecognition,
			Content:    fmt.Sprintf("I have identified similar patterns in %d previous situations.", len(k.Patterns)),
			Confidence: 0.8,
		})
	}

	if len(analysis.Concepts) > 1 {
		if pairs := connectedPairs(analysis.Concepts, k); len(pairs) > 0 {
			insights = append(insights, core.Insight{
				Type:       core.InsightConceptSynthesis,
				Content:    fmt.Sprintf("I see interesting connections between %s that may be relevant.", strings.Join(pairs, ", ")),
				Confidence: 0.75,
			})
		}
	}

	if len(analysis.KnowledgeGaps) > 0 {
		gaps := make([]string, len(analysis.KnowledgeGaps))
		for i, g := range analysis.KnowledgeGaps {
			gaps[i] = g.Concept
		}
		insights = append(insights, core.Insight{
			Type:       core.InsightLearningOpportunity,
			Content:    fmt.Sprintf("I identify learning opportunities in: %s.", strings.Join(gaps, ", ")),
			Confidence: 0.9,
		})
	}

	return insights
}

// connectedPairs names every pair of analyzed concepts sharing a connection keyword.
func connectedPairs(matches []core.ConceptMatch, k *Knowledge) []string {
	var pairs []string
	for i := 0; i < len(matches); i++ {
		a := k.concept(matches[i].Name)
		if a == nil {
			continue
		}
		for j := i + 1; j < len(matches); j++ {
			b := k.concept(matches[j].Name)
			if b == nil {
				continue
			}
			if slices.ContainsFunc(a.Connections, func(conn string) bool {
				return slices.Contains(b.Connections, conn)
			}) {
				pairs = append(pairs, a.Name+"-"+b.Name)
			}
		}
	}
	return pairs
}
