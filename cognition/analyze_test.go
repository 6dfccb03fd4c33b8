package cognition

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		prompt string
		want   core.Intent
	}{
		{"How do I automate my business?", core.IntentHowTo},
		{"¿Cómo funciona esto?", core.IntentHowTo},
		{"como vender mas", core.IntentHowTo},
		{"What is machine learning?", core.IntentDefinition},
		{"qué es la inteligencia", core.IntentDefinition},
		{"Please help me", core.IntentAssistance},
		{"necesito ayuda", core.IntentAssistance},
		{"Create a logo", core.IntentCreation},
		{"Analyze my sales", core.IntentAnalysis},
		{"Solve this equation", core.IntentProblemSolving},
		{"Optimize the site", core.IntentOptimization},
		{"Tell me a story", core.IntentGeneral},
		// Earlier groups win.
		{"How can you help?", core.IntentHowTo},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.prompt))
		})
	}
}

func TestDetectTone(t *testing.T) {
	tests := []struct {
		prompt string
		want   core.EmotionalTone
	}{
		{"URGENT: need help", core.ToneUrgent},
		{"emergencia total", core.ToneUrgent},
		{"help please", core.ToneSeekingHelp},
		{"great work", core.TonePositive},
		{"Excellent!", core.TonePositive},
		{"I have a problem", core.ToneFrustrated},
		{"hello", core.ToneNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectTone(tt.prompt), tt.prompt)
	}
}

func TestRequiresCreativity(t *testing.T) {
	assert.True(t, RequiresCreativity("Design a plan"))
	assert.True(t, RequiresCreativity("any IDEA?"))
	assert.True(t, RequiresCreativity("quiero diseñar algo"))
	assert.False(t, RequiresCreativity("list the files"))
}

func TestAssessComplexity(t *testing.T) {
	long := strings.Repeat("x", 101)
	tests := []struct {
		name   string
		prompt string
		want   core.Complexity
	}{
		{"empty signals", "hi", core.ComplexityLow},
		{"letter y", "why?", core.ComplexityLow},
		{"two questions", "a? b?", core.ComplexityLow},
		{"and plus but", "this and that but", core.ComplexityMedium},
		{"long", long, core.ComplexityMedium},
		{"everything", long + "?? but because", core.ComplexityHigh},
		{"keywords are case sensitive", "AND BUT BECAUSE", core.ComplexityLow},
		{"length counts runes", strings.Repeat("é", 60), core.ComplexityLow},
		{"spanish", "pero porque", core.ComplexityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessComplexity(tt.prompt))
		})
	}
}

func TestComplexityScore(t *testing.T) {
	assert.InDelta(t, 0.0, ComplexityScore("hi"), 1e-9)
	assert.InDelta(t, 0.35, ComplexityScore("but because"), 1e-9)
}

func seededGraph(t *testing.T) *graph.Store {
	t.Helper()
	s, err := graph.NewStore()
	require.NoError(t, err)
	s.Seed()
	return s
}

func TestAnalyze_AutomateBusiness(t *testing.T) {
	g := seededGraph(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	a := Analyze(g, "How do I automate my business?", json.RawMessage(`{"user":"u1"}`), now)

	assert.Equal(t, core.IntentHowTo, a.Intent)
	assert.Equal(t, []string{"revenue_generation", "automation"}, a.ConceptNames())
	assert.True(t, a.HasConcept("automation"))
	assert.InDelta(t, 0.2, a.Concepts[0].Relevance, 1e-9)
	assert.Zero(t, a.Concepts[1].Relevance)
	assert.Equal(t, core.ComplexityLow, a.Complexity)
	assert.Equal(t, core.ToneNeutral, a.EmotionalTone)
	assert.False(t, a.RequiresCreativity)
	require.Len(t, a.KnowledgeGaps, 2)
	assert.InDelta(t, 0.3, a.KnowledgeGaps[0].GapSeverity, 1e-9)
	assert.JSONEq(t, `{"user":"u1"}`, string(a.Context))
	assert.Equal(t, now, a.Timestamp)
}

func TestAnalyze_NeighborsWidenEveryQuery(t *testing.T) {
	g := seededGraph(t)
	a := Analyze(g, "business ideas", nil, time.Now())

	assert.Equal(t, []string{"revenue_generation", "automation"}, a.ConceptNames())
	assert.Zero(t, a.Concepts[1].Relevance)
	require.Len(t, a.KnowledgeGaps, 2)
	assert.Equal(t, "automation", a.KnowledgeGaps[1].Concept)
}

func TestAnalyze_SortedNonIncreasing(t *testing.T) {
	g := seededGraph(t)
	a := Analyze(g, "learning memory and automation technology for business language", nil, time.Now())
	require.NotEmpty(t, a.Concepts)
	for i := 1; i < len(a.Concepts); i++ {
		assert.GreaterOrEqual(t, a.Concepts[i-1].Relevance, a.Concepts[i].Relevance)
	}
	// Each concept appears once even when it is both matched and a neighbor.
	seen := map[string]bool{}
	for _, c := range a.Concepts {
		assert.False(t, seen[c.Name], c.Name)
		seen[c.Name] = true
	}
}

func TestAnalyze_NoConcepts(t *testing.T) {
	g := seededGraph(t)
	a := Analyze(g, "Tell me a story", nil, time.Now())
	assert.Empty(t, a.Concepts)
	assert.Empty(t, a.KnowledgeGaps)
	assert.Equal(t, core.IntentGeneral, a.Intent)
}
