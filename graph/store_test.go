package graph

import (
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/atlas/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	require.NoError(t, err)
	s.Seed()
	return s
}

func TestSeed(t *testing.T) {
	s := newSeededStore(t)
	require.Equal(t, 5, s.Len())

	snap := s.Snapshot()
	names := make([]string, len(snap))
	for i, c := range snap {
		names[i] = c.Name
		assert.Equal(t, uint64(i), c.Ordinal)
		assert.InDelta(t, SeedConfidence, c.Confidence, 1e-9)
		assert.False(t, c.Discovered)
	}
	assert.Equal(t, []string{"revenue_generation", "problem_solving", "learning", "communication", "automation"}, names)

	// Seeding twice does not duplicate.
	s.Seed()
	assert.Equal(t, 5, s.Len())
}

func TestUpsert_NoOpWhenPresent(t *testing.T) {
	s := newSeededStore(t)
	assert.False(t, s.Upsert("learning", 0.1, []string{"other"}))

	c, ok := s.Get("learning")
	require.True(t, ok)
	assert.Equal(t, 1.0, c.Weight)
	assert.Equal(t, []string{"adaptation", "memory", "pattern_recognition"}, c.Connections)
}

func TestRecordAbsorption(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewStore(WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	s.Seed()

	require.NoError(t, s.RecordAbsorption("automation", "AI automation news", "blog"))

	c, _ := s.Get("automation")
	assert.InDelta(t, 0.75, c.Confidence, 1e-9)
	require.Len(t, c.LearnedInstances, 1)
	assert.Equal(t, "blog", c.LearnedInstances[0].Source)
	assert.InDelta(t, 0.5, c.LearnedInstances[0].Relevance, 1e-9)
	assert.Equal(t, fixed, c.LastUpdated)
}

func TestRecordAbsorption_Missing(t *testing.T) {
	s := newSeededStore(t)
	err := s.RecordAbsorption("nope", "content", "src")
	assert.ErrorIs(t, err, ErrConceptNotFound)
}

func TestRecordAbsorption_ConfidenceCap(t *testing.T) {
	s := newSeededStore(t)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.RecordAbsorption("learning", "more knowledge", "feed"))
		c, _ := s.Get("learning")
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, core.MaxAbsorbedConfidence)
	}
	c, _ := s.Get("learning")
	assert.InDelta(t, core.MaxAbsorbedConfidence, c.Confidence, 1e-9)
}

func TestRecordAbsorption_TrimsInstances(t *testing.T) {
	s := newSeededStore(t)
	for i := 0; i <= MaxLearnedInstances; i++ {
		require.NoError(t, s.RecordAbsorption("learning", fmt.Sprintf("item-%d", i), "feed"))
	}

	c, _ := s.Get("learning")
	require.Len(t, c.LearnedInstances, RetainedInstances)
	assert.Equal(t, fmt.Sprintf("item-%d", MaxLearnedInstances), c.LearnedInstances[RetainedInstances-1].Content)
	assert.Equal(t, fmt.Sprintf("item-%d", MaxLearnedInstances-RetainedInstances+1), c.LearnedInstances[0].Content)
}

func TestDiscoverIfMatched(t *testing.T) {
	s := newSeededStore(t)

	created := s.DiscoverIfMatched("Crypto MARKET data report", "news")
	assert.Equal(t, []string{"blockchain_technology", "data_analysis", "market_intelligence"}, created)
	assert.Equal(t, 8, s.Len())

	c, ok := s.Get("data_analysis")
	require.True(t, ok)
	assert.True(t, c.Discovered)
	assert.InDelta(t, DiscoveredWeight, c.Weight, 1e-9)
	assert.InDelta(t, DiscoveredConfidence, c.Confidence, 1e-9)
	assert.Equal(t, []string{"data", "analytics", "insights"}, c.Connections)
	require.Len(t, c.LearnedInstances, 1)
	assert.InDelta(t, DiscoveredRelevance, c.LearnedInstances[0].Relevance, 1e-9)
	assert.Equal(t, "news", c.LearnedInstances[0].Source)

	// Existing concepts are not recreated.
	assert.Empty(t, s.DiscoverIfMatched("more crypto data", "news"))
	assert.Empty(t, s.DiscoverIfMatched("nothing relevant", "news"))
}

func TestExtractConcept(t *testing.T) {
	tests := []struct {
		content string
		want    string
		ok      bool
	}{
		{"AI automation news", "automation", true},
		{"Make MONEY online", "revenue_generation", true},
		{"a fix for the bug", "problem_solving", true},
		{"education reform", "learning", true},
		{"chat protocols", "communication", true},
		// Earlier groups win.
		{"business problem", "revenue_generation", true},
		{"zzz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, ok := ExtractConcept(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateRelevance(t *testing.T) {
	c := &core.Concept{Name: "automation", Connections: []string{"efficiency", "technology", "optimization"}}
	assert.InDelta(t, 0.5, CalculateRelevance("nothing", c), 1e-9)
	assert.InDelta(t, 0.8, CalculateRelevance("Efficiency through TECHNOLOGY", c), 1e-9)
	assert.InDelta(t, 0.95, CalculateRelevance("efficiency technology optimization", c), 1e-9)

	many := &core.Concept{Name: "x", Connections: []string{"a", "b", "c", "d", "e"}}
	assert.InDelta(t, 1.0, CalculateRelevance("abcde", many), 1e-9)
}

func TestRelevanceToPrompt(t *testing.T) {
	c := &core.Concept{Name: "learning", Connections: []string{"adaptation", "memory", "pattern_recognition"}}
	assert.InDelta(t, 0.0, RelevanceToPrompt("hello", c), 1e-9)
	assert.InDelta(t, 0.5, RelevanceToPrompt("tell me about learning", c), 1e-9)
	assert.InDelta(t, 0.9, RelevanceToPrompt("learning memory adaptation", c), 1e-9)
	assert.InDelta(t, 1.0, RelevanceToPrompt("learning memory adaptation pattern_recognition", c), 1e-9)
}

func TestRetrieveRelevant_SortedAndStable(t *testing.T) {
	s := newSeededStore(t)

	matches := s.RetrieveRelevant("business language and automation efficiency")
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Relevance, matches[i].Relevance)
	}

	// automation: name +0.5, efficiency +0.2.
	assert.Equal(t, "automation", matches[0].Name)
	assert.InDelta(t, 0.7, matches[0].Relevance, 1e-9)
	// revenue_generation (business, automation) 0.4 ahead of communication (language) 0.2.
	assert.Equal(t, "revenue_generation", matches[1].Name)
	assert.Equal(t, "communication", matches[2].Name)

	ties := s.RetrieveRelevant("business language")
	require.Len(t, ties, 2)
	assert.Equal(t, "revenue_generation", ties[0].Name)
	assert.Equal(t, "communication", ties[1].Name)
}

func TestRetrieveRelevant_AutomateBusiness(t *testing.T) {
	s := newSeededStore(t)
	matches := s.RetrieveRelevant("how do i automate my business?")
	require.Len(t, matches, 1)
	assert.Equal(t, "revenue_generation", matches[0].Name)
	assert.Equal(t, []string{"automation"}, s.Neighbors("revenue_generation"))
}

func TestNeighbors_Missing(t *testing.T) {
	s := newSeededStore(t)
	assert.Nil(t, s.Neighbors("unknown"))
	assert.Empty(t, s.Neighbors("learning"))
}

func TestReinforce(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)
	s.Restore([]*core.Concept{
		{Name: "busy", Weight: 1, Confidence: 0.7, Ordinal: 0, LearnedInstances: make([]core.LearnedInstance, 4)},
		{Name: "sparse", Weight: 1, Confidence: 0.7, Ordinal: 1, LearnedInstances: make([]core.LearnedInstance, 3)},
		{Name: "confident", Weight: 1, Confidence: 0.92, Ordinal: 2, LearnedInstances: make([]core.LearnedInstance, 10)},
		{Name: "near_cap", Weight: 1, Confidence: 0.89, Ordinal: 3, LearnedInstances: make([]core.LearnedInstance, 10)},
	})

	assert.Equal(t, 2, s.Reinforce())

	busy, _ := s.Get("busy")
	assert.InDelta(t, 0.75, busy.Confidence, 1e-9)
	sparse, _ := s.Get("sparse")
	assert.InDelta(t, 0.7, sparse.Confidence, 1e-9)
	confident, _ := s.Get("confident")
	assert.InDelta(t, 0.92, confident.Confidence, 1e-9)
	nearCap, _ := s.Get("near_cap")
	assert.InDelta(t, 0.94, nearCap.Confidence, 1e-9)

	for i := 0; i < 10; i++ {
		s.Reinforce()
	}
	for _, c := range s.Snapshot() {
		assert.LessOrEqual(t, c.Confidence, core.MaxConsolidatedConfidence, c.Name)
	}
	busy, _ = s.Get("busy")
	assert.GreaterOrEqual(t, busy.Confidence, ReinforceBelow-1e-9)
}

func TestReinforce_SeededUntouched(t *testing.T) {
	s := newSeededStore(t)
	for i := 0; i < 10; i++ {
		s.Reinforce()
	}
	for _, c := range s.Snapshot() {
		assert.InDelta(t, SeedConfidence, c.Confidence, 1e-9, c.Name)
	}
}

func TestTopByConfidence(t *testing.T) {
	s := newSeededStore(t)
	require.NoError(t, s.RecordAbsorption("communication", "chat", "feed"))

	top := s.TopByConfidence(2)
	require.Len(t, top, 2)
	assert.Equal(t, "communication", top[0].Name)
	assert.Equal(t, 1, top[0].Instances)
	assert.Equal(t, "revenue_generation", top[1].Name)
}

func TestSnapshotRestore(t *testing.T) {
	s := newSeededStore(t)
	s.DiscoverIfMatched("viral", "feed")

	snap := s.Snapshot()
	snap[0].Confidence = 0.1

	c, _ := s.Get(snap[0].Name)
	assert.InDelta(t, SeedConfidence, c.Confidence, 1e-9)

	restored, err := NewStore()
	require.NoError(t, err)
	// Reverse order with a nil and a duplicate; Ordinal decides.
	input := []*core.Concept{nil}
	for i := len(snap) - 1; i >= 0; i-- {
		input = append(input, snap[i])
	}
	input = append(input, &core.Concept{Name: snap[0].Name, Ordinal: 99})
	restored.Restore(input)

	require.Equal(t, 6, restored.Len())
	got := restored.Snapshot()
	assert.Equal(t, "revenue_generation", got[0].Name)
	assert.Equal(t, "social_media_strategy", got[5].Name)

	assert.True(t, restored.Upsert("new_one", 0.5, nil))
	n, _ := restored.Get("new_one")
	assert.Equal(t, uint64(6), n.Ordinal)
}
