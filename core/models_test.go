package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	assert.Equal(t, IDFromContent("automation"), IDFromContent("automation"))
	assert.NotEqual(t, IDFromContent("automation"), IDFromContent("learning"))

	c := &Concept{Name: "automation"}
	assert.Equal(t, IDFromContent("automation"), c.ID())
}

func TestConceptClone(t *testing.T) {
	c := &Concept{
		Name:             "learning",
		Connections:      []string{"adaptation", "memory"},
		LearnedInstances: []LearnedInstance{{Content: "{}", Source: "feed"}},
	}
	clone := c.Clone()
	clone.Connections[0] = "changed"
	clone.LearnedInstances[0].Source = "other"

	assert.Equal(t, "adaptation", c.Connections[0])
	assert.Equal(t, "feed", c.LearnedInstances[0].Source)
}

func TestPatternKey(t *testing.T) {
	assert.Equal(t, "how_to_low", PatternKey(IntentHowTo, ComplexityLow))
	assert.Equal(t, "general_inquiry_high", PatternKey(IntentGeneral, ComplexityHigh))
}

func TestAnalysisHelpers(t *testing.T) {
	a := &Analysis{Concepts: []ConceptMatch{{Name: "revenue_generation"}, {Name: "automation"}}}
	assert.Equal(t, []string{"revenue_generation", "automation"}, a.ConceptNames())
	assert.True(t, a.HasConcept("automation"))
	assert.False(t, a.HasConcept("learning"))
}

func TestCognitiveStatesAny(t *testing.T) {
	assert.False(t, CognitiveStates{}.Any())
	assert.True(t, CognitiveStates{Learning: true}.Any())
}

func TestConceptMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := Concept{
		Name:        "blockchain_technology",
		Weight:      0.6,
		Connections: []string{"crypto", "blockchain", "web3"},
		Confidence:  0.6,
		LearnedInstances: []LearnedInstance{
			{Content: `{"t":"web3"}`, Source: "news", Timestamp: now, Relevance: 0.8},
		},
		Discovered:  true,
		LastUpdated: now,
		Ordinal:     7,
	}

	buf := make([]byte, ConceptMUS.Size(c))
	n := ConceptMUS.Marshal(c, buf)
	require.Equal(t, len(buf), n)

	got, read, err := ConceptMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, c, got)
}

func TestMemorySnapshotMUS_ZeroTimeAndEmptySlices(t *testing.T) {
	s := MemorySnapshot{IntelligenceLevel: 75}

	buf := make([]byte, MemorySnapshotMUS.Size(s))
	MemorySnapshotMUS.Marshal(s, buf)

	got, _, err := MemorySnapshotMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Nil(t, got.Conversations)
	assert.Nil(t, got.Patterns)
	assert.Equal(t, 75.0, got.IntelligenceLevel)
	assert.Empty(t, got.LastAbsorption)
}

func TestSliceMUS_RejectsOversizedLength(t *testing.T) {
	// A length prefix of 100 with no elements following.
	_, _, err := InteractionMUS.Unmarshal([]byte{0})
	assert.Error(t, err)

	_, _, err = LearningLogMUS.Unmarshal([]byte{100})
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
