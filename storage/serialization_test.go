package storage

import (
	"testing"
	"time"

	"github.com/poiesic/atlas/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalConcept(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	concept := &core.Concept{
		Name:        "revenue_generation",
		Weight:      0.9,
		Connections: []string{"business", "automation", "ai"},
		Confidence:  0.7,
		LastUpdated: now,
	}

	decoded, err := UnmarshalConcept(MarshalConcept(concept))
	require.NoError(t, err)
	assert.Equal(t, concept, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]byte) error
	}{
		{"concept", func(b []byte) error { _, err := UnmarshalConcept(b); return err }},
		{"memory snapshot", func(b []byte) error { _, err := UnmarshalMemorySnapshot(b); return err }},
		{"learning log", func(b []byte) error { _, err := UnmarshalLearningLog(b); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(nil), ErrSerializationFailed)
			assert.ErrorIs(t, tt.fn([]byte{0xff}), ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalLearningLog(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	log := &core.LearningLog{
		Insights: []core.Insight{{
			Type:              core.InsightPatternRecognition,
			Content:           "I have identified similar patterns in 1 previous situations.",
			Confidence:        0.8,
			SourceInteraction: now,
		}},
	}

	decoded, err := UnmarshalLearningLog(MarshalLearningLog(log))
	require.NoError(t, err)
	assert.Equal(t, log, decoded)
}
