package badger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_NotFound(t *testing.T) {
	conceptRepo, memoryRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { conceptRepo.Close(); memoryRepo.Close(); backend.Close() }()

	ctx := context.Background()
	_, err = memoryRepo.LoadMemory(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = memoryRepo.LoadLearningLog(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemory_SaveLoad(t *testing.T) {
	conceptRepo, memoryRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { conceptRepo.Close(); memoryRepo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	snapshot := &core.MemorySnapshot{
		Conversations: []core.Interaction{{
			ID:       "5c1d2a34-0000-4000-8000-000000000001",
			Prompt:   "How do I automate my business?",
			Response: "I understand you need a step-by-step guide.",
			Analysis: core.Analysis{
				Intent:     core.IntentHowTo,
				Complexity: core.ComplexityLow,
				Concepts: []core.ConceptMatch{
					{Name: "revenue_generation", Confidence: 0.7, Relevance: 0.7},
				},
				Context:   json.RawMessage(`{"channel":"cli","user":{"id":7}}`),
				Timestamp: now,
			},
			Timestamp: now,
		}},
		Patterns: []core.Pattern{{
			Key:           core.PatternKey(core.IntentHowTo, core.ComplexityLow),
			Count:         1,
			AvgConfidence: 0.8,
			Examples:      []core.PatternExample{{Timestamp: now, Concepts: []string{"revenue_generation"}}},
		}},
		IntelligenceLevel: 75.1,
		LastAbsorption:    "2025-01-01T00:00:00",
	}
	require.NoError(t, memoryRepo.SaveMemory(ctx, snapshot))

	got, err := memoryRepo.LoadMemory(ctx)
	require.NoError(t, err)
	require.Len(t, got.Conversations, 1)
	assert.Equal(t, snapshot.Conversations[0].Prompt, got.Conversations[0].Prompt)
	assert.Equal(t, core.IntentHowTo, got.Conversations[0].Analysis.Intent)
	assert.JSONEq(t, `{"channel":"cli","user":{"id":7}}`, string(got.Conversations[0].Analysis.Context))
	require.Len(t, got.Patterns, 1)
	assert.Equal(t, "how_to_low", got.Patterns[0].Key)
	assert.InDelta(t, 75.1, got.IntelligenceLevel, 1e-9)
	assert.Equal(t, "2025-01-01T00:00:00", got.LastAbsorption)

	log := &core.LearningLog{
		Insights: []core.Insight{{Type: core.InsightLearningOpportunity, Content: "gap", Confidence: 0.9, SourceInteraction: now}},
		Sessions: []core.LearningSession{{Timestamp: now, ConceptsLearned: 5, InsightsGenerated: 1, IntelligenceLevel: 75.1}},
	}
	require.NoError(t, memoryRepo.SaveLearningLog(ctx, log))

	gotLog, err := memoryRepo.LoadLearningLog(ctx)
	require.NoError(t, err)
	require.Len(t, gotLog.Insights, 1)
	assert.Equal(t, core.InsightLearningOpportunity, gotLog.Insights[0].Type)
	require.Len(t, gotLog.Sessions, 1)
	assert.Equal(t, 5, gotLog.Sessions[0].ConceptsLearned)
}

func TestMemory_Corrupt(t *testing.T) {
	conceptRepo, memoryRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { conceptRepo.Close(); memoryRepo.Close(); backend.Close() }()

	require.NoError(t, backend.setValue([]byte(memorySnapshotKey), []byte{0xff}))
	_, err = memoryRepo.LoadMemory(context.Background())
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}
