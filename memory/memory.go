package memory

import (
	"slices"
	"strings"

	"github.com/poiesic/atlas/core"
)

const (
	// MaxEntries is the size past which a log is trimmed.
	MaxEntries = 100
	// RetainedEntries is how many of the most recent entries survive a trim.
	RetainedEntries = 50

	// MaxPatternExamples bounds the examples kept per pattern.
	MaxPatternExamples = 5
	// RecentWindow is how many recent interactions are searched for related memories.
	RecentWindow = 10

	InitialIntelligence = 75.0
	MaxIntelligence     = 100.0
)

// Memory is the interaction memory.
type Memory struct {
	conversations  []core.Interaction
	patterns       []core.Pattern
	patternIndex   map[string]int
	insights       []core.Insight
	sessions       []core.LearningSession
	intelligence   float64
	lastAbsorption string
}

// New returns an empty Memory at the initial intelligence level.
func New() *Memory {
	return &Memory{
		patternIndex: make(map[string]int),
		intelligence: InitialIntelligence,
	}
}

// trim cuts s back to its most recent RetainedEntries once it exceeds MaxEntries.
func trim[T any](s []T) ([]T, bool) {
	if len(s) <= MaxEntries {
		return s, false
	}
	return slices.Clone(s[len(s)-RetainedEntries:]), true
}

// Record appends a completed interaction.
func (m *Memory) Record(interaction core.Interaction) {
	m.conversations = append(m.conversations, interaction)
	m.conversations, _ = trim(m.conversations)
}

// Trim applies the retention policy to the conversation log and reports
// whether anything was dropped.
func (m *Memory) Trim() bool {
	var trimmed bool
	m.conversations, trimmed = trim(m.conversations)
	return trimmed
}

// UpdatePattern counts one occurrence of the (intent, complexity) pair.
// The average confidence is smoothed as (avg + confidence) / 2.
func (m *Memory) UpdatePattern(analysis *core.Analysis, confidence float64) {
	key := core.PatternKey(analysis.Intent, analysis.Complexity)
	idx, ok := m.patternIndex[key]
	if !ok {
		m.patterns = append(m.patterns, core.Pattern{Key: key})
		idx = len(m.patterns) - 1
		m.patternIndex[key] = idx
	}

	p := &m.patterns[idx]
	p.Count++
	p.AvgConfidence = (p.AvgConfidence + confidence) / 2
	p.Examples = append(p.Examples, core.PatternExample{
		Timestamp: analysis.Timestamp,
		Concepts:  analysis.ConceptNames(),
	})
	if len(p.Examples) > MaxPatternExamples {
		p.Examples = slices.Clone(p.Examples[len(p.Examples)-MaxPatternExamples:])
	}
}

// AppendInsights adds insights to the insight log with a zero usage count.
func (m *Memory) AppendInsights(insights ...core.Insight) {
	for _, in := range insights {
		in.UsageCount = 0
		m.insights = append(m.insights, in)
	}
	m.insights, _ = trim(m.insights)
}

// AppendSession adds an entry to the learning history.
func (m *Memory) AppendSession(session core.LearningSession) {
	m.sessions = append(m.sessions, session)
	m.sessions, _ = trim(m.sessions)
}

// RaiseIntelligence adds delta to the intelligence level, capped at MaxIntelligence.
// Negative deltas are ignored.
func (m *Memory) RaiseIntelligence(delta float64) float64 {
	if delta > 0 {
		m.intelligence = min(MaxIntelligence, m.intelligence+delta)
	}
	return m.intelligence
}

// Intelligence returns the current intelligence level.
func (m *Memory) Intelligence() float64 {
	return m.intelligence
}

// LastAbsorption returns the timestamp of the last absorbed batch.
func (m *Memory) LastAbsorption() string {
	return m.lastAbsorption
}

// SetLastAbsorption records the timestamp of the last absorbed batch.
func (m *Memory) SetLastAbsorption(ts string) {
	m.lastAbsorption = ts
}

// Related returns the interactions among the RecentWindow most recent ones
// that analyzed at least one of the named concepts, oldest first.
func (m *Memory) Related(names []string) []core.Interaction {
	recent := m.conversations[max(0, len(m.conversations)-RecentWindow):]
	var out []core.Interaction
	for _, in := range recent {
		for _, name := range names {
			if in.Analysis.HasConcept(name) {
				out = append(out, cloneInteraction(in))
				break
			}
		}
	}
	return out
}

// PatternsMatching returns the patterns whose key contains any of the names.
func (m *Memory) PatternsMatching(names []string) []core.Pattern {
	var out []core.Pattern
	for _, p := range m.patterns {
		for _, name := range names {
			if strings.Contains(p.Key, name) {
				out = append(out, clonePattern(p))
				break
			}
		}
	}
	return out
}

// Pattern returns a copy of the pattern stored under key.
func (m *Memory) Pattern(key string) (core.Pattern, bool) {
	idx, ok := m.patternIndex[key]
	if !ok {
		return core.Pattern{}, false
	}
	return clonePattern(m.patterns[idx]), true
}

// RecentInsights returns up to n of the most recent insights.
func (m *Memory) RecentInsights(n int) []core.Insight {
	return slices.Clone(m.insights[max(0, len(m.insights)-n):])
}

// RecentSessions returns up to n of the most recent learning sessions.
func (m *Memory) RecentSessions(n int) []core.LearningSession {
	return slices.Clone(m.sessions[max(0, len(m.sessions)-n):])
}

// ConversationCount returns the number of remembered interactions.
func (m *Memory) ConversationCount() int { return len(m.conversations) }

// PatternCount returns the number of distinct patterns.
func (m *Memory) PatternCount() int { return len(m.patterns) }

// InsightCount returns the size of the insight log.
func (m *Memory) InsightCount() int { return len(m.insights) }

// Snapshot returns deep copies of the persisted state.
func (m *Memory) Snapshot() (*core.MemorySnapshot, *core.LearningLog) {
	snap := &core.MemorySnapshot{
		Conversations:     make([]core.Interaction, len(m.conversations)),
		Patterns:          make([]core.Pattern, len(m.patterns)),
		IntelligenceLevel: m.intelligence,
		LastAbsorption:    m.lastAbsorption,
	}
	for i, in := range m.conversations {
		snap.Conversations[i] = cloneInteraction(in)
	}
	for i, p := range m.patterns {
		snap.Patterns[i] = clonePattern(p)
	}
	log := &core.LearningLog{
		Insights: slices.Clone(m.insights),
		Sessions: slices.Clone(m.sessions),
	}
	return snap, log
}

// Restore replaces the memory contents with copies of the given snapshot and log.
// Either may be nil, leaving the corresponding part empty. Restored logs are
// trimmed and the intelligence level is clamped to [0, MaxIntelligence].
func (m *Memory) Restore(snap *core.MemorySnapshot, log *core.LearningLog) {
	*m = *New()
	if snap != nil {
		for _, in := range snap.Conversations {
			m.conversations = append(m.conversations, cloneInteraction(in))
		}
		m.conversations, _ = trim(m.conversations)
		for _, p := range snap.Patterns {
			if _, dup := m.patternIndex[p.Key]; dup {
				continue
			}
			m.patternIndex[p.Key] = len(m.patterns)
			m.patterns = append(m.patterns, clonePattern(p))
		}
		m.intelligence = max(0, min(MaxIntelligence, snap.IntelligenceLevel))
		m.lastAbsorption = snap.LastAbsorption
	}
	if log != nil {
		m.insights, _ = trim(slices.Clone(log.Insights))
		m.sessions, _ = trim(slices.Clone(log.Sessions))
	}
}

func clonePattern(p core.Pattern) core.Pattern {
	p.Examples = slices.Clone(p.Examples)
	for i := range p.Examples {
		p.Examples[i].Concepts = slices.Clone(p.Examples[i].Concepts)
	}
	return p
}

func cloneInteraction(in core.Interaction) core.Interaction {
	in.Analysis = CloneAnalysis(in.Analysis)
	in.Insights = slices.Clone(in.Insights)
	return in
}

// CloneAnalysis returns a deep copy of an analysis.
func CloneAnalysis(a core.Analysis) core.Analysis {
	a.Concepts = slices.Clone(a.Concepts)
	a.KnowledgeGaps = slices.Clone(a.KnowledgeGaps)
	a.Context = slices.Clone(a.Context)
	return a
}
