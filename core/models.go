package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Concept IDs are derived from the concept name with content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Intent is the coarse classification of a query's purpose.
type Intent string

const (
	IntentHowTo          Intent = "how_to"
	IntentDefinition     Intent = "definition"
	IntentAssistance     Intent = "assistance"
	IntentCreation       Intent = "creation"
	IntentAnalysis       Intent = "analysis"
	IntentProblemSolving Intent = "problem_solving"
	IntentOptimization   Intent = "optimization"
	IntentGeneral        Intent = "general_inquiry"
)

// Complexity buckets the heuristic complexity score of a prompt.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// EmotionalTone is the keyword-detected tone of a prompt.
type EmotionalTone string

const (
	ToneUrgent      EmotionalTone = "urgent"
	ToneSeekingHelp EmotionalTone = "seeking_help"
	TonePositive    EmotionalTone = "positive"
	ToneFrustrated  EmotionalTone = "frustrated"
	ToneNeutral     EmotionalTone = "neutral"
)

// InsightType identifies which insight generator produced an Insight.
type InsightType string

const (
	InsightPatternRecognition  InsightType = "pattern_recognition"
	InsightConceptSynthesis    InsightType = "concept_synthesis"
	InsightLearningOpportunity InsightType = "learning_opportunity"
)

// Confidence bounds shared by absorption and consolidation.
const (
	MaxAbsorbedConfidence     = 0.99
	MaxConsolidatedConfidence = 0.95
	ConfidenceStep            = 0.05
)

// Concept is a named node in the knowledge graph.
type Concept struct {
	Name             string
	Weight           float64  // Static importance in [0,1], set at creation
	Connections      []string // Related keywords, not necessarily existing concepts
	Confidence       float64
	LearnedInstances []LearnedInstance
	Discovered       bool // Created by pattern-based discovery rather than seeding
	LastUpdated      time.Time
	Ordinal          uint64 // Insertion order within the store
}

// ID returns the content-based identifier of the concept.
func (c *Concept) ID() ID {
	return IDFromContent(c.Name)
}

// Clone returns a deep copy of the concept.
func (c *Concept) Clone() *Concept {
	clone := *c
	clone.Connections = append([]string(nil), c.Connections...)
	clone.LearnedInstances = append([]LearnedInstance(nil), c.LearnedInstances...)
	return &clone
}

// LearnedInstance is one piece of absorbed content attached to a concept.
type LearnedInstance struct {
	Content   string // Compact JSON of the absorbed sample
	Source    string
	Timestamp time.Time
	Relevance float64
}

// ConceptMatch is a concept found relevant to a prompt.
type ConceptMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Relevance  float64 `json:"relevance"`
}

// KnowledgeGap is a matched concept whose confidence is below the gap threshold.
type KnowledgeGap struct {
	Concept     string  `json:"concept"`
	Confidence  float64 `json:"confidence"`
	GapSeverity float64 `json:"gap_severity"`
}

// Analysis is produced fresh for every query and embedded in its Interaction.
type Analysis struct {
	Intent             Intent          `json:"intent"`
	Concepts           []ConceptMatch  `json:"concepts"`
	Complexity         Complexity      `json:"complexity"`
	EmotionalTone      EmotionalTone   `json:"emotional_tone"`
	RequiresCreativity bool            `json:"requires_creativity"`
	KnowledgeGaps      []KnowledgeGap  `json:"knowledge_gaps"`
	Context            json.RawMessage `json:"context,omitempty"`
	Timestamp          time.Time       `json:"timestamp"`
}

// ConceptNames returns the names of the analyzed concepts in ranked order.
func (a *Analysis) ConceptNames() []string {
	names := make([]string, len(a.Concepts))
	for i, c := range a.Concepts {
		names[i] = c.Name
	}
	return names
}

// HasConcept reports whether the analysis matched a concept with the given name.
func (a *Analysis) HasConcept(name string) bool {
	for _, c := range a.Concepts {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Insight is a short derived observation attached to a response.
type Insight struct {
	Type              InsightType `json:"type"`
	Content           string      `json:"content"`
	Confidence        float64     `json:"confidence"`
	SourceInteraction time.Time   `json:"source_interaction"`
	UsageCount        int         `json:"usage_count"`
}

// Interaction is one completed query/response cycle.
type Interaction struct {
	ID        string
	Prompt    string
	Response  string
	Analysis  Analysis
	Insights  []Insight
	Timestamp time.Time
}

// PatternExample records which concepts were involved in one occurrence of a pattern.
type PatternExample struct {
	Timestamp time.Time `json:"timestamp"`
	Concepts  []string  `json:"concepts"`
}

// Pattern aggregates statistics for an (intent, complexity) pair.
type Pattern struct {
	Key           string           `json:"key"`
	Count         int              `json:"count"`
	AvgConfidence float64          `json:"avg_confidence"`
	Examples      []PatternExample `json:"examples"`
}

// PatternKey builds the key under which a Pattern is stored.
func PatternKey(intent Intent, complexity Complexity) string {
	return string(intent) + "_" + string(complexity)
}

// LearningSession summarizes one interaction for the learning history.
type LearningSession struct {
	Timestamp         time.Time `json:"timestamp"`
	ConceptsLearned   int       `json:"concepts_learned"`
	InsightsGenerated int       `json:"insights_generated"`
	IntelligenceLevel float64   `json:"intelligence_level"`
}

// MemorySnapshot is the persisted form of Interaction Memory.
type MemorySnapshot struct {
	Conversations     []Interaction
	Patterns          []Pattern // Insertion order
	IntelligenceLevel float64
	LastAbsorption    string // Timestamp string of the last absorbed batch
}

// LearningLog is the persisted insight log and learning history.
type LearningLog struct {
	Insights []Insight
	Sessions []LearningSession
}

// Response is the result of a query.
type Response struct {
	Content          string    `json:"content"`
	Reasoning        []string  `json:"reasoning"`
	AppliedKnowledge []string  `json:"applied_knowledge"`
	Confidence       float64   `json:"confidence"`
	Timestamp        time.Time `json:"timestamp"`
}

// CognitiveStates exposes which pipeline activities are currently running.
type CognitiveStates struct {
	Analyzing          bool `json:"analyzing"`
	Learning           bool `json:"learning"`
	Creating           bool `json:"creating"`
	ProblemSolving     bool `json:"problem_solving"`
	PatternRecognition bool `json:"pattern_recognition"`
}

// Any reports whether any cognitive state is active.
func (s CognitiveStates) Any() bool {
	return s.Analyzing || s.Learning || s.Creating || s.ProblemSolving || s.PatternRecognition
}

// Status is the engine's thinking status.
type Status struct {
	IsThinking              bool            `json:"is_thinking"`
	CognitiveStates         CognitiveStates `json:"cognitive_states"`
	IntelligenceLevel       float64         `json:"intelligence_level"`
	ConceptsLearned         int             `json:"concepts_learned"`
	TotalInsights           int             `json:"total_insights"`
	ConversationsRemembered int             `json:"conversations_remembered"`
	PatternsRecognized      int             `json:"patterns_recognized"`
	LastLearning            string          `json:"last_learning"`
	LearningActive          bool            `json:"learning_active"`
}

// ConceptSummary is a compact view of a concept for read APIs.
type ConceptSummary struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Instances  int     `json:"instances"`
}

// CognitiveInsights is a read-only view of what the engine has learned.
type CognitiveInsights struct {
	TopConcepts       []ConceptSummary  `json:"top_concepts"`
	RecentInsights    []Insight         `json:"recent_insights"`
	LearningEvolution []LearningSession `json:"learning_evolution"`
	CurrentThinking   CognitiveStates   `json:"current_thinking"`
}
