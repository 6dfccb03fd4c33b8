package cognition

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/atlas/core"
)

// Graph is the read view of the concept graph used by a query.
type Graph interface {
	RetrieveRelevant(promptLower string) []core.ConceptMatch
	Neighbors(name string) []string
	Get(name string) (*core.Concept, bool)
}

// Memory is the interaction memory a query reads and, while learning, writes.
type Memory interface {
	Related(names []string) []core.Interaction
	PatternsMatching(names []string) []core.Pattern
	Record(interaction core.Interaction)
	UpdatePattern(analysis *core.Analysis, confidence float64)
	AppendInsights(insights ...core.Insight)
	AppendSession(session core.LearningSession)
	RaiseIntelligence(delta float64) float64
}

// InteractionIncrement is the intelligence gained per completed query.
const InteractionIncrement = 0.1

// Query is one request to the pipeline.
type Query struct {
	Prompt  string          `json:"prompt"`
	Context json.RawMessage `json:"context,omitempty"`
}

// Pipeline runs queries through the five phases.
// It holds no graph or memory state of its own; callers serialize access to those.
type Pipeline struct {
	builders map[core.Intent]Builder
	monitor  Monitor
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor sets the monitor notified of phase transitions.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithBuilder overrides the response builder for one intent.
func WithBuilder(intent core.Intent, builder Builder) Option {
	return func(p *Pipeline) error {
		if builder == nil {
			delete(p.builders, intent)
			return nil
		}
		p.builders[intent] = builder
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		p.now = now
		return nil
	}
}

// WithIDGenerator overrides how interaction IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) error {
		p.newID = newID
		return nil
	}
}

// NewPipeline creates a Pipeline with the default response builders.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		builders: DefaultBuilders(),
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "cognition")
	return p, nil
}

// Think answers a query. The graph and memory are only written in the final
// learning phase; an error in any earlier phase returns before anything changes.
// The context is checked once before the query starts. Phases are never interrupted.
func (p *Pipeline) Think(ctx context.Context, g Graph, m Memory, q Query) (resp *core.Response, err error) {
	if g == nil {
		return nil, ErrGraphRequired
	}
	if m == nil {
		return nil, ErrMemoryRequired
	}
	if err := core.ValidatePrompt(q.Prompt); err != nil {
		return nil, err
	}
	queryContext, err := core.NormalizeContext(q.Context)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.monitor.Start(q.Prompt)
	defer func() { p.monitor.Finish(err) }()

	p.monitor.EnterPhase(PhaseAnalyzing)
	analysis := Analyze(g, q.Prompt, queryContext, p.now())
	p.logger.Debug("analyzed prompt",
		"intent", analysis.Intent,
		"concepts", len(analysis.Concepts),
		"complexity", analysis.Complexity)

	p.monitor.EnterPhase(PhaseRetrieving)
	knowledge := Retrieve(g, m, &analysis)

	p.monitor.EnterPhase(PhaseGeneratingInsights)
	insights := GenerateInsights(&analysis, knowledge)

	p.monitor.EnterPhase(PhaseSynthesizing)
	resp, err = Synthesize(p.builders, &analysis, knowledge, insights, p.now())
	if err != nil {
		return nil, err
	}

	p.monitor.EnterPhase(PhaseLearning)
	p.learn(m, q.Prompt, resp, &analysis, insights)

	p.monitor.EnterPhase(PhaseDone)
	return resp, nil
}

// learn records the interaction and its side effects in memory.
func (p *Pipeline) learn(m Memory, prompt string, resp *core.Response, analysis *core.Analysis, insights []core.Insight) {
	interaction := core.Interaction{
		ID:        p.newID(),
		Prompt:    prompt,
		Response:  resp.Content,
		Analysis:  *analysis,
		Insights:  insights,
		Timestamp: p.now(),
	}
	m.Record(interaction)
	m.UpdatePattern(analysis, resp.Confidence)

	logged := make([]core.Insight, len(insights))
	for i, in := range insights {
		in.SourceInteraction = interaction.Timestamp
		in.UsageCount = 0
		logged[i] = in
	}
	m.AppendInsights(logged...)

	level := m.RaiseIntelligence(InteractionIncrement)
	m.AppendSession(core.LearningSession{
		Timestamp:         interaction.Timestamp,
		ConceptsLearned:   len(analysis.Concepts),
		InsightsGenerated: len(insights),
		IntelligenceLevel: level,
	})

	p.logger.Info("learned from interaction",
		"id", interaction.ID,
		"insights", len(insights),
		"intelligence_level", level)
}
