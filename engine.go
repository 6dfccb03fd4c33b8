package atlas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/graph"
	"github.com/poiesic/atlas/ingestion"
	"github.com/poiesic/atlas/memory"
	"github.com/poiesic/atlas/metrics"
)

// Read API sizes.
const (
	TopConceptsShown    = 5
	RecentInsightsShown = 5
	SessionsShown       = 10

	// DefaultLastLearning is reported before any batch has been absorbed.
	DefaultLastLearning = "Initializing..."
)

// Engine is the single owner of the concept graph and interaction memory.
type Engine struct {
	mu       sync.Mutex
	graph    *graph.Store
	memory   *memory.Memory
	pipeline *cognition.Pipeline
	absorber *ingestion.Absorber

	gateway  *Gateway
	source   ingestion.BatchSource
	metrics  *metrics.Metrics
	monitor  cognition.Monitor
	savePool *ants.Pool
	poolSize int

	pendingSave atomic.Pointer[State]
	saving      atomic.Bool

	states         stateTracker
	learningActive atomic.Bool
	closed         atomic.Bool
	polled         bool // a batch was absorbed by PollAbsorption; guarded by mu

	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithGateway enables persistence. Without a gateway the engine starts from
// seeded defaults and never saves.
func WithGateway(gateway *Gateway) Option {
	return func(e *Engine) error {
		e.gateway = gateway
		return nil
	}
}

// WithBatchSource sets where PollAbsorption looks for new batches.
func WithBatchSource(source ingestion.BatchSource) Option {
	return func(e *Engine) error {
		e.source = source
		return nil
	}
}

// WithMetrics feeds engine activity into the given collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithMonitor adds a monitor notified of query phase transitions.
func WithMonitor(monitor cognition.Monitor) Option {
	return func(e *Engine) error {
		e.monitor = monitor
		return nil
	}
}

// WithSavePoolSize sets the number of background save workers.
// Default is 1, which keeps saves strictly ordered.
func WithSavePoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.poolSize = size
		return nil
	}
}

// NewEngine creates an Engine, loading saved state through the gateway when one
// is configured and seeding the base concepts when the graph is empty.
func NewEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:   slog.Default(),
		poolSize: 1,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "engine")

	var err error
	if e.graph, err = graph.NewStore(); err != nil {
		return nil, err
	}
	e.memory = memory.New()

	monitors := []cognition.Monitor{&e.states, e.monitor}
	if e.metrics != nil {
		monitors = append(monitors, e.metrics.QueryMonitor())
	}
	e.pipeline, err = cognition.NewPipeline(
		cognition.WithLogger(e.logger),
		cognition.WithMonitor(cognition.Monitors(monitors...)),
	)
	if err != nil {
		return nil, err
	}
	if e.absorber, err = ingestion.NewAbsorber(ingestion.WithLogger(e.logger)); err != nil {
		return nil, err
	}

	if e.savePool, err = ants.NewPool(e.poolSize, ants.WithLogger(antsLogger{e.logger})); err != nil {
		return nil, err
	}

	if e.gateway != nil {
		st := e.gateway.Load(ctx)
		e.graph.Restore(st.Concepts)
		e.memory.Restore(st.Memory, st.Log)
	}
	if e.graph.Len() == 0 {
		e.graph.Seed()
	}
	e.updateGauges()

	e.logger.Info("engine ready",
		"concepts", e.graph.Len(),
		"conversations", e.memory.ConversationCount(),
		"intelligence_level", e.memory.Intelligence())
	return e, nil
}

// Think answers a query and learns from it. Any pipeline failure is logged and
// reported as ErrQueryFailed; nothing is recorded for a failed query.
func (e *Engine) Think(ctx context.Context, q cognition.Query) (*core.Response, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	resp, err := e.pipeline.Think(ctx, e.graph, e.memory, q)
	var st State
	if err == nil {
		st = e.snapshotLocked()
		e.updateGaugesLocked()
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("query failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	e.scheduleSave(st)
	return resp, nil
}

// Absorb folds a batch into the concept graph and raises the intelligence level.
// A non-empty batch timestamp is remembered as the last absorption.
func (e *Engine) Absorb(ctx context.Context, batch *ingestion.Batch) (ingestion.Summary, error) {
	if e.closed.Load() {
		return ingestion.Summary{}, ErrEngineClosed
	}

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return ingestion.Summary{}, ErrEngineClosed
	}
	summary, err := e.absorbLocked(batch)
	var st State
	if err == nil {
		st = e.snapshotLocked()
	}
	e.mu.Unlock()

	if err != nil {
		e.observeBatch("error")
		return summary, err
	}
	e.observeBatch("absorbed")
	e.observeSummary(summary)
	e.scheduleSave(st)
	return summary, nil
}

func (e *Engine) absorbLocked(batch *ingestion.Batch) (ingestion.Summary, error) {
	e.states.learning.Store(true)
	defer e.states.learning.Store(false)

	summary, err := e.absorber.Absorb(e.graph, batch)
	if err != nil {
		return summary, err
	}
	before := e.memory.Intelligence()
	after := e.memory.RaiseIntelligence(summary.Increment)
	if after > before {
		e.logger.Info("intelligence level raised", "from", before, "to", after)
	}
	if batch != nil && batch.Timestamp != "" {
		e.memory.SetLastAbsorption(batch.Timestamp)
	}
	e.updateGaugesLocked()
	return summary, nil
}

// PollAbsorption absorbs the batch source's current batch if its timestamp
// differs from the last absorbed one. It reports whether a batch was absorbed.
// A malformed batch is logged and skipped without changing state.
func (e *Engine) PollAbsorption(ctx context.Context) (bool, error) {
	if e.source == nil {
		return false, ErrNoBatchSource
	}
	if e.closed.Load() {
		return false, ErrEngineClosed
	}

	batch, err := e.source.Latest(ctx)
	switch {
	case errors.Is(err, ingestion.ErrNoBatch):
		return false, nil
	case errors.Is(err, ingestion.ErrMalformedBatch):
		e.logger.Warn("skipping malformed absorption batch", "error", err)
		e.observeBatch("malformed")
		return false, err
	case err != nil:
		e.logger.Warn("absorption batch unavailable", "error", err)
		return false, err
	}

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return false, ErrEngineClosed
	}
	if e.seenLocked(batch.Timestamp) {
		e.mu.Unlock()
		return false, nil
	}
	summary, err := e.absorbLocked(batch)
	var st State
	if err == nil {
		// Remember even an empty timestamp so the same batch is not absorbed again.
		e.memory.SetLastAbsorption(batch.Timestamp)
		e.polled = true
		st = e.snapshotLocked()
	}
	e.mu.Unlock()

	if err != nil {
		e.observeBatch("error")
		return false, err
	}
	e.observeBatch("absorbed")
	e.observeSummary(summary)
	e.logger.Info("new knowledge absorbed", "timestamp", batch.Timestamp)
	e.scheduleSave(st)
	return true, nil
}

// seenLocked reports whether a polled batch with this timestamp was already
// absorbed. A timestamp-less batch matches the empty initial value, so it only
// counts as seen once this engine has polled one in.
func (e *Engine) seenLocked(ts string) bool {
	if ts != e.memory.LastAbsorption() {
		return false
	}
	return ts != "" || e.polled
}

// ConsolidationReport describes one consolidation cycle.
type ConsolidationReport struct {
	Reinforced int   `json:"reinforced"`
	Trimmed    bool  `json:"trimmed"`
	SaveError  error `json:"-"`
}

// Consolidate reinforces well-supported concepts, trims the interaction memory
// and saves everything synchronously. It is the retry path for failed saves.
func (e *Engine) Consolidate(ctx context.Context) (ConsolidationReport, error) {
	if e.closed.Load() {
		return ConsolidationReport{}, ErrEngineClosed
	}

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return ConsolidationReport{}, ErrEngineClosed
	}
	report := ConsolidationReport{
		Reinforced: e.graph.Reinforce(),
		Trimmed:    e.memory.Trim(),
	}
	st := e.snapshotLocked()
	e.updateGaugesLocked()
	e.mu.Unlock()

	if report.Reinforced > 0 {
		e.logger.Info("concepts consolidated", "reinforced", report.Reinforced)
	}
	if e.metrics != nil {
		e.metrics.Consolidations.Inc()
		e.metrics.Reinforced.Add(float64(report.Reinforced))
	}
	report.SaveError = e.persist(ctx, st)
	return report, nil
}

// Status reports what the engine is doing and how much it knows.
func (e *Engine) Status() core.Status {
	states := e.states.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	last := e.memory.LastAbsorption()
	if last == "" {
		last = DefaultLastLearning
	}
	return core.Status{
		IsThinking:              states.Any(),
		CognitiveStates:         states,
		IntelligenceLevel:       e.memory.Intelligence(),
		ConceptsLearned:         e.graph.Len(),
		TotalInsights:           e.memory.InsightCount(),
		ConversationsRemembered: e.memory.ConversationCount(),
		PatternsRecognized:      e.memory.PatternCount(),
		LastLearning:            last,
		LearningActive:          e.learningActive.Load(),
	}
}

// CognitiveInsights returns the strongest concepts and the recent learning history.
func (e *Engine) CognitiveInsights() core.CognitiveInsights {
	states := e.states.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	return core.CognitiveInsights{
		TopConcepts:       e.graph.TopByConfidence(TopConceptsShown),
		RecentInsights:    e.memory.RecentInsights(RecentInsightsShown),
		LearningEvolution: e.memory.RecentSessions(SessionsShown),
		CurrentThinking:   states,
	}
}

// Concept returns a copy of the named concept.
func (e *Engine) Concept(name string) (*core.Concept, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Get(name)
}

// SetLearningActive records whether background learning is running.
func (e *Engine) SetLearningActive(active bool) {
	e.learningActive.Store(active)
}

// Save persists the current state synchronously.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	st := e.snapshotLocked()
	e.mu.Unlock()
	return e.persist(ctx, st)
}

// Close waits for background saves, then saves once more. Mutations that have
// not taken the lock by then are rejected with ErrEngineClosed.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	swapped := e.closed.CompareAndSwap(false, true)
	e.mu.Unlock()
	if !swapped {
		return nil
	}
	var errs []error
	if err := e.savePool.ReleaseTimeout(10 * time.Second); err != nil {
		errs = append(errs, err)
	}
	if err := e.Save(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) snapshotLocked() State {
	snap, log := e.memory.Snapshot()
	return State{
		Concepts: e.graph.Snapshot(),
		Memory:   snap,
		Log:      log,
	}
}

func (e *Engine) persist(ctx context.Context, st State) error {
	if e.gateway == nil {
		return nil
	}
	err := e.gateway.Save(ctx, st)
	if e.metrics != nil {
		e.metrics.ObserveSave(err)
	}
	return err
}

// scheduleSave hands a snapshot to the save worker. Snapshots arriving while a
// save runs replace each other so only the newest is written; the caller never
// waits on the write itself.
func (e *Engine) scheduleSave(st State) {
	if e.gateway == nil {
		return
	}
	e.pendingSave.Store(&st)
	if !e.saving.CompareAndSwap(false, true) {
		return
	}
	if err := e.savePool.Submit(e.drainSaves); err != nil {
		e.saving.Store(false)
		e.logger.Warn("background save not scheduled", "error", err)
	}
}

func (e *Engine) drainSaves() {
	for {
		st := e.pendingSave.Swap(nil)
		if st == nil {
			e.saving.Store(false)
			// A snapshot stored after the swap saw saving still set and left it to us.
			if e.pendingSave.Load() == nil || !e.saving.CompareAndSwap(false, true) {
				return
			}
			continue
		}
		_ = e.persist(context.Background(), *st)
	}
}

func (e *Engine) updateGauges() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateGaugesLocked()
}

func (e *Engine) updateGaugesLocked() {
	if e.metrics == nil {
		return
	}
	e.metrics.IntelligenceLevel.Set(e.memory.Intelligence())
	e.metrics.Concepts.Set(float64(e.graph.Len()))
	e.metrics.Conversations.Set(float64(e.memory.ConversationCount()))
}

func (e *Engine) observeBatch(outcome string) {
	if e.metrics != nil {
		e.metrics.Batches.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) observeSummary(s ingestion.Summary) {
	if e.metrics != nil {
		e.metrics.AbsorbedSamples.Add(float64(s.Absorbed))
		e.metrics.Discovered.Add(float64(len(s.Discovered)))
	}
}

// antsLogger routes the pool's panic reports through slog.
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
