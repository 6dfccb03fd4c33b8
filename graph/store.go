package graph

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/atlas/core"
)

// Store is the in-memory concept graph keyed by concept name.
type Store struct {
	concepts map[string]*core.Concept
	order    []string
	next     uint64
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		s.now = now
		return nil
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		concepts: make(map[string]*core.Concept),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Seed installs the base concept set. Concepts already present are left alone.
func (s *Store) Seed() {
	for _, sd := range seeds {
		s.Upsert(sd.name, sd.weight, sd.connections)
	}
}

// Len returns the number of concepts.
func (s *Store) Len() int {
	return len(s.order)
}

// Get returns a copy of the named concept.
func (s *Store) Get(name string) (*core.Concept, bool) {
	c, ok := s.concepts[name]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Upsert creates the concept with seed confidence if it does not exist.
// It reports whether a concept was created.
func (s *Store) Upsert(name string, weight float64, connections []string) bool {
	if _, ok := s.concepts[name]; ok {
		return false
	}
	s.add(&core.Concept{
		Name:        name,
		Weight:      weight,
		Connections: slices.Clone(connections),
		Confidence:  SeedConfidence,
		LastUpdated: s.now(),
	})
	return true
}

func (s *Store) add(c *core.Concept) {
	c.Ordinal = s.next
	s.next++
	s.concepts[c.Name] = c
	s.order = append(s.order, c.Name)
}

// RecordAbsorption attaches content to an existing concept and raises its confidence.
func (s *Store) RecordAbsorption(name, content, source string) error {
	c, ok := s.concepts[name]
	if !ok {
		return ErrConceptNotFound
	}
	now := s.now()
	c.LearnedInstances = append(c.LearnedInstances, core.LearnedInstance{
		Content:   content,
		Source:    source,
		Timestamp: now,
		Relevance: CalculateRelevance(content, c),
	})
	if len(c.LearnedInstances) > MaxLearnedInstances {
		c.LearnedInstances = slices.Clone(c.LearnedInstances[len(c.LearnedInstances)-RetainedInstances:])
	}
	c.Confidence = min(core.MaxAbsorbedConfidence, c.Confidence+core.ConfidenceStep)
	c.LastUpdated = now
	return nil
}

// DiscoverIfMatched creates a concept for every discovery rule the content hits
// whose concept does not exist yet. It returns the names created.
func (s *Store) DiscoverIfMatched(content, source string) []string {
	lower := strings.ToLower(content)
	var created []string
	for _, rule := range discoveryRules {
		if _, exists := s.concepts[rule.concept]; exists || !rule.matches(lower) {
			continue
		}
		now := s.now()
		s.add(&core.Concept{
			Name:        rule.concept,
			Weight:      DiscoveredWeight,
			Connections: slices.Clone(rule.keywords),
			Confidence:  DiscoveredConfidence,
			LearnedInstances: []core.LearnedInstance{{
				Content:   content,
				Source:    source,
				Timestamp: now,
				Relevance: DiscoveredRelevance,
			}},
			Discovered:  true,
			LastUpdated: now,
		})
		created = append(created, rule.concept)
	}
	return created
}

// CalculateRelevance scores content against a concept: 0.5 plus 0.15 for each
// connection found in the content, capped at 1.
func CalculateRelevance(content string, concept *core.Concept) float64 {
	lower := strings.ToLower(content)
	score := 0.5
	for _, conn := range concept.Connections {
		if strings.Contains(lower, strings.ToLower(conn)) {
			score += 0.15
		}
	}
	return min(1.0, score)
}

// RelevanceToPrompt scores a concept against a lowercased prompt: 0.5 if the
// prompt contains the name, plus 0.2 per connection present, capped at 1.
func RelevanceToPrompt(promptLower string, concept *core.Concept) float64 {
	score := 0.0
	if strings.Contains(promptLower, concept.Name) {
		score += 0.5
	}
	for _, conn := range concept.Connections {
		if strings.Contains(promptLower, conn) {
			score += 0.2
		}
	}
	return min(1.0, score)
}

func mentions(promptLower string, concept *core.Concept) bool {
	if strings.Contains(promptLower, concept.Name) {
		return true
	}
	for _, conn := range concept.Connections {
		if strings.Contains(promptLower, conn) {
			return true
		}
	}
	return false
}

// RetrieveRelevant returns every concept the lowercased prompt mentions,
// ordered by non-increasing RelevanceToPrompt. Ties keep insertion order.
func (s *Store) RetrieveRelevant(promptLower string) []core.ConceptMatch {
	var matches []core.ConceptMatch
	for _, name := range s.order {
		c := s.concepts[name]
		if !mentions(promptLower, c) {
			continue
		}
		matches = append(matches, core.ConceptMatch{
			Name:       c.Name,
			Confidence: c.Confidence,
			Relevance:  RelevanceToPrompt(promptLower, c),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
	return matches
}

// Neighbors returns the connections of the named concept that are themselves
// concepts in the store, in connection order.
func (s *Store) Neighbors(name string) []string {
	c, ok := s.concepts[name]
	if !ok {
		return nil
	}
	var out []string
	for _, conn := range c.Connections {
		if _, exists := s.concepts[conn]; exists && conn != name {
			out = append(out, conn)
		}
	}
	return out
}

// Reinforce raises by one step, up to the consolidation cap, the confidence of
// every concept holding more than ReinforceMinInstances learned instances and
// sitting below ReinforceBelow. It returns how many concepts changed.
func (s *Store) Reinforce() int {
	changed := 0
	now := s.now()
	for _, name := range s.order {
		c := s.concepts[name]
		if len(c.LearnedInstances) <= ReinforceMinInstances || c.Confidence >= ReinforceBelow {
			continue
		}
		c.Confidence = min(core.MaxConsolidatedConfidence, c.Confidence+core.ConfidenceStep)
		c.LastUpdated = now
		changed++
	}
	return changed
}

// TopByConfidence returns up to n concepts with the highest confidence.
func (s *Store) TopByConfidence(n int) []core.ConceptSummary {
	all := make([]core.ConceptSummary, 0, len(s.order))
	for _, name := range s.order {
		c := s.concepts[name]
		all = append(all, core.ConceptSummary{
			Name:       c.Name,
			Confidence: c.Confidence,
			Instances:  len(c.LearnedInstances),
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Snapshot returns deep copies of all concepts in insertion order.
func (s *Store) Snapshot() []*core.Concept {
	out := make([]*core.Concept, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.concepts[name].Clone())
	}
	return out
}

// Restore replaces the store contents with copies of the given concepts.
// Concepts are kept in Ordinal order and later duplicates of a name are ignored.
func (s *Store) Restore(concepts []*core.Concept) {
	sorted := slices.DeleteFunc(slices.Clone(concepts), func(c *core.Concept) bool { return c == nil })
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordinal < sorted[j].Ordinal
	})

	s.concepts = make(map[string]*core.Concept, len(sorted))
	s.order = make([]string, 0, len(sorted))
	s.next = 0
	for _, c := range sorted {
		if _, dup := s.concepts[c.Name]; dup {
			continue
		}
		clone := c.Clone()
		s.concepts[clone.Name] = clone
		s.order = append(s.order, clone.Name)
		s.next = max(s.next, clone.Ordinal+1)
	}
}
