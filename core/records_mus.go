package core

import (
	"encoding/json"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Serializers for persisted records, composed from mus-go primitives.
// Field order is part of the on-disk format: append new fields at the end only.

var (
	ConceptMUS        mus.Serializer[Concept]        = conceptMUS{}
	InteractionMUS    mus.Serializer[Interaction]    = interactionMUS{}
	PatternMUS        mus.Serializer[Pattern]        = patternMUS{}
	MemorySnapshotMUS mus.Serializer[MemorySnapshot] = memorySnapshotMUS{}
	LearningLogMUS    mus.Serializer[LearningLog]    = learningLogMUS{}
)

// reader tracks the offset and first error while decoding a struct field by field.
type reader struct {
	bs  []byte
	n   int
	err error
}

func read[T any](r *reader, s mus.Serializer[T]) (v T) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = s.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

type writer struct {
	bs []byte
	n  int
}

func write[T any](w *writer, s mus.Serializer[T], v T) {
	w.n += s.Marshal(v, w.bs[w.n:])
}

// timeMUS stores Unix microseconds; the zero time is stored as 0.
type timeMUS struct{}

var timeSer mus.Serializer[time.Time] = timeMUS{}

func micros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func (timeMUS) Marshal(v time.Time, bs []byte) int { return varint.Int64.Marshal(micros(v), bs) }
func (timeMUS) Size(v time.Time) int               { return varint.Int64.Size(micros(v)) }
func (timeMUS) Skip(bs []byte) (int, error)        { return varint.Int64.Skip(bs) }
func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || v == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

// sliceMUS encodes a length prefix followed by each element.
type sliceMUS[T any] struct {
	elem mus.Serializer[T]
}

func (s sliceMUS[T]) Marshal(v []T, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, e := range v {
		n += s.elem.Marshal(e, bs[n:])
	}
	return n
}

func (s sliceMUS[T]) Size(v []T) (size int) {
	size = varint.PositiveInt.Size(len(v))
	for _, e := range v {
		size += s.elem.Size(e)
	}
	return size
}

func (s sliceMUS[T]) Unmarshal(bs []byte) (v []T, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	// Every element occupies at least one byte.
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrCorruptRecord
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]T, length)
	for i := range v {
		var n1 int
		v[i], n1, err = s.elem.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (s sliceMUS[T]) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

var (
	stringsSer mus.Serializer[[]string] = sliceMUS[string]{elem: ord.String}

	learnedInstanceSer mus.Serializer[LearnedInstance] = learnedInstanceMUS{}
	conceptMatchSer    mus.Serializer[ConceptMatch]    = conceptMatchMUS{}
	knowledgeGapSer    mus.Serializer[KnowledgeGap]    = knowledgeGapMUS{}
	analysisSer        mus.Serializer[Analysis]        = analysisMUS{}
	insightSer         mus.Serializer[Insight]         = insightMUS{}
	patternExampleSer  mus.Serializer[PatternExample]  = patternExampleMUS{}
	learningSessionSer mus.Serializer[LearningSession] = learningSessionMUS{}

	learnedInstancesSer mus.Serializer[[]LearnedInstance] = sliceMUS[LearnedInstance]{elem: learnedInstanceSer}
	conceptMatchesSer   mus.Serializer[[]ConceptMatch]    = sliceMUS[ConceptMatch]{elem: conceptMatchSer}
	knowledgeGapsSer    mus.Serializer[[]KnowledgeGap]    = sliceMUS[KnowledgeGap]{elem: knowledgeGapSer}
	insightsSer         mus.Serializer[[]Insight]         = sliceMUS[Insight]{elem: insightSer}
	patternExamplesSer  mus.Serializer[[]PatternExample]  = sliceMUS[PatternExample]{elem: patternExampleSer}
	interactionsSer     mus.Serializer[[]Interaction]     = sliceMUS[Interaction]{elem: interactionMUS{}}
	patternsSer         mus.Serializer[[]Pattern]         = sliceMUS[Pattern]{elem: patternMUS{}}
	learningSessionsSer mus.Serializer[[]LearningSession] = sliceMUS[LearningSession]{elem: learningSessionSer}
)

// LearnedInstance

type learnedInstanceMUS struct{}

func (learnedInstanceMUS) Marshal(v LearnedInstance, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.Content)
	write(w, ord.String, v.Source)
	write(w, timeSer, v.Timestamp)
	write(w, varint.Float64, v.Relevance)
	return w.n
}

func (learnedInstanceMUS) Size(v LearnedInstance) int {
	return ord.String.Size(v.Content) + ord.String.Size(v.Source) +
		timeSer.Size(v.Timestamp) + varint.Float64.Size(v.Relevance)
}

func (learnedInstanceMUS) Unmarshal(bs []byte) (v LearnedInstance, n int, err error) {
	r := &reader{bs: bs}
	v.Content = read(r, ord.String)
	v.Source = read(r, ord.String)
	v.Timestamp = read(r, timeSer)
	v.Relevance = read(r, varint.Float64)
	return v, r.n, r.err
}

func (s learnedInstanceMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// Concept

type conceptMUS struct{}

func (conceptMUS) Marshal(v Concept, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.Name)
	write(w, varint.Float64, v.Weight)
	write(w, stringsSer, v.Connections)
	write(w, varint.Float64, v.Confidence)
	write(w, learnedInstancesSer, v.LearnedInstances)
	write(w, ord.Bool, v.Discovered)
	write(w, timeSer, v.LastUpdated)
	write(w, varint.Uint64, v.Ordinal)
	return w.n
}

func (conceptMUS) Size(v Concept) int {
	return ord.String.Size(v.Name) + varint.Float64.Size(v.Weight) +
		stringsSer.Size(v.Connections) + varint.Float64.Size(v.Confidence) +
		learnedInstancesSer.Size(v.LearnedInstances) + ord.Bool.Size(v.Discovered) +
		timeSer.Size(v.LastUpdated) + varint.Uint64.Size(v.Ordinal)
}

func (conceptMUS) Unmarshal(bs []byte) (v Concept, n int, err error) {
	r := &reader{bs: bs}
	v.Name = read(r, ord.String)
	v.Weight = read(r, varint.Float64)
	v.Connections = read(r, stringsSer)
	v.Confidence = read(r, varint.Float64)
	v.LearnedInstances = read(r, learnedInstancesSer)
	v.Discovered = read(r, ord.Bool)
	v.LastUpdated = read(r, timeSer)
	v.Ordinal = read(r, varint.Uint64)
	return v, r.n, r.err
}

func (s conceptMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// ConceptMatch

type conceptMatchMUS struct{}

func (conceptMatchMUS) Marshal(v ConceptMatch, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.Name)
	write(w, varint.Float64, v.Confidence)
	write(w, varint.Float64, v.Relevance)
	return w.n
}

func (conceptMatchMUS) Size(v ConceptMatch) int {
	return ord.String.Size(v.Name) + varint.Float64.Size(v.Confidence) + varint.Float64.Size(v.Relevance)
}

func (conceptMatchMUS) Unmarshal(bs []byte) (v ConceptMatch, n int, err error) {
	r := &reader{bs: bs}
	v.Name = read(r, ord.String)
	v.Confidence = read(r, varint.Float64)
	v.Relevance = read(r, varint.Float64)
	return v, r.n, r.err
}

func (s conceptMatchMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// KnowledgeGap

type knowledgeGapMUS struct{}

func (knowledgeGapMUS) Marshal(v KnowledgeGap, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.Concept)
	write(w, varint.Float64, v.Confidence)
	write(w, varint.Float64, v.GapSeverity)
	return w.n
}

func (knowledgeGapMUS) Size(v KnowledgeGap) int {
	return ord.String.Size(v.Concept) + varint.Float64.Size(v.Confidence) + varint.Float64.Size(v.GapSeverity)
}

func (knowledgeGapMUS) Unmarshal(bs []byte) (v KnowledgeGap, n int, err error) {
	r := &reader{bs: bs}
	v.Concept = read(r, ord.String)
	v.Confidence = read(r, varint.Float64)
	v.GapSeverity = read(r, varint.Float64)
	return v, r.n, r.err
}

func (s knowledgeGapMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// Analysis

type analysisMUS struct{}

func (analysisMUS) Marshal(v Analysis, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, string(v.Intent))
	write(w, conceptMatchesSer, v.Concepts)
	write(w, ord.String, string(v.Complexity))
	write(w, ord.String, string(v.EmotionalTone))
	write(w, ord.Bool, v.RequiresCreativity)
	write(w, knowledgeGapsSer, v.KnowledgeGaps)
	write(w, ord.String, string(v.Context))
	write(w, timeSer, v.Timestamp)
	return w.n
}

func (analysisMUS) Size(v Analysis) int {
	return ord.String.Size(string(v.Intent)) + conceptMatchesSer.Size(v.Concepts) +
		ord.String.Size(string(v.Complexity)) + ord.String.Size(string(v.EmotionalTone)) +
		ord.Bool.Size(v.RequiresCreativity) + knowledgeGapsSer.Size(v.KnowledgeGaps) +
		ord.String.Size(string(v.Context)) + timeSer.Size(v.Timestamp)
}

func (analysisMUS) Unmarshal(bs []byte) (v Analysis, n int, err error) {
	r := &reader{bs: bs}
	v.Intent = Intent(read(r, ord.String))
	v.Concepts = read(r, conceptMatchesSer)
	v.Complexity = Complexity(read(r, ord.String))
	v.EmotionalTone = EmotionalTone(read(r, ord.String))
	v.RequiresCreativity = read(r, ord.Bool)
	v.KnowledgeGaps = read(r, knowledgeGapsSer)
	if raw := read(r, ord.String); raw != "" {
		v.Context = json.RawMessage(raw)
	}
	v.Timestamp = read(r, timeSer)
	return v, r.n, r.err
}

func (s analysisMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// Insight

type insightMUS struct{}

func (insightMUS) Marshal(v Insight, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, string(v.Type))
	write(w, ord.String, v.Content)
	write(w, varint.Float64, v.Confidence)
	write(w, timeSer, v.SourceInteraction)
	write(w, varint.Int, v.UsageCount)
	return w.n
}

func (insightMUS) Size(v Insight) int {
	return ord.String.Size(string(v.Type)) + ord.String.Size(v.Content) +
		varint.Float64.Size(v.Confidence) + timeSer.Size(v.SourceInteraction) +
		varint.Int.Size(v.UsageCount)
}

func (insightMUS) Unmarshal(bs []byte) (v Insight, n int, err error) {
	r := &reader{bs: bs}
	v.Type = InsightType(read(r, ord.String))
	v.Content = read(r, ord.String)
	v.Confidence = read(r, varint.Float64)
	v.SourceInteraction = read(r, timeSer)
	v.UsageCount = read(r, varint.Int)
	return v, r.n, r.err
}

func (s insightMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// Interaction

type interactionMUS struct{}

func (interactionMUS) Marshal(v Interaction, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.ID)
	write(w, ord.String, v.Prompt)
	write(w, ord.String, v.Response)
	write(w, analysisSer, v.Analysis)
	write(w, insightsSer, v.Insights)
	write(w, timeSer, v.Timestamp)
	return w.n
}

func (interactionMUS) Size(v Interaction) int {
	return ord.String.Size(v.ID) + ord.String.Size(v.Prompt) + ord.String.Size(v.Response) +
		analysisSer.Size(v.Analysis) + insightsSer.Size(v.Insights) + timeSer.Size(v.Timestamp)
}

func (interactionMUS) Unmarshal(bs []byte) (v Interaction, n int, err error) {
	r := &reader{bs: bs}
	v.ID = read(r, ord.String)
	v.Prompt = read(r, ord.String)
	v.Response = read(r, ord.String)
	v.Analysis = read(r, analysisSer)
	v.Insights = read(r, insightsSer)
	v.Timestamp = read(r, timeSer)
	return v, r.n, r.err
}

func (s interactionMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// PatternExample

type patternExampleMUS struct{}

func (patternExampleMUS) Marshal(v PatternExample, bs []byte) int {
	w := &writer{bs: bs}
	write(w, timeSer, v.Timestamp)
	write(w, stringsSer, v.Concepts)
	return w.n
}

func (patternExampleMUS) Size(v PatternExample) int {
	return timeSer.Size(v.Timestamp) + stringsSer.Size(v.Concepts)
}

func (patternExampleMUS) Unmarshal(bs []byte) (v PatternExample, n int, err error) {
	r := &reader{bs: bs}
	v.Timestamp = read(r, timeSer)
	v.Concepts = read(r, stringsSer)
	return v, r.n, r.err
}

func (s patternExampleMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// Pattern

type patternMUS struct{}

func (patternMUS) Marshal(v Pattern, bs []byte) int {
	w := &writer{bs: bs}
	write(w, ord.String, v.Key)
	write(w, varint.Int, v.Count)
	write(w, varint.Float64, v.AvgConfidence)
	write(w, patternExamplesSer, v.Examples)
	return w.n
}

func (patternMUS) Size(v Pattern) int {
	return ord.String.Size(v.Key) + varint.Int.Size(v.Count) +
		varint.Float64.Size(v.AvgConfidence) + patternExamplesSer.Size(v.Examples)
}

func (patternMUS) Unmarshal(bs []byte) (v Pattern, n int, err error) {
	r := &reader{bs: bs}
	v.Key = read(r, ord.String)
	v.Count = read(r, varint.Int)
	v.AvgConfidence = read(r, varint.Float64)
	v.Examples = read(r, patternExamplesSer)
	return v, r.n, r.err
}

func (s patternMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// LearningSession

type learningSessionMUS struct{}

func (learningSessionMUS) Marshal(v LearningSession, bs []byte) int {
	w := &writer{bs: bs}
	write(w, timeSer, v.Timestamp)
	write(w, varint.Int, v.ConceptsLearned)
	write(w, varint.Int, v.InsightsGenerated)
	write(w, varint.Float64, v.IntelligenceLevel)
	return w.n
}

func (learningSessionMUS) Size(v LearningSession) int {
	return timeSer.Size(v.Timestamp) + varint.Int.Size(v.ConceptsLearned) +
		varint.Int.Size(v.InsightsGenerated) + varint.Float64.Size(v.IntelligenceLevel)
}

func (learningSessionMUS) Unmarshal(bs []byte) (v LearningSession, n int, err error) {
	r := &reader{bs: bs}
	v.Timestamp = read(r, timeSer)
	v.ConceptsLearned = read(r, varint.Int)
	v.InsightsGenerated = read(r, varint.Int)
	v.IntelligenceLevel = read(r, varint.Float64)
	return v, r.n, r.err
}

func (s learningSessionMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// MemorySnapshot

type memorySnapshotMUS struct{}

func (memorySnapshotMUS) Marshal(v MemorySnapshot, bs []byte) int {
	w := &writer{bs: bs}
	write(w, interactionsSer, v.Conversations)
	write(w, patternsSer, v.Patterns)
	write(w, varint.Float64, v.IntelligenceLevel)
	write(w, ord.String, v.LastAbsorption)
	return w.n
}

func (memorySnapshotMUS) Size(v MemorySnapshot) int {
	return interactionsSer.Size(v.Conversations) + patternsSer.Size(v.Patterns) +
		varint.Float64.Size(v.IntelligenceLevel) + ord.String.Size(v.LastAbsorption)
}

func (memorySnapshotMUS) Unmarshal(bs []byte) (v MemorySnapshot, n int, err error) {
	r := &reader{bs: bs}
	v.Conversations = read(r, interactionsSer)
	v.Patterns = read(r, patternsSer)
	v.IntelligenceLevel = read(r, varint.Float64)
	v.LastAbsorption = read(r, ord.String)
	return v, r.n, r.err
}

func (s memorySnapshotMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

// LearningLog

type learningLogMUS struct{}

func (learningLogMUS) Marshal(v LearningLog, bs []byte) int {
	w := &writer{bs: bs}
	write(w, insightsSer, v.Insights)
	write(w, learningSessionsSer, v.Sessions)
	return w.n
}

func (learningLogMUS) Size(v LearningLog) int {
	return insightsSer.Size(v.Insights) + learningSessionsSer.Size(v.Sessions)
}

func (learningLogMUS) Unmarshal(bs []byte) (v LearningLog, n int, err error) {
	r := &reader{bs: bs}
	v.Insights = read(r, insightsSer)
	v.Sessions = read(r, learningSessionsSer)
	return v, r.n, r.err
}

func (s learningLogMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
