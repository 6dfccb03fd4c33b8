package atlas

import (
	"sync/atomic"

	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/core"
)

// stateTracker mirrors pipeline phases into cognitive-state flags that can be
// read without the engine lock.
type stateTracker struct {
	analyzing          atomic.Bool
	learning           atomic.Bool
	creating           atomic.Bool
	problemSolving     atomic.Bool
	patternRecognition atomic.Bool
}

var _ cognition.Monitor = (*stateTracker)(nil)

func (s *stateTracker) Start(_ string) {
	s.analyzing.Store(true)
	s.patternRecognition.Store(true)
}

func (s *stateTracker) EnterPhase(phase cognition.Phase) {
	switch phase {
	case cognition.PhaseGeneratingInsights:
		s.creating.Store(true)
	case cognition.PhaseSynthesizing:
		s.creating.Store(false)
		s.problemSolving.Store(true)
	case cognition.PhaseLearning:
		s.problemSolving.Store(false)
		s.learning.Store(true)
	case cognition.PhaseDone:
		s.learning.Store(false)
	}
}

func (s *stateTracker) Finish(_ error) {
	s.analyzing.Store(false)
	s.learning.Store(false)
	s.creating.Store(false)
	s.problemSolving.Store(false)
	s.patternRecognition.Store(false)
}

func (s *stateTracker) snapshot() core.CognitiveStates {
	return core.CognitiveStates{
		Analyzing:          s.analyzing.Load(),
		Learning:           s.learning.Load(),
		Creating:           s.creating.Load(),
		ProblemSolving:     s.problemSolving.Load(),
		PatternRecognition: s.patternRecognition.Load(),
	}
}
