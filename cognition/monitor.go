package cognition

// Phase is a step of the request pipeline.
type Phase int

const (
	PhaseAnalyzing Phase = iota
	PhaseRetrieving
	PhaseGeneratingInsights
	PhaseSynthesizing
	PhaseLearning
	PhaseDone
)

var phaseNames = [...]string{
	PhaseAnalyzing:          "analyzing",
	PhaseRetrieving:         "retrieving",
	PhaseGeneratingInsights: "generating_insights",
	PhaseSynthesizing:       "synthesizing",
	PhaseLearning:           "learning",
	PhaseDone:               "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Monitor provides hooks to observe the pipeline.
// Implement this interface to track phases as a query moves through them.
type Monitor interface {
	Start(prompt string)
	EnterPhase(phase Phase)
	Finish(err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)     {}
func (n *noopMonitor) EnterPhase(_ Phase) {}
func (n *noopMonitor) Finish(_ error)     {}

type multiMonitor []Monitor

func (m multiMonitor) Start(prompt string) {
	for _, mon := range m {
		mon.Start(prompt)
	}
}

func (m multiMonitor) EnterPhase(phase Phase) {
	for _, mon := range m {
		mon.EnterPhase(phase)
	}
}

func (m multiMonitor) Finish(err error) {
	for _, mon := range m {
		mon.Finish(err)
	}
}

// Monitors fans hooks out to every non-nil monitor given.
func Monitors(monitors ...Monitor) Monitor {
	var out multiMonitor
	for _, m := range monitors {
		if m != nil {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return &noopMonitor{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
