package cognition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/atlas/core"
	"github.com/tmc/langchaingo/prompts"
)

// ResponseConfidence is attached to every synthesized response.
const ResponseConfidence = 0.8

// Builder renders the body of a response for one intent.
type Builder func(analysis *core.Analysis, k *Knowledge) (string, error)

var (
	howToTemplate = prompts.NewPromptTemplate(
		"I understand you need a step-by-step guide. Here is my approach:\n\n{{.steps}}",
		[]string{"steps"})

	problemSolvingTemplate = prompts.NewPromptTemplate(
		"I have analyzed your problem from multiple angles:\n\n{{.strategies}}\n\n"+
			"Based on my experience with similar cases, I recommend...",
		[]string{"strategies"})

	analysisTemplate = prompts.NewPromptTemplate(
		"**Complete analysis**:\n\nI examined the following factors: {{.factors}}.\n\n"+
			"My conclusions based on current data and historical patterns:\n\n"+
			"[Detailed analysis based on relevant knowledge]",
		[]string{"factors"})

	creationTemplate = prompts.NewPromptTemplate(
		"**Creative mode activated**\n\nI generated several innovative ideas based on my knowledge of {{.concepts}}:\n\n"+
			"[Specific creative ideas]",
		[]string{"concepts"})

	generalTemplate = prompts.NewPromptTemplate(
		"I processed your query considering {{.count}} relevant concepts. "+
			"My answer integrates knowledge from multiple sources:\n\n"+
			"[Contextual answer based on dynamic knowledge]",
		[]string{"count"})
)

// HowToPrefix opens every how_to response.
const HowToPrefix = "I understand you need a step-by-step guide. Here is my approach:"

var problemSolvingStrategies = []string{
	"**Problem analysis**: Identifying key factors",
	"**Solution generation**: Exploring multiple approaches",
	"**Option evaluation**: Weighing pros and cons",
	"**Implementation**: Specific action plan",
}

// DefaultBuilders maps each intent with a dedicated template to its builder.
// Intents missing from the table use the general_inquiry builder.
func DefaultBuilders() map[core.Intent]Builder {
	return map[core.Intent]Builder{
		core.IntentHowTo:          buildHowTo,
		core.IntentProblemSolving: buildProblemSolving,
		core.IntentAnalysis:       buildAnalysis,
		core.IntentCreation:       buildCreation,
		core.IntentGeneral:        buildGeneral,
	}
}

func buildHowTo(analysis *core.Analysis, k *Knowledge) (string, error) {
	var steps []string
	for _, m := range analysis.Concepts {
		if c := k.concept(m.Name); c != nil && len(c.LearnedInstances) > 0 {
			steps = append(steps, fmt.Sprintf("**%s**: Based on similar cases, I recommend...", m.Name))
		}
	}
	if len(steps) == 0 {
		steps = append(steps, "Analyzing your query and applying my base knowledge...")
	}
	return howToTemplate.Format(map[string]any{"steps": strings.Join(steps, "\n")})
}

func buildProblemSolving(_ *core.Analysis, _ *Knowledge) (string, error) {
	return problemSolvingTemplate.Format(map[string]any{"strategies": strings.Join(problemSolvingStrategies, "\n")})
}

func buildAnalysis(analysis *core.Analysis, _ *Knowledge) (string, error) {
	return analysisTemplate.Format(map[string]any{"factors": strings.Join(analysis.ConceptNames(), ", ")})
}

func buildCreation(analysis *core.Analysis, _ *Knowledge) (string, error) {
	return creationTemplate.Format(map[string]any{"concepts": strings.Join(analysis.ConceptNames(), ", ")})
}

func buildGeneral(analysis *core.Analysis, _ *Knowledge) (string, error) {
	return generalTemplate.Format(map[string]any{"count": strconv.Itoa(len(analysis.Concepts))})
}

// Synthesize runs the synthesis phase and assembles the response.
func Synthesize(builders map[core.Intent]Builder, analysis *core.Analysis, k *Knowledge, insights []core.Insight, now time.Time) (*core.Response, error) {
	build, ok := builders[analysis.Intent]
	if !ok {
		build, ok = builders[core.IntentGeneral]
	}
	if !ok || build == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplate, analysis.Intent)
	}

	content, err := build(analysis, k)
	if err != nil {
		return nil, fmt.Errorf("rendering %s response: %w", analysis.Intent, err)
	}

	if len(insights) > 0 {
		texts := make([]string, len(insights))
		for i, in := range insights {
			texts[i] = in.Content
		}
		content += "\n\n**Additional insights**: " + strings.Join(texts, " ")
	}

	applied := []string{}
	if len(k.Concepts) > 0 {
		applied = append(applied, "Applying knowledge from: "+strings.Join(k.ConceptNames(), ", "))
	}

	return &core.Response{
		Content:          content,
		Reasoning:        reasoning(analysis, k, insights),
		AppliedKnowledge: applied,
		Confidence:       ResponseConfidence,
		Timestamp:        now,
	}, nil
}

func reasoning(analysis *core.Analysis, k *Knowledge, insights []core.Insight) []string {
	level := "Medium"
	if analysis.Complexity == core.ComplexityHigh {
		level = "High"
	}
	return []string{
		"Detected intent: " + string(analysis.Intent),
		fmt.Sprintf("Concepts analyzed: %d", len(analysis.Concepts)),
		fmt.Sprintf("Knowledge applied: %d concepts", len(k.Concepts)),
		fmt.Sprintf("Insights generated: %d", len(insights)),
		"Confidence level: " + level,
	}
}
