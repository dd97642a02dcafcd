// Package arbiter asks an LLM to pick the best of several candidate
// translations of one sentence, or to compose a better one from them.
package arbiter

import (
	"context"

	"github.com/valpere/bitext/internal/orchestrator"
)

// Composite is the Selected value of an evaluation that merged candidates.
const Composite = "composite"

type Evaluation struct {
	// Selected is the model tag of the chosen candidate, or Composite.
	Selected  string
	Text      string
	Reasoning string
}

func (e *Evaluation) IsComposite() bool { return e.Selected == Composite }

type Arbiter interface {
	Evaluate(ctx context.Context, source, sourceLang, targetLang string, candidates []orchestrator.Candidate) (*Evaluation, error)
}
