package workflow

import "memegen/internal/domain"

// Phase is the workflow state derived from the state fields.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseReady      Phase = "ready"
	PhaseGenerating Phase = "generating"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// State is a snapshot of the workflow. Result and Error are never both set,
// and both are empty while Busy.
type State struct {
	Image   *domain.UploadedImage
	StyleID string
	Note    string
	Busy    bool
	Result  *domain.GeneratedImage
	Error   string
	Notice  string
}

// Phase reports where the workflow is.
func (s State) Phase() Phase {
	switch {
	case s.Busy:
		return PhaseGenerating
	case s.Result != nil:
		return PhaseSucceeded
	case s.Error != "":
		return PhaseFailed
	case s.Image != nil:
		return PhaseReady
	default:
		return PhaseIdle
	}
}

func (s State) clone() State {
	out := s
	if s.Image != nil {
		img := *s.Image
		out.Image = &img
	}
	if s.Result != nil {
		res := *s.Result
		out.Result = &res
	}
	return out
}
