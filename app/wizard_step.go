package app

// Step is the wizard's position in the upload, configure, submit, result flow.
type Step string

const (
	StepAwaitingUpload   Step = "awaiting_upload"
	StepConfiguringModel Step = "configuring_model"
	StepSubmitting       Step = "submitting"
	StepShowingResult    Step = "showing_result"
)

func (s Step) String() string { return string(s) }

// CanTransitionTo checks if a step transition is valid
// Valid transitions:
//
//	awaiting_upload -> configuring_model
//	configuring_model -> submitting | awaiting_upload (abort)
//	submitting -> showing_result | configuring_model (failure)
//	showing_result -> awaiting_upload (reset)
func (s Step) CanTransitionTo(next Step) bool {
	switch s {
	case StepAwaitingUpload:
		return next == StepConfiguringModel
	case StepConfiguringModel:
		return next == StepSubmitting || next == StepAwaitingUpload
	case StepSubmitting:
		return next == StepShowingResult || next == StepConfiguringModel
	case StepShowingResult:
		return next == StepAwaitingUpload
	default:
		return false
	}
}
