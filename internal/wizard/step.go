package wizard

// Step is a wizard screen.
type Step string

const (
	StepMeasurements Step = "measurements"
	StepPhoto        Step = "photo"
	StepConduct      Step = "conduct"
	StepDone         Step = "done"
)

// CanAdvanceTo reports whether moving forward from s to target is allowed.
func (s Step) CanAdvanceTo(target Step) bool {
	switch s {
	case StepMeasurements:
		return target == StepPhoto
	case StepPhoto:
		return target == StepConduct
	case StepConduct:
		return target == StepDone
	case StepDone:
		return false
	default:
		return false
	}
}

// Previous returns the screen the back button leads to.
func (s Step) Previous() (Step, bool) {
	switch s {
	case StepPhoto:
		return StepMeasurements, true
	case StepConduct:
		return StepPhoto, true
	default:
		return "", false
	}
}
