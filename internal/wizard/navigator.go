package wizard

import "fmt"

// SkipWarning is shown after the first skip request.
const SkipWarning = "Continue without a photo? Tap skip again to confirm."

// Navigator walks one draft through measurements, photo and conduct. Guards that
// need the network live in Service; the navigator only enforces ordering and
// what each screen may write.
type Navigator struct {
	role      Role
	step      Step
	skipArmed bool
	acc       *Accumulator
}

// NewNavigator starts at the measurements screen with an empty draft.
func NewNavigator(role Role, ctx Context) *Navigator {
	return &Navigator{role: role, step: StepMeasurements, acc: NewAccumulator(ctx)}
}

// Role is the capability the navigator was created with.
func (n *Navigator) Role() Role { return n.role }

// Step is the current screen.
func (n *Navigator) Step() Step { return n.step }

// Draft returns a copy of the accumulated draft.
func (n *Navigator) Draft() Draft { return n.acc.Draft() }

// SkipArmed reports whether the next skip on the photo screen advances.
func (n *Navigator) SkipArmed() bool { return n.skipArmed }

// Done reports whether the conduct screen has been submitted.
func (n *Navigator) Done() bool { return n.step == StepDone }

// Expect fails unless the navigator is on step.
func (n *Navigator) Expect(step Step) error {
	if n.step != step {
		return fmt.Errorf("%w: at %s, need %s", ErrInvalidStep, n.step, step)
	}
	return nil
}

// SetWound records the wound created from inside the wizard.
func (n *Navigator) SetWound(id int64) error {
	n.disarm()
	if err := n.Expect(StepMeasurements); err != nil {
		return err
	}
	if n.acc.Draft().Context.WoundID != 0 {
		return ErrWoundAlreadySet
	}
	n.acc.Update(func(d Draft) Draft {
		d.Context.WoundID = id
		return d
	})
	return nil
}

// SubmitMeasurements merges validated measurements and moves to the photo screen.
func (n *Navigator) SubmitMeasurements(m Measurements) error {
	n.disarm()
	if err := n.Expect(StepMeasurements); err != nil {
		return err
	}
	n.acc.Update(func(d Draft) Draft {
		d.Measurements = m
		return d
	})
	return n.advance(StepPhoto)
}

// AttachImage merges an uploaded image id and moves to the conduct screen.
func (n *Navigator) AttachImage(imageID int64) error {
	n.disarm()
	if err := n.Expect(StepPhoto); err != nil {
		return err
	}
	n.acc.Update(func(d Draft) Draft {
		d.Photo = Photo{ImageID: imageID}
		return d
	})
	return n.advance(StepConduct)
}

// Skip needs two consecutive calls on the photo screen. The first arms the skip
// and reports advanced=false; the second clears any image and moves on.
func (n *Navigator) Skip() (advanced bool, err error) {
	if err := n.Expect(StepPhoto); err != nil {
		n.disarm()
		return false, err
	}
	if !n.skipArmed {
		n.skipArmed = true
		return false, nil
	}
	n.skipArmed = false
	n.acc.Update(func(d Draft) Draft {
		d.Photo = Photo{}
		return d
	})
	return true, n.advance(StepConduct)
}

// PrepareConduct merges the conduct section and returns the draft to submit. A
// draft without a wound can never be submitted.
func (n *Navigator) PrepareConduct(c Conduct) (Draft, error) {
	n.disarm()
	if n.acc.Draft().Context.WoundID == 0 {
		return Draft{}, ErrMissingWound
	}
	if err := n.Expect(StepConduct); err != nil {
		return Draft{}, err
	}
	n.acc.Update(func(d Draft) Draft {
		d.Conduct = c
		return d
	})
	return n.acc.Draft(), nil
}

// Complete marks the wizard finished after a successful submit.
func (n *Navigator) Complete() error {
	return n.advance(StepDone)
}

// Back returns to the previous screen, keeping every draft field.
func (n *Navigator) Back() error {
	n.disarm()
	prev, ok := n.step.Previous()
	if !ok {
		return fmt.Errorf("%w: no screen before %s", ErrInvalidStep, n.step)
	}
	n.step = prev
	return nil
}

// Disarm cancels a pending skip confirmation.
func (n *Navigator) Disarm() {
	n.disarm()
}

func (n *Navigator) advance(target Step) error {
	if !n.step.CanAdvanceTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStep, n.step, target)
	}
	n.step = target
	return nil
}

func (n *Navigator) disarm() {
	n.skipArmed = false
}
