package submissions

import "time"

// LinkStatus tracks the best-effort wound-image association after a submit.
type LinkStatus string

const (
	// LinkNone means no image was attached, so nothing needed linking.
	LinkNone   LinkStatus = "none"
	LinkLinked LinkStatus = "linked"
	LinkFailed LinkStatus = "failed"
)

// Entry is one completed wizard submission.
type Entry struct {
	ID               string
	WizardID         string
	Role             string
	Subject          string
	PatientID        int64
	WoundID          int64
	TrackingRecordID int64
	ImageID          int64
	LinkStatus       LinkStatus
	LinkError        string
	LinkAttempts     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
