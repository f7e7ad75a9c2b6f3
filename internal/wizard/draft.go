// Package wizard implements the wound-update wizard: a draft accumulated across
// the measurements, photo and conduct screens and flushed to the backend once.
package wizard

import (
	"time"

	"woundtrack-backend/internal/woundapi"
)

// Context identifies what the wizard is updating. PatientID travels with the
// wizard but is not part of the tracking record.
type Context struct {
	WoundID   int64
	PatientID int64
}

// Measurements is written by the measurements screen.
type Measurements struct {
	Width                 int
	Length                int
	PainLevel             string
	ExudateAmount         string
	ExudateType           string
	TissueType            string
	WoundEdges            string
	SkinAround            string
	DressingChangesPerDay string
	HadFever              bool
	// TrackDate is only chosen by specialists. Zero means submission time.
	TrackDate time.Time
}

// Photo is written by the photo screen. ImageID 0 means no image.
type Photo struct {
	ImageID int64
}

// Conduct is written by the conduct screen.
type Conduct struct {
	ExtraNotes          string
	GuidelinesToPatient string
}

// Draft is one in-progress wound update. Each screen replaces only its own section.
type Draft struct {
	Context      Context
	Measurements Measurements
	Photo        Photo
	Conduct      Conduct
}

// HasImage reports whether an uploaded image is attached.
func (d Draft) HasImage() bool {
	return d.Photo.ImageID != 0
}

// Payload builds the tracking-record body sent on the final submit.
func (d Draft) Payload(now time.Time) woundapi.TrackingRecordInput {
	m := d.Measurements
	trackDate := m.TrackDate
	if trackDate.IsZero() {
		trackDate = now
	}
	in := woundapi.TrackingRecordInput{
		WoundID:               d.Context.WoundID,
		Width:                 m.Width,
		Length:                m.Length,
		PainLevel:             m.PainLevel,
		ExudateAmount:         m.ExudateAmount,
		ExudateType:           m.ExudateType,
		TissueType:            m.TissueType,
		WoundEdges:            m.WoundEdges,
		SkinAround:            m.SkinAround,
		DressingChangesPerDay: m.DressingChangesPerDay,
		HadFever:              m.HadFever,
		ExtraNotes:            d.Conduct.ExtraNotes,
		GuidelinesToPatient:   d.Conduct.GuidelinesToPatient,
		TrackDate:             trackDate.UTC(),
	}
	if d.HasImage() {
		id := d.Photo.ImageID
		in.ImageID = &id
	}
	return in
}
