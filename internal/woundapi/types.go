package woundapi

import "time"

// TrackingRecordInput is the wire payload of one wound observation.
type TrackingRecordInput struct {
	WoundID               int64     `json:"wound_id"`
	Width                 int       `json:"width"`
	Length                int       `json:"length"`
	PainLevel             string    `json:"pain_level"`
	ExudateAmount         string    `json:"exudate_amount"`
	ExudateType           string    `json:"exudate_type"`
	TissueType            string    `json:"tissue_type"`
	WoundEdges            string    `json:"wound_edges"`
	SkinAround            string    `json:"skin_around"`
	DressingChangesPerDay string    `json:"dressing_changes_per_day"`
	HadFever              bool      `json:"had_fever"`
	ImageID               *int64    `json:"image_id,omitempty"`
	ExtraNotes            string    `json:"extra_notes"`
	GuidelinesToPatient   string    `json:"guidelines_to_patient"`
	TrackDate             time.Time `json:"track_date"`
}

// TrackingRecord is the backend's reply to a created tracking record.
type TrackingRecord struct {
	TrackingRecordID int64  `json:"tracking_record_id"`
	ImageID          *int64 `json:"image_id,omitempty"`
}

// UploadedImage is the backend's reply to an image upload.
type UploadedImage struct {
	ImageID int64 `json:"image_id"`
}

// WoundInput creates a wound for a patient.
type WoundInput struct {
	PatientID int64  `json:"patient_id"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
	WoundType string `json:"wound_type"`
	StartDate string `json:"start_date"`
}

// Wound is the backend representation of a wound.
type Wound struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
	WoundType string `json:"wound_type"`
	StartDate string `json:"start_date"`
	ImageID   *int64 `json:"image_id,omitempty"`
}

// WoundPatch is a partial wound update.
type WoundPatch struct {
	ImageID int64 `json:"image_id"`
}

// Profile is the signed-in user as reported by /auth/me.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}
