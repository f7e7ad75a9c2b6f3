package devbackend

import (
	"encoding/json"
	"time"
)

// Wound is a wound as stored by the dev backend.
type Wound struct {
	ID        int64
	PatientID int64
	Region    string
	Subregion string
	WoundType string
	StartDate time.Time
	ImageID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Image is an uploaded wound photo.
type Image struct {
	ID          int64
	Owner       string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	CreatedAt   time.Time
}

// TrackingRecord is one stored observation. Payload keeps the body as received.
type TrackingRecord struct {
	ID        int64
	WoundID   int64
	ImageID   int64
	Payload   json.RawMessage
	TrackDate time.Time
	CreatedAt time.Time
}
