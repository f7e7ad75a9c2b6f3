package wizard

import "time"

type draftResponse struct {
	WoundID               int64  `json:"wound_id"`
	PatientID             int64  `json:"patient_id"`
	Width                 int    `json:"width"`
	Length                int    `json:"length"`
	PainLevel             string `json:"pain_level"`
	ExudateAmount         string `json:"exudate_amount"`
	ExudateType           string `json:"exudate_type"`
	TissueType            string `json:"tissue_type"`
	WoundEdges            string `json:"wound_edges"`
	SkinAround            string `json:"skin_around"`
	DressingChangesPerDay string `json:"dressing_changes_per_day"`
	HadFever              bool   `json:"had_fever"`
	ImageID               *int64 `json:"image_id,omitempty"`
	ExtraNotes            string `json:"extra_notes"`
	GuidelinesToPatient   string `json:"guidelines_to_patient"`
	TrackDate             string `json:"track_date,omitempty"`
}

type stateResponse struct {
	WizardID  string        `json:"wizardId"`
	Role      string        `json:"role"`
	Step      string        `json:"step"`
	Pending   string        `json:"pending,omitempty"`
	SkipArmed bool          `json:"skipArmed"`
	Draft     draftResponse `json:"draft"`
	PainBand  *PainBand     `json:"painBand,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

type skipResponse struct {
	stateResponse
	Confirmed bool   `json:"confirmed"`
	Warning   string `json:"warning,omitempty"`
}

type resultResponse struct {
	WizardID         string `json:"wizardId"`
	TrackingRecordID int64  `json:"trackingRecordId"`
	WoundID          int64  `json:"woundId"`
	PatientID        int64  `json:"patientId"`
	ImageID          *int64 `json:"imageId,omitempty"`
	LinkStatus       string `json:"linkStatus"`
	Next             string `json:"next"`
}

func toStateResponse(st State) stateResponse {
	d := st.Draft
	resp := stateResponse{
		WizardID:  st.WizardID,
		Role:      st.Role.String(),
		Step:      string(st.Step),
		Pending:   string(st.Pending),
		SkipArmed: st.SkipArmed,
		PainBand:  st.PainBand,
		CreatedAt: st.CreatedAt,
		Draft: draftResponse{
			WoundID:               d.Context.WoundID,
			PatientID:             d.Context.PatientID,
			Width:                 d.Measurements.Width,
			Length:                d.Measurements.Length,
			PainLevel:             d.Measurements.PainLevel,
			ExudateAmount:         d.Measurements.ExudateAmount,
			ExudateType:           d.Measurements.ExudateType,
			TissueType:            d.Measurements.TissueType,
			WoundEdges:            d.Measurements.WoundEdges,
			SkinAround:            d.Measurements.SkinAround,
			DressingChangesPerDay: d.Measurements.DressingChangesPerDay,
			HadFever:              d.Measurements.HadFever,
			ExtraNotes:            d.Conduct.ExtraNotes,
			GuidelinesToPatient:   d.Conduct.GuidelinesToPatient,
		},
	}
	if d.HasImage() {
		id := d.Photo.ImageID
		resp.Draft.ImageID = &id
	}
	if !d.Measurements.TrackDate.IsZero() {
		resp.Draft.TrackDate = d.Measurements.TrackDate.Format(dateLayout)
	}
	return resp
}

func toResultResponse(res Result) resultResponse {
	resp := resultResponse{
		WizardID:         res.WizardID,
		TrackingRecordID: res.TrackingRecordID,
		WoundID:          res.WoundID,
		PatientID:        res.PatientID,
		LinkStatus:       string(res.LinkStatus),
		Next:             res.Next,
	}
	if res.ImageID != 0 {
		id := res.ImageID
		resp.ImageID = &id
	}
	return resp
}
