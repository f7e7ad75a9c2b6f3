package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"woundtrack-backend/internal/reference"
)

const dateLayout = "2006-01-02"

// Number is an integer that also accepts its decimal string form, as sent by
// numeric text inputs.
type Number int

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%q is not a whole number", raw)
	}
	*n = Number(v)
	return nil
}

// OptionalNumber is a Number that can be left unanswered. A missing key, null
// and a blank string all leave it unset, so a required rule rejects them.
type OptionalNumber struct {
	Value Number
	Set   bool
}

func (o *OptionalNumber) UnmarshalJSON(b []byte) error {
	*o = OptionalNumber{}
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
	}
	if err := o.Value.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// optionalNumberValue exposes an unset OptionalNumber as nil to the validator.
func optionalNumberValue(field reflect.Value) any {
	if o, ok := field.Interface().(OptionalNumber); ok && o.Set {
		return int(o.Value)
	}
	return nil
}

// MeasurementsForm is the role-specific body of the measurements screen.
type MeasurementsForm interface {
	toMeasurements() Measurements
	catalogFields() []catalogField
}

// NewMeasurementsForm returns an empty form for role, ready to be decoded into.
func NewMeasurementsForm(role Role) MeasurementsForm {
	if role.Specialist() {
		return &SpecialistMeasurementsForm{}
	}
	return &PatientMeasurementsForm{}
}

// PatientMeasurementsForm is what patients report about their wound.
type PatientMeasurementsForm struct {
	Width           Number         `json:"width" validate:"gt=0"`
	Length          Number         `json:"length" validate:"gt=0"`
	PainLevel       OptionalNumber `json:"painLevel" validate:"required,min=0,max=10"`
	DressingChanges string         `json:"dressingChanges" validate:"required"`
	PusColor        string         `json:"pusColor" validate:"required"`
	HadFever        *bool          `json:"hadFever" validate:"required"`
}

func (f *PatientMeasurementsForm) toMeasurements() Measurements {
	return Measurements{
		Width:                 int(f.Width),
		Length:                int(f.Length),
		PainLevel:             painString(f.PainLevel),
		ExudateType:           strings.TrimSpace(f.PusColor),
		DressingChangesPerDay: strings.TrimSpace(f.DressingChanges),
		HadFever:              f.HadFever != nil && *f.HadFever,
	}
}

func (f *PatientMeasurementsForm) catalogFields() []catalogField {
	return []catalogField{
		{field: "dressingChanges", table: reference.DressingChanges, code: f.DressingChanges},
		{field: "pusColor", table: reference.ExudateType, code: f.PusColor},
	}
}

// SpecialistMeasurementsForm is the full clinical assessment.
type SpecialistMeasurementsForm struct {
	Width           Number         `json:"width" validate:"gt=0"`
	Length          Number         `json:"length" validate:"gt=0"`
	PainLevel       OptionalNumber `json:"painLevel" validate:"required,min=0,max=10"`
	ExudateAmount   string         `json:"exudateAmount" validate:"required"`
	ExudateType     string         `json:"exudateType" validate:"required"`
	TissueType      string         `json:"tissueType" validate:"required"`
	WoundEdges      string         `json:"woundEdges" validate:"required"`
	SkinAround      string         `json:"skinAround" validate:"required"`
	DressingChanges string         `json:"dressingChanges" validate:"required"`
	HadFever        *bool          `json:"hadFever" validate:"required"`
	TrackDate       string         `json:"trackDate" validate:"omitempty,datetime=2006-01-02"`
}

func (f *SpecialistMeasurementsForm) toMeasurements() Measurements {
	m := Measurements{
		Width:                 int(f.Width),
		Length:                int(f.Length),
		PainLevel:             painString(f.PainLevel),
		ExudateAmount:         strings.TrimSpace(f.ExudateAmount),
		ExudateType:           strings.TrimSpace(f.ExudateType),
		TissueType:            strings.TrimSpace(f.TissueType),
		WoundEdges:            strings.TrimSpace(f.WoundEdges),
		SkinAround:            strings.TrimSpace(f.SkinAround),
		DressingChangesPerDay: strings.TrimSpace(f.DressingChanges),
		HadFever:              f.HadFever != nil && *f.HadFever,
	}
	if f.TrackDate != "" {
		if d, err := time.Parse(dateLayout, f.TrackDate); err == nil {
			m.TrackDate = d
		}
	}
	return m
}

func (f *SpecialistMeasurementsForm) catalogFields() []catalogField {
	return []catalogField{
		{field: "exudateAmount", table: reference.ExudateAmount, code: f.ExudateAmount},
		{field: "exudateType", table: reference.ExudateType, code: f.ExudateType},
		{field: "tissueType", table: reference.TissueType, code: f.TissueType},
		{field: "woundEdges", table: reference.WoundEdges, code: f.WoundEdges},
		{field: "skinAround", table: reference.SkinAround, code: f.SkinAround},
		{field: "dressingChanges", table: reference.DressingChanges, code: f.DressingChanges},
	}
}

// ConductForm is the body of the conduct screen.
type ConductForm struct {
	ExtraNotes          string `json:"extraNotes" validate:"max=2000"`
	GuidelinesToPatient string `json:"guidelinesToPatient" validate:"max=2000"`
}

// WoundForm registers a wound when the wizard was entered without one.
type WoundForm struct {
	Region    string `json:"region" validate:"required"`
	Subregion string `json:"subregion" validate:"required"`
	WoundType string `json:"woundType" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
}

type catalogField struct {
	field string
	table string
	code  string
}

// Validator checks screen input against struct rules and the reference catalog.
type Validator struct {
	v       *validator.Validate
	catalog *reference.Catalog
}

// NewValidator constructs a Validator backed by catalog.
func NewValidator(catalog *reference.Catalog) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(optionalNumberValue, OptionalNumber{})
	return &Validator{v: v, catalog: catalog}
}

// Measurements validates a measurements form and converts it.
func (v *Validator) Measurements(form MeasurementsForm, now time.Time) (Measurements, error) {
	if form == nil {
		return Measurements{}, ErrInvalidInput
	}
	fields := v.structErrors(form)
	fields = append(fields, v.catalogErrors(form.catalogFields(), fields)...)
	m := form.toMeasurements()
	if !m.TrackDate.IsZero() && m.TrackDate.After(now) {
		fields = append(fields, FieldError{Field: "trackDate", Message: "cannot be in the future"})
	}
	if len(fields) > 0 {
		return Measurements{}, &ValidationError{Fields: fields}
	}
	return m, nil
}

// Conduct validates the conduct screen. Guidelines are kept for specialists only.
func (v *Validator) Conduct(role Role, form ConductForm) (Conduct, error) {
	if fields := v.structErrors(&form); len(fields) > 0 {
		return Conduct{}, &ValidationError{Fields: fields}
	}
	c := Conduct{ExtraNotes: strings.TrimSpace(form.ExtraNotes)}
	if role.Specialist() {
		c.GuidelinesToPatient = strings.TrimSpace(form.GuidelinesToPatient)
	}
	return c, nil
}

// Wound validates a create-wound form, including the region/subregion pairing.
func (v *Validator) Wound(form WoundForm, now time.Time) (WoundForm, error) {
	fields := v.structErrors(&form)
	fields = append(fields, v.catalogErrors([]catalogField{
		{field: "region", table: reference.WoundRegion, code: form.Region},
		{field: "subregion", table: reference.WoundSubregion, code: form.Subregion},
		{field: "woundType", table: reference.WoundType, code: form.WoundType},
	}, fields)...)

	if !hasField(fields, "region") && !hasField(fields, "subregion") && v.catalog != nil {
		if parent := v.catalog.ParentOf(reference.WoundSubregion, strings.TrimSpace(form.Subregion)); parent != strings.TrimSpace(form.Region) {
			fields = append(fields, FieldError{Field: "subregion", Message: "does not belong to the selected region"})
		}
	}
	if !hasField(fields, "startDate") {
		if d, err := time.Parse(dateLayout, form.StartDate); err == nil && d.After(now) {
			fields = append(fields, FieldError{Field: "startDate", Message: "cannot be in the future"})
		}
	}
	if len(fields) > 0 {
		return WoundForm{}, &ValidationError{Fields: fields}
	}
	form.Region = strings.TrimSpace(form.Region)
	form.Subregion = strings.TrimSpace(form.Subregion)
	form.WoundType = strings.TrimSpace(form.WoundType)
	return form, nil
}

func (v *Validator) structErrors(s any) []FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

// catalogErrors skips fields that already failed struct validation.
func (v *Validator) catalogErrors(checks []catalogField, existing []FieldError) []FieldError {
	if v.catalog == nil {
		return nil
	}
	var out []FieldError
	for _, chk := range checks {
		if hasField(existing, chk.field) {
			continue
		}
		if !v.catalog.Has(chk.table, strings.TrimSpace(chk.code)) {
			out = append(out, FieldError{Field: chk.field, Message: "is not a recognized option"})
		}
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func hasField(fields []FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

func painString(n OptionalNumber) string {
	if !n.Set {
		return ""
	}
	return strconv.Itoa(int(n.Value))
}
