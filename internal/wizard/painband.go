package wizard

import "fmt"

// PainBand is the color-coded presentation of a pain level.
type PainBand struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	bandNone     = PainBand{Name: "none", Color: "#4caf50"}
	bandMild     = PainBand{Name: "mild", Color: "#ffc107"}
	bandModerate = PainBand{Name: "moderate", Color: "#ff9800"}
	bandSevere   = PainBand{Name: "severe", Color: "#f44336"}
)

// BandFor maps a 0-10 pain level to its band.
func BandFor(level int) (PainBand, error) {
	switch {
	case level == 0:
		return bandNone, nil
	case level >= 1 && level <= 4:
		return bandMild, nil
	case level >= 5 && level <= 7:
		return bandModerate, nil
	case level >= 8 && level <= 10:
		return bandSevere, nil
	default:
		return PainBand{}, fmt.Errorf("pain level %d out of range", level)
	}
}
