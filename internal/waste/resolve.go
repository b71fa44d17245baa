// Package waste maps raw detection fields to a canonical waste category.
package waste

import (
	"strings"

	"github.com/ecosort/smartbin/internal/model"
)

// MinConfidence is the overall-confidence floor below which a detection
// never earns credits.
const MinConfidence = 0.65

// Normalize maps a free-form sensor label to a canonical category.
// Matching is case-insensitive and ignores surrounding whitespace;
// unrecognized labels map to CategoryNone.
func Normalize(label string) model.Category {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "dry", "plastic", "plastics":
		return model.CategoryDry
	case "electronic", "e-waste", "ewaste", "e_waste":
		return model.CategoryElectronic
	case "wet", "organic":
		return model.CategoryWet
	default:
		return model.CategoryNone
	}
}

// Resolve returns the canonical category for a detection event.
//
// Object classes are preferred over the device's own routing decision, with
// Electronic winning over Dry regardless of object order or count. When no
// object yields a reward-relevant class the destination field decides, then
// the optional label field, else CategoryNone.
func Resolve(ev *model.DetectionEvent) model.Category {
	var dry bool
	for _, obj := range ev.Objects {
		switch Normalize(obj.Class) {
		case model.CategoryElectronic:
			return model.CategoryElectronic
		case model.CategoryDry:
			dry = true
		}
	}
	if dry {
		return model.CategoryDry
	}
	if c := Normalize(ev.Destination); c != model.CategoryNone {
		return c
	}
	return Normalize(ev.Label)
}
