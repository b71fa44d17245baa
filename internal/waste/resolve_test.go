package waste

import (
	"testing"

	"github.com/ecosort/smartbin/internal/model"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	cases := map[string]model.Category{
		"dry":         model.CategoryDry,
		"plastic":     model.CategoryDry,
		"plastics":    model.CategoryDry,
		" Plastic ":   model.CategoryDry,
		"electronic":  model.CategoryElectronic,
		"e-waste":     model.CategoryElectronic,
		"ewaste":      model.CategoryElectronic,
		"E_WASTE":     model.CategoryElectronic,
		"wet":         model.CategoryWet,
		"organic":     model.CategoryWet,
		"":            model.CategoryNone,
		"cardboard":   model.CategoryNone,
		"processing":  model.CategoryNone,
		"reject":      model.CategoryNone,
		"none":        model.CategoryNone,
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ev   model.DetectionEvent
		want model.Category
	}{
		{
			name: "electronic beats dry regardless of order",
			ev: model.DetectionEvent{Objects: []model.DetectedObject{
				{Class: "dry"}, {Class: "electronic"},
			}},
			want: model.CategoryElectronic,
		},
		{
			name: "electronic first still wins",
			ev: model.DetectionEvent{Objects: []model.DetectedObject{
				{Class: "e-waste"}, {Class: "plastic"}, {Class: "plastic"},
			}},
			want: model.CategoryElectronic,
		},
		{
			name: "single plastic maps to dry",
			ev:   model.DetectionEvent{Objects: []model.DetectedObject{{Class: "plastic"}}},
			want: model.CategoryDry,
		},
		{
			name: "no objects falls back to destination",
			ev:   model.DetectionEvent{Destination: "wet"},
			want: model.CategoryWet,
		},
		{
			name: "wet objects do not resolve, destination decides",
			ev: model.DetectionEvent{
				Objects:     []model.DetectedObject{{Class: "organic"}},
				Destination: "processing",
				Label:       "plastic",
			},
			want: model.CategoryDry,
		},
		{
			name: "unrecognized class and no destination",
			ev:   model.DetectionEvent{Objects: []model.DetectedObject{{Class: "cardboard"}}},
			want: model.CategoryNone,
		},
		{
			name: "label used last",
			ev:   model.DetectionEvent{Destination: "processing", Label: "ewaste"},
			want: model.CategoryElectronic,
		},
		{
			name: "empty event",
			ev:   model.DetectionEvent{},
			want: model.CategoryNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(&tt.ev); got != tt.want {
				t.Fatalf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()
	ev := model.DetectionEvent{Objects: []model.DetectedObject{
		{Class: "plastic"}, {Class: "cardboard"}, {Class: "e_waste"},
	}}
	first := Resolve(&ev)
	for i := 0; i < 100; i++ {
		if got := Resolve(&ev); got != first {
			t.Fatalf("resolution changed between calls: %v then %v", first, got)
		}
	}
}
