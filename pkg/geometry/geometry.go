// Package geometry defines page sizes for export. All dimensions are in
// PDF points (72 per inch) once parsed; user-facing custom sizes are in
// centimeters.
package geometry

import (
	"fmt"
	"sort"
)

// CmToPt converts centimeters to PDF points.
func CmToPt(cm float64) float64 {
	return cm * 72.0 / 2.54
}

// MaxCustomCm bounds custom page dimensions. Anything larger is almost
// certainly a unit mix-up, not a real label sheet.
const MaxCustomCm = 200.0

// PageSize is a concrete page geometry in points.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// ISO 216 sizes in points.
var presets = map[string]PageSize{
	"a4-portrait":  {Name: "a4-portrait", Width: 595.28, Height: 841.89},
	"a4-landscape": {Name: "a4-landscape", Width: 841.89, Height: 595.28},
	"a5-portrait":  {Name: "a5-portrait", Width: 419.53, Height: 595.28},
	"a5-landscape": {Name: "a5-landscape", Width: 595.28, Height: 419.53},
}

// Preset returns a named page size.
func Preset(name string) (PageSize, error) {
	p, ok := presets[name]
	if !ok {
		return PageSize{}, fmt.Errorf("unknown page size %q (known: %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the known preset names in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Custom builds a page size from centimeter dimensions.
func Custom(widthCm, heightCm float64) (PageSize, error) {
	if widthCm <= 0 || heightCm <= 0 {
		return PageSize{}, fmt.Errorf("page dimensions must be positive, got %.2fx%.2f cm", widthCm, heightCm)
	}
	if widthCm > MaxCustomCm || heightCm > MaxCustomCm {
		return PageSize{}, fmt.Errorf("page dimensions exceed %.0f cm, got %.2fx%.2f cm", MaxCustomCm, widthCm, heightCm)
	}
	return PageSize{
		Name:   fmt.Sprintf("custom-%.1fx%.1fcm", widthCm, heightCm),
		Width:  CmToPt(widthCm),
		Height: CmToPt(heightCm),
	}, nil
}
