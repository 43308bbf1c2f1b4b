package layout

import "strings"

// Measurer reports rendered text widths in points. The pdf package
// provides the real font metrics; tests substitute a fixed-width fake so
// layout stays independent of any drawing backend.
type Measurer interface {
	TextWidth(text, family string, bold bool, size float64) float64
}

// WrapText greedily wraps text into lines no wider than maxW. A single
// word wider than the column is broken mid-word so nothing is truncated.
func WrapText(m Measurer, text, family string, bold bool, size, maxW float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := ""
	for _, w := range words {
		test := strings.TrimSpace(cur + " " + w)
		if m.TextWidth(test, family, bold, size) <= maxW {
			cur = test
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		if m.TextWidth(w, family, bold, size) > maxW {
			chunk := ""
			for _, r := range w {
				t2 := chunk + string(r)
				if m.TextWidth(t2, family, bold, size) <= maxW {
					chunk = t2
				} else {
					if chunk != "" {
						lines = append(lines, chunk)
					}
					chunk = string(r)
				}
			}
			cur = chunk
		} else {
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
