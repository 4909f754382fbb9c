package wireframe

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

const (
	fontHeightRatio = 0.45
	fontCharWidth   = 0.55
	fontSizeMin     = 8.0
	fontSizeMax     = 28.0
	textInset       = 8.0
)

// fontSize picks a size that fits a single line of n characters into a
// w×h box, capped by the template size when one is set.
func fontSize(w, h float64, n int, template float64) float64 {
	n = max(1, n)
	byHeight := h * fontHeightRatio
	byWidth := (w - 2*textInset) / (float64(n) * fontCharWidth)
	size := max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
	if template > 0 {
		size = min(size, template)
	}
	return size
}

// truncate shortens s to what fits into width at size.
func truncate(s string, width, size float64) string {
	maxChars := max(3, int((width-2*textInset)/(size*fontCharWidth)))
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxChars-2]) + ".."
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
