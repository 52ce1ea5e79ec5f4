package canvas

import "github.com/mattn/go-runewidth"

// MeasureText returns the display width of text in terminal cells.
func MeasureText(text string) int {
	return runewidth.StringWidth(text)
}

// FitText shortens text to at most maxWidth cells. When anything is cut
// the result ends in ellipsis, unless even the ellipsis does not fit.
func FitText(text string, maxWidth int, ellipsis string) string {
	if MeasureText(text) <= maxWidth {
		return text
	}
	ew := MeasureText(ellipsis)
	if maxWidth <= ew {
		return text[:cutPoint(text, maxWidth)]
	}
	return text[:cutPoint(text, maxWidth-ew)] + ellipsis
}

// cutPoint is the byte offset of the longest prefix of s no wider than
// maxWidth. A wide rune that would straddle the limit is left out.
func cutPoint(s string, maxWidth int) int {
	width := 0
	for i, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth {
			return i
		}
		width += w
	}
	return len(s)
}
