package canvas

type runePair struct {
	existing rune
	next     rune
}

// lineJoins maps two line characters drawn into one cell to the junction
// that shows both.
var lineJoins = map[runePair]rune{
	{'─', '│'}: '┼',
	{'╱', '╲'}: '╳',
	{'┼', '╱'}: '╋',
	{'┼', '╲'}: '╋',
	{'╳', '─'}: '╋',
	{'╳', '│'}: '╋',
}

// mergeLine combines a line character with whatever already occupies the
// cell. Merging is commutative; unknown pairs keep the existing rune.
func mergeLine(existing, next rune) rune {
	if existing == ' ' || existing == '\x00' || existing == next {
		return next
	}
	if r, ok := lineJoins[runePair{existing, next}]; ok {
		return r
	}
	if r, ok := lineJoins[runePair{next, existing}]; ok {
		return r
	}
	return existing
}
