package transform

// ScanBalanced finds the balanced span that starts at the first open
// delimiter at or after from.
//
// The span runs from that open delimiter through the close delimiter that
// brings the nesting depth back to zero, inclusive; end is exclusive. When no
// open delimiter follows from, or the text ends before the span balances, ok
// is false. Unbalanced input is treated exactly like a missing span.
//
// When open and close are the same character nesting is impossible: the next
// occurrence closes the span.
func ScanBalanced(text []rune, from int, open, close rune) (start, end int, ok bool) {
	if from < 0 {
		from = 0
	}

	start = -1
	for i := from; i < len(text); i++ {
		if text[i] == open {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	depth := 1
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case close:
			depth--
		case open:
			depth++
		}
		if depth == 0 {
			return start, i + 1, true
		}
	}
	return 0, 0, false
}

// BalancedSpan is the string form of [ScanBalanced]. The offset counts runes.
// It returns the span including both delimiters, or "" when there is none.
//
//	BalancedSpan("a(b(c)d)e", 1, '(', ')') == "(b(c)d)"
//	BalancedSpan("a(b", 1, '(', ')') == ""
func BalancedSpan(text string, from int, open, close rune) string {
	r := []rune(text)
	start, end, ok := ScanBalanced(r, from, open, close)
	if !ok {
		return ""
	}
	return string(r[start:end])
}

// FullLineBounds returns the half-open range [start, end) of the line that
// contains offset. start is the rune after the nearest preceding newline (or
// 0) and end is the nearest following newline (or len(text)); the newline
// itself is not part of the line.
func FullLineBounds(text []rune, offset int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	start = offset
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end = offset
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start, end
}
