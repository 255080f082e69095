package utils

// Token estimation constants
const (
	AvgCharsPerToken = 2 // Conservative estimate for mixed content (prose + LaTeX)
)

// EstimateCharsFromTokens estimates the number of characters for a given token count
func EstimateCharsFromTokens(tokens int) int {
	return tokens * AvgCharsPerToken
}

// TrimDocumentAroundRange trims doc to fit within maxTokens while preserving
// context around the byte range [from, to). The window is expanded on whole
// lines, half the remaining budget on each side, with unused budget flowing to
// the other side. Returns the trimmed text, the byte offset of the window
// start within the original document, and whether trimming occurred.
func TrimDocumentAroundRange(doc string, from, to, maxTokens int) (string, int, bool) {
	if maxTokens <= 0 || doc == "" {
		return doc, 0, false
	}

	maxChars := EstimateCharsFromTokens(maxTokens)
	if len(doc) <= maxChars {
		return doc, 0, false
	}

	// Clamp the range to the document
	if from < 0 {
		from = 0
	}
	if to > len(doc) {
		to = len(doc)
	}
	if from > to {
		from = to
	}

	// Expand the range to whole lines
	start := lineStart(doc, from)
	end := lineEnd(doc, to)

	// The focus region may itself exceed the budget; keep it whole anyway so
	// the backend always sees the full selection.
	remaining := maxChars - (end - start)
	if remaining < 0 {
		remaining = 0
	}
	halfBudget := remaining / 2

	// Expand upward line by line
	charsBefore := 0
	for start > 0 {
		prevStart := lineStart(doc, start-1)
		lineLen := start - prevStart
		if charsBefore+lineLen > halfBudget {
			break
		}
		start = prevStart
		charsBefore += lineLen
	}

	// Expand downward with the other half plus whatever the top did not use
	budgetAfter := halfBudget + (halfBudget - charsBefore)
	charsAfter := 0
	for end < len(doc) {
		nextEnd := lineEnd(doc, end+1)
		lineLen := nextEnd - end
		if charsAfter+lineLen > budgetAfter {
			break
		}
		end = nextEnd
		charsAfter += lineLen
	}

	if start == 0 && end == len(doc) {
		return doc, 0, false
	}
	return doc[start:end], start, true
}

// lineStart returns the byte offset of the start of the line containing pos.
func lineStart(doc string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos > len(doc) {
		pos = len(doc)
	}
	for i := pos - 1; i >= 0; i-- {
		if doc[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lineEnd returns the byte offset just past the newline terminating the line
// containing pos, or len(doc) for the last line.
func lineEnd(doc string, pos int) int {
	if pos < 0 {
		pos = 0
	}
	for i := pos; i < len(doc); i++ {
		if doc[i] == '\n' {
			return i + 1
		}
	}
	return len(doc)
}
