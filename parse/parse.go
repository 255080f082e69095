// Package parse turns free-text model completions into structured edit
// suggestions. The model is not guaranteed to return fenced or otherwise
// delimited output, so extraction is an ordered fallback chain rather than a
// single regex; each rule is strictly weaker than the one before it.
package parse

import (
	"regexp"
	"strings"
)

// Rule identifies which extraction rule isolated the fragment.
type Rule int

const (
	RuleLabeledFence Rule = iota
	RuleGenericFence
	RuleIntroPhrase
	RuleEnvironment
	RuleLineFilter
	RuleWholeResponse
)

// String returns a short name for the rule, used in logs.
func (r Rule) String() string {
	switch r {
	case RuleLabeledFence:
		return "labeled_fence"
	case RuleGenericFence:
		return "generic_fence"
	case RuleIntroPhrase:
		return "intro_phrase"
	case RuleEnvironment:
		return "environment"
	case RuleLineFilter:
		return "line_filter"
	case RuleWholeResponse:
		return "whole_response"
	default:
		return "unknown"
	}
}

// Result holds the isolated fragment and explanation of a model completion.
type Result struct {
	Fragment    string
	Explanation string
	Rule        Rule
}

// minExplanationLen is the threshold below which pre-fence text is considered
// trivial and the explanation falls back to leading prose lines.
const minExplanationLen = 10

// genericExplanation is used when the response carries no usable prose.
const genericExplanation = "Here is a suggested edit."

var (
	labeledFenceRe = regexp.MustCompile("(?s)```(?:latex|tex)[ \t]*\n(.*?)```")
	genericFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\n?(.*?)```")
	anyFenceRe     = regexp.MustCompile("(?s)```.*?```")
	latexCommandRe = regexp.MustCompile(`\\[a-zA-Z]+`)
	beginRe        = regexp.MustCompile(`\\begin\{([a-zA-Z*]+)\}`)
)

// introPhrases are matched case-insensitively; the fragment is the text after
// the phrase up to the next blank line.
var introPhrases = []string{
	"here is the modified code:",
	"here is the code:",
	"here's the modified code:",
	"here's the code:",
	"here is the updated code:",
	"here is the latex:",
	"here's the latex:",
	"the modified code is:",
}

// Response extracts the machine-readable fragment and the human explanation
// from a raw model completion. First matching rule wins; when no rule can
// isolate anything the whole response is returned as the fragment and the
// caller must treat the result as low confidence.
func Response(raw string) *Result {
	res := &Result{}
	res.Fragment, res.Rule = extractFragment(raw)
	res.Explanation = extractExplanation(raw)
	return res
}

// LowConfidence reports whether the result should be treated as a guess: the
// weakest rules can select nearly the entire document as the fragment when
// the model's prose lacks delimiters. Callers suppress preview generation for
// those (the fragment is still logged to the conversation).
func (r *Result) LowConfidence(docLen int) bool {
	if r.Rule == RuleWholeResponse {
		return true
	}
	if r.Rule == RuleLineFilter && docLen > 0 && len(r.Fragment)*10 >= docLen*8 {
		return true
	}
	return false
}

func extractFragment(raw string) (string, Rule) {
	// Rule 1: fence explicitly labeled as latex
	if m := labeledFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), RuleLabeledFence
	}

	// Rule 2: any fenced block
	if m := genericFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), RuleGenericFence
	}

	// Rule 3: introductory phrase followed by content up to a blank line
	if frag, ok := afterIntroPhrase(raw); ok {
		return frag, RuleIntroPhrase
	}

	// Rule 4: longest balanced \begin{...}...\end{...} block
	if frag, ok := longestEnvironment(raw); ok {
		return frag, RuleEnvironment
	}

	// Rule 5: keep only lines that look like LaTeX source
	if frag, ok := filterLatexLines(raw); ok {
		return frag, RuleLineFilter
	}

	// Rule 6: give up and hand back everything
	return raw, RuleWholeResponse
}

// afterIntroPhrase finds the first known introductory phrase and returns the
// text following it up to the next blank line.
func afterIntroPhrase(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	best := -1
	bestEnd := -1
	for _, phrase := range introPhrases {
		idx := strings.Index(lower, phrase)
		if idx >= 0 && (best == -1 || idx < best) {
			best = idx
			bestEnd = idx + len(phrase)
		}
	}
	if best == -1 {
		return "", false
	}

	rest := raw[bestEnd:]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}

// longestEnvironment scans for balanced \begin{env}...\end{env} spans,
// accounting for nesting of the same environment, and returns the longest.
func longestEnvironment(raw string) (string, bool) {
	longest := ""
	for _, m := range beginRe.FindAllStringSubmatchIndex(raw, -1) {
		start := m[0]
		env := raw[m[2]:m[3]]
		if end, ok := matchEnvironmentEnd(raw, m[1], env); ok {
			span := raw[start:end]
			if len(span) > len(longest) {
				longest = span
			}
		}
	}
	if longest == "" {
		return "", false
	}
	return strings.TrimSpace(longest), true
}

// matchEnvironmentEnd finds the offset just past the \end{env} matching a
// \begin{env} whose body starts at from. Returns false for unbalanced input.
func matchEnvironmentEnd(raw string, from int, env string) (int, bool) {
	openTok := `\begin{` + env + `}`
	closeTok := `\end{` + env + `}`
	depth := 1
	pos := from
	for depth > 0 {
		next := strings.Index(raw[pos:], closeTok)
		if next == -1 {
			return 0, false
		}
		// Count opens between pos and the close we found
		depth += strings.Count(raw[pos:pos+next], openTok)
		depth--
		pos += next + len(closeTok)
	}
	return pos, true
}

// filterLatexLines keeps lines carrying LaTeX-specific tokens: commands,
// alignment markers, or line terminators.
func filterLatexLines(raw string) (string, bool) {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if isLatexLine(line) {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, "\n"), true
}

func isLatexLine(line string) bool {
	if latexCommandRe.MatchString(line) {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasSuffix(trimmed, `\\`) {
		return true
	}
	// Alignment rows inside tabular-like environments
	if strings.Contains(trimmed, "&") && (strings.Contains(trimmed, `\\`) || strings.HasSuffix(trimmed, "&")) {
		return true
	}
	return false
}

// extractExplanation isolates the human-readable part of the response,
// independent of fragment extraction: text before the first fence when
// non-trivial, else the first few non-code lines, else a placeholder.
func extractExplanation(raw string) string {
	if idx := strings.Index(raw, "```"); idx >= 0 {
		before := strings.TrimSpace(raw[:idx])
		if len(before) > minExplanationLen {
			return before
		}
	}

	// First few prose lines outside fences and outside LaTeX source
	stripped := anyFenceRe.ReplaceAllString(raw, "")
	var prose []string
	for _, line := range strings.Split(stripped, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isLatexLine(trimmed) {
			continue
		}
		prose = append(prose, trimmed)
		if len(prose) == 3 {
			break
		}
	}
	if len(prose) > 0 {
		return strings.Join(prose, " ")
	}

	return genericExplanation
}
