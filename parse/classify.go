package parse

import (
	"strings"

	"texpilot/types"
)

// Keyword sets for action classification. Order of evaluation matters:
// replace cues are checked before delete and add cues so that requests like
// "replace and add a column" transform the selection instead of appending.
var (
	replaceKeywords = []string{"replace", "make", "change", "modify", "convert", "instead", "rather than", "table"}
	deleteKeywords  = []string{"delete", "remove"}
	addKeywords     = []string{"add", "insert"}
	deicticKeywords = []string{"this", "that", "here"}
)

// ClassifyAction infers the semantic kind of an edit from the user's request
// text and whether a selection exists. With a selection, deictic references
// with no action keyword default to replace: highlighting text and pointing
// at it implies intent to transform it. Without a selection, "make"/"convert"
// style requests are treated as content creation.
func ClassifyAction(userRequest string, hasSelection bool) types.ActionKind {
	lower := strings.ToLower(userRequest)

	if containsAny(lower, replaceKeywords) {
		if !hasSelection && onlyCreationCues(lower) {
			return types.ActionAdd
		}
		return types.ActionReplace
	}
	if containsAny(lower, deleteKeywords) {
		return types.ActionDelete
	}
	if containsAny(lower, addKeywords) {
		return types.ActionAdd
	}
	if hasSelection && containsAny(lower, deicticKeywords) {
		return types.ActionReplace
	}
	return types.ActionAdd
}

// onlyCreationCues reports whether the replace-keyword hit came solely from
// "make"/"convert" with nothing to transform. With no selection those read as
// requests to create content, not to mutate nothing.
func onlyCreationCues(lower string) bool {
	for _, kw := range replaceKeywords {
		if kw == "make" || kw == "convert" {
			continue
		}
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return strings.Contains(lower, "make") || strings.Contains(lower, "convert")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
