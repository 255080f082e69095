package parse

import (
	"testing"

	"texpilot/assert"
	"texpilot/types"
)

func TestClassifyWithSelection(t *testing.T) {
	tests := []struct {
		request string
		want    types.ActionKind
	}{
		{"make this a table", types.ActionReplace},
		{"replace this with a 5x5 table", types.ActionReplace},
		{"change the wording", types.ActionReplace},
		{"convert to itemize", types.ActionReplace},
		{"use a matrix instead", types.ActionReplace},
		{"delete the second row", types.ActionDelete},
		{"remove the footnote", types.ActionDelete},
		{"add a caption", types.ActionAdd},
		{"insert a label", types.ActionAdd},
	}

	for _, tt := range tests {
		got := ClassifyAction(tt.request, true)
		assert.Equal(t, tt.want, got, tt.request)
	}
}

func TestClassifyDeicticTieBreak(t *testing.T) {
	// No action keyword at all, but the selection plus a deictic reference
	// implies intent to transform the selected text.
	got := ClassifyAction("what about this", true)
	assert.Equal(t, types.ActionReplace, got, "deictic with selection")

	got = ClassifyAction("what about this", false)
	assert.Equal(t, types.ActionAdd, got, "deictic without selection")
}

func TestClassifyNoSelection(t *testing.T) {
	tests := []struct {
		request string
		want    types.ActionKind
	}{
		{"add a new section here", types.ActionAdd},
		{"make a summary paragraph", types.ActionAdd},
		{"convert my notes into prose", types.ActionAdd},
		{"replace the title", types.ActionReplace},
		{"delete the abstract", types.ActionDelete},
		{"write something nice", types.ActionAdd},
	}

	for _, tt := range tests {
		got := ClassifyAction(tt.request, false)
		assert.Equal(t, tt.want, got, tt.request)
	}
}

func TestClassifyMakeWithOtherCueNoSelection(t *testing.T) {
	// "make" plus a real replace cue is still a replace even with no selection.
	got := ClassifyAction("make it a table", false)
	assert.Equal(t, types.ActionReplace, got, "make plus table")
}

func TestClassifyDefaultAdd(t *testing.T) {
	got := ClassifyAction("a summary of the results", true)
	assert.Equal(t, types.ActionAdd, got, "no cues at all")
}
