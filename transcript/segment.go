package transcript

import (
	"strings"

	"github.com/talkarchive/backend/common"
)

// Segment is a time-coded span of transcript text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MinMergeGap is the pause below which adjacent segments are considered
// part of the same utterance.
const MinMergeGap = 0.05

// Validate checks the segment's time bounds and text.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return common.ValidationError{Reason: "segment start is negative"}
	}
	if s.End < s.Start {
		return common.ValidationError{Reason: "segment ends before it starts"}
	}
	if strings.TrimSpace(s.Text) == "" {
		return common.ValidationError{Reason: "segment has no text"}
	}
	return nil
}

// Words counts the whitespace-separated words in the segment.
func (s Segment) Words() int {
	return len(strings.Fields(s.Text))
}

// endsSentence reports whether the text closes with sentence-final
// punctuation.
func endsSentence(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// Merge folds adjacent segments into single utterances. Two segments
// merge when the pause between them is under MinMergeGap, or when the
// earlier one doesn't end in sentence-final punctuation (the recognizer
// split mid-sentence). The input order is preserved and the input slice
// is not modified.
func Merge(segs []Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	merged := make([]Segment, 0, len(segs))
	cur := segs[0]
	for _, next := range segs[1:] {
		if next.Start-cur.End < MinMergeGap || !endsSentence(cur.Text) {
			cur.End = next.End
			cur.Text = strings.TrimSpace(cur.Text) + " " + strings.TrimSpace(next.Text)
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// joinText concatenates segment texts with single spaces.
func joinText(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strings.TrimSpace(s.Text)
	}
	return strings.Join(parts, " ")
}
