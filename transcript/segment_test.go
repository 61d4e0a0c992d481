package transcript

import (
	"testing"

	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/test"
)

func TestSegmentValidate(t *testing.T) {
	cases := []struct {
		seg Segment
		ok  bool
	}{
		{Segment{Start: 0, End: 2, Text: "Hello."}, true},
		{Segment{Start: -1, End: 2, Text: "Hello."}, false},
		{Segment{Start: 3, End: 2, Text: "Hello."}, false},
		{Segment{Start: 0, End: 2, Text: "   "}, false},
	}
	for _, c := range cases {
		err := c.seg.Validate()
		if c.ok {
			test.OK(t, err)
			continue
		}
		if _, isValidation := err.(common.ValidationError); !isValidation {
			t.Fatalf("expected ValidationError for %+v, got %v", c.seg, err)
		}
	}
}

func TestSegmentWords(t *testing.T) {
	test.Equals(t, 2, Segment{Text: "Hello there."}.Words())
	test.Equals(t, 3, Segment{Text: "  spaced   out\twords "}.Words())
}

func TestMergeCloseGap(t *testing.T) {
	got := Merge([]Segment{
		{Start: 0, End: 2, Text: "Hello there."},
		{Start: 2.01, End: 4, Text: "How are you?"},
	})
	test.Equals(t, []Segment{{Start: 0, End: 4, Text: "Hello there. How are you?"}}, got)
}

func TestMergeMidSentence(t *testing.T) {
	// The pause is long enough, but the first segment was cut mid
	// sentence, so the pieces still belong together.
	got := Merge([]Segment{
		{Start: 0, End: 2, Text: "I was about to"},
		{Start: 3, End: 5, Text: "say something."},
		{Start: 6, End: 8, Text: "Then I did."},
	})
	test.Equals(t, []Segment{
		{Start: 0, End: 5, Text: "I was about to say something."},
		{Start: 6, End: 8, Text: "Then I did."},
	}, got)
}

func TestMergeKeepsDistinctUtterances(t *testing.T) {
	in := []Segment{
		{Start: 0, End: 2, Text: "First."},
		{Start: 3, End: 5, Text: "Second."},
	}
	test.Equals(t, in, Merge(in))
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
