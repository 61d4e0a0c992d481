package transcript

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Paragraph sizing bounds, in words. Splits of oversized paragraphs aim
// for TargetWords give or take WordFluctuation.
const (
	MinWords        = 30
	MaxWords        = 700
	TargetWords     = 75
	WordFluctuation = 50
)

// Paginator groups merged transcript segments into display paragraphs.
// Paragraph boundaries come from a single gap threshold chosen by binary
// search; only the carving of oversized paragraphs uses randomness.
type Paginator struct {
	rng *rand.Rand
}

// NewPaginator returns a paginator drawing split sizes from rng. A nil
// rng gets a time-seeded source.
func NewPaginator(rng *rand.Rand) *Paginator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Paginator{rng: rng}
}

// ParagraphIter is a one-shot iterator over paginated paragraphs.
type ParagraphIter struct {
	paragraphs []string
}

// Next returns the next paragraph in original order. The second return
// is false once the sequence is exhausted.
func (it *ParagraphIter) Next() (string, bool) {
	if len(it.paragraphs) == 0 {
		return "", false
	}
	p := it.paragraphs[0]
	it.paragraphs = it.paragraphs[1:]
	return p, true
}

// Paginate partitions the ordered, pre-merged segments into paragraphs.
// Paragraphs that still exceed MaxWords are carved further at sentence
// boundaries.
func (p *Paginator) Paginate(segs []Segment) *ParagraphIter {
	if len(segs) == 0 {
		return &ParagraphIter{}
	}
	threshold := bestThreshold(segs)

	var out []string
	for _, group := range splitAtGaps(segs, threshold) {
		text := joinText(group)
		if countWords(text) > MaxWords {
			out = append(out, p.carve(text)...)
		} else {
			out = append(out, text)
		}
	}
	return &ParagraphIter{paragraphs: out}
}

// PlainText paginates and joins the paragraphs with blank lines, for
// callers that want the whole transcript as one displayable string.
func (p *Paginator) PlainText(segs []Segment) string {
	var paragraphs []string
	it := p.Paginate(segs)
	for {
		para, ok := it.Next()
		if !ok {
			break
		}
		paragraphs = append(paragraphs, para)
	}
	return strings.Join(paragraphs, "\n\n")
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// gapsBetween returns the pause before each segment after the first.
func gapsBetween(segs []Segment) []float64 {
	gaps := make([]float64, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		gaps = append(gaps, segs[i].Start-segs[i-1].End)
	}
	return gaps
}

// splitAtGaps opens a new paragraph wherever the preceding pause reaches
// the threshold.
func splitAtGaps(segs []Segment, threshold float64) [][]Segment {
	var groups [][]Segment
	start := 0
	for i := 1; i < len(segs); i++ {
		if segs[i].Start-segs[i-1].End >= threshold {
			groups = append(groups, segs[start:i])
			start = i
		}
	}
	return append(groups, segs[start:])
}

// thresholdScore orders candidate thresholds: first by the total word
// mass sitting in paragraphs outside [MinWords, MaxWords], then by how
// far the paragraph count strays from one per TargetWords.
type thresholdScore struct {
	pathological int
	imbalance    int
}

func (a thresholdScore) less(b thresholdScore) bool {
	if a.pathological != b.pathological {
		return a.pathological < b.pathological
	}
	return a.imbalance < b.imbalance
}

func scoreThreshold(segs []Segment, threshold float64) thresholdScore {
	var s thresholdScore
	total := 0
	groups := splitAtGaps(segs, threshold)
	for _, group := range groups {
		words := 0
		for _, seg := range group {
			words += seg.Words()
		}
		total += words
		if words < MinWords || words > MaxWords {
			s.pathological += words
		}
	}
	s.imbalance = total - TargetWords*len(groups)
	if s.imbalance < 0 {
		s.imbalance = -s.imbalance
	}
	return s
}

// bestThreshold picks the gap threshold by binary search over the sorted
// distinct gap values plus one sentinel past the maximum. The sentinel
// admits the single-paragraph extreme, which is also what a uniform-gap
// sequence converges to. Ties resolve toward the smaller threshold.
func bestThreshold(segs []Segment) float64 {
	gaps := gapsBetween(segs)
	if len(gaps) == 0 {
		return 0
	}
	sort.Float64s(gaps)
	candidates := gaps[:1]
	for _, g := range gaps[1:] {
		if g != candidates[len(candidates)-1] {
			candidates = append(candidates, g)
		}
	}
	candidates = append(candidates, candidates[len(candidates)-1]+1)

	lo, hi := 0, len(candidates)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if scoreThreshold(segs, candidates[mid+1]).less(scoreThreshold(segs, candidates[mid])) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return candidates[lo]
}

// sentences splits text after each run of sentence-final punctuation
// followed by whitespace. Text with no such boundary comes back whole.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n' {
				out = append(out, strings.TrimSpace(text[start:i+1]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// carve breaks an oversized paragraph at sentence boundaries. Each chunk
// aims for a word count drawn from a triangular distribution around
// TargetWords; a cut is skipped when it would leave a remainder under
// MinWords.
func (p *Paginator) carve(text string) []string {
	sents := sentences(text)
	remaining := 0
	counts := make([]int, len(sents))
	for i, s := range sents {
		counts[i] = countWords(s)
		remaining += counts[i]
	}

	var out []string
	var chunk []string
	words := 0
	target := p.chunkTarget()
	for i, s := range sents {
		chunk = append(chunk, s)
		words += counts[i]
		remaining -= counts[i]
		if words >= target && remaining >= MinWords {
			out = append(out, strings.Join(chunk, " "))
			chunk = chunk[:0]
			words = 0
			target = p.chunkTarget()
		}
	}
	if len(chunk) > 0 {
		out = append(out, strings.Join(chunk, " "))
	}
	return out
}

// chunkTarget samples the triangular distribution on
// TargetWords ± WordFluctuation, clamped to MinWords.
func (p *Paginator) chunkTarget() int {
	t := TargetWords + int(WordFluctuation*(p.rng.Float64()+p.rng.Float64()-1))
	if t < MinWords {
		t = MinWords
	}
	return t
}
