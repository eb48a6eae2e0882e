package chunker

import "strings"

// Target chunk size is ~500 tokens and overlap ~100 tokens, approximated
// at 4/5 words per token.
const (
	DefaultTargetWords  = 400
	DefaultOverlapWords = 80
)

// Chunk is one word-window of a document's cleaned text.
type Chunk struct {
	Index   int
	Content string
	// Page is the estimated 1-based page number, 0 when unknown.
	Page int
}

// Splitter slides a fixed word window with overlap over cleaned text.
type Splitter struct {
	TargetWords  int
	OverlapWords int
}

// NewSplitter constructs a Splitter, clamping degenerate parameters.
func NewSplitter(targetWords, overlapWords int) *Splitter {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= targetWords {
		overlapWords = targetWords / 4
	}
	return &Splitter{
		TargetWords:  targetWords,
		OverlapWords: overlapWords,
	}
}

// Split produces ordered chunks with contiguous indices starting at 0.
// pageOffsets holds the character offset at which each page after the first
// begins; pass nil when page boundaries are unknown. Empty or
// whitespace-only input yields zero chunks and callers must treat that as
// "no extractable text".
func (s *Splitter) Split(text string, pageOffsets []int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	// Character offset of each word's start, for page estimation.
	wordOffsets := make([]int, 0, len(words))
	if len(pageOffsets) > 0 {
		pos := 0
		for _, w := range words {
			idx := strings.Index(text[pos:], w)
			if idx < 0 {
				wordOffsets = append(wordOffsets, pos)
				continue
			}
			wordOffsets = append(wordOffsets, pos+idx)
			pos += idx + len(w)
		}
	}

	step := s.TargetWords - s.OverlapWords
	if step <= 0 {
		step = s.TargetWords
	}

	var out []Chunk
	for start := 0; start < len(words); start += step {
		end := start + s.TargetWords
		if end > len(words) {
			end = len(words)
		}
		chunk := Chunk{
			Index:   len(out),
			Content: strings.Join(words[start:end], " "),
		}
		if len(pageOffsets) > 0 {
			chunk.Page = estimatePage(wordOffsets[start], pageOffsets)
		}
		out = append(out, chunk)

		// The final clamped window absorbs any tail smaller than the
		// overlap; continuing past it would emit chunks made entirely of
		// already-covered words.
		if end == len(words) {
			break
		}
	}
	return out
}

// estimatePage maps a character offset to a 1-based page number given the
// offsets at which pages 2..n start. Best-effort: multi-column and
// image-heavy PDFs produce unreliable offsets.
func estimatePage(charOffset int, pageOffsets []int) int {
	page := 1
	for _, boundary := range pageOffsets {
		if charOffset < boundary {
			break
		}
		page++
	}
	return page
}
