package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitDropsShortInput(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	for _, in := range []string{"", "hi", "   twenty chars max  "} {
		if got := s.Split(in); len(got) != 0 {
			t.Fatalf("Split(%q) = %v, want no chunks", in, got)
		}
	}
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	got := s.Split("  Cotton needs deep furrow irrigation in June.  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "Cotton needs deep furrow irrigation in June." {
		t.Fatalf("unexpected chunk %q", got[0])
	}
}

func TestSplitCutsOnLateSentenceEnd(t *testing.T) {
	s := NewSplitter(100, 10)
	first := strings.Repeat("a", 89) + "."
	text := first + strings.Repeat("b", 60)

	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != first {
		t.Fatalf("expected first chunk to end at the period, got %q", got[0])
	}
	if got[1] != strings.Repeat("b", 60) {
		t.Fatalf("expected remainder without overlap, got %q", got[1])
	}
}

func TestSplitIgnoresEarlySentenceEnd(t *testing.T) {
	s := NewSplitter(100, 10)
	// The period sits at index 50, outside the last fifth of the window.
	text := strings.Repeat("a", 50) + "." + strings.Repeat("c", 99)

	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if utf8.RuneCountInString(got[0]) != 100 {
		t.Fatalf("expected full window, got len %d", utf8.RuneCountInString(got[0]))
	}
	// second window starts at 90: overlap of 10 runes
	if !strings.HasPrefix(text[90:], got[1]) {
		t.Fatalf("expected overlapping second chunk, got %q", got[1])
	}
}

func TestSplitCoversInput(t *testing.T) {
	s := NewSplitter(DefaultChunkSize, DefaultOverlap)
	sentence := "Winter wheat is sown in October on irrigated sierozem soils. "
	text := strings.Repeat(sentence, 80)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if i < len(chunks)-1 && n > DefaultChunkSize {
			t.Fatalf("chunk %d exceeds target size: %d", i, n)
		}
		if n <= minChunkLen {
			t.Fatalf("chunk %d too short: %q", i, c)
		}
	}

	// Every chunk is a contiguous span of the input and chunks appear in order.
	pos := 0
	for i, c := range chunks {
		idx := strings.Index(text[pos:], c)
		if idx < 0 {
			t.Fatalf("chunk %d not found after offset %d", i, pos)
		}
		pos += idx + 1
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.TrimSpace(text), last) {
		t.Fatalf("last chunk does not reach end of text")
	}
}

func TestSplitCountsRunes(t *testing.T) {
	s := NewSplitter(50, 5)
	text := strings.Repeat("пахта ", 40)
	for _, c := range s.Split(text) {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk split a multibyte rune: %q", c)
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != DefaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	s = NewSplitter(100, 200)
	if s.Overlap != 10 {
		t.Fatalf("expected overlap clamp to 10, got %d", s.Overlap)
	}
}
