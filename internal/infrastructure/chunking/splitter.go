package chunking

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100

	// minChunkLen drops fragments whose trimmed length does not exceed it.
	minChunkLen = 20
)

// Splitter cuts text into windows of ChunkSize runes, preferring to end a
// window on a period found in its last fifth. Windows without such a period
// advance by ChunkSize-Overlap so neighbours overlap.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}
	cutFloor := float64(s.ChunkSize) * 0.8

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end >= len(runes) {
			out = appendChunk(out, runes[start:])
			break
		}

		window := runes[start:end]
		if p := lastPeriod(window); p >= 0 && float64(p) > cutFloor {
			out = appendChunk(out, window[:p+1])
			start += p + 1
			continue
		}
		out = appendChunk(out, window)
		start += step
	}
	return out
}

func appendChunk(out []string, span []rune) []string {
	chunk := strings.TrimSpace(string(span))
	if len([]rune(chunk)) <= minChunkLen {
		return out
	}
	return append(out, chunk)
}

func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
