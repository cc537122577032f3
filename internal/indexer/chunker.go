package indexer

import "strings"

// sentenceSeparators are tried in order; the first one found past the middle
// of the window ends the chunk.
var sentenceSeparators = []string{". ", ".\n", "? ", "!\n"}

// Chunker splits text into overlapping character windows that prefer to end
// on a sentence boundary.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into trimmed, non-empty chunks. Text no longer than the
// chunk size is returned as a single chunk.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end < len(runes) {
			window := string(runes[start:end])
			for _, sep := range sentenceSeparators {
				i := strings.LastIndex(window, sep)
				if i < 0 {
					continue
				}
				// LastIndex is a byte offset; convert back to runes.
				at := len([]rune(window[:i]))
				if at > c.chunkSize/2 {
					end = start + at + len([]rune(sep))
					break
				}
			}
		} else {
			end = len(runes)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
