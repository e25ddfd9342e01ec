// internal/pipeline/chunk/chunk.go
package chunk

import "strings"

// minChunkSize is the smallest trimmed fragment kept when a paragraph
// break flushes the buffer. Header and end-of-input flushes are exempt,
// so a short trailing section is never lost.
const minChunkSize = 50

// Chunk splits a regulatory document into retrieval-sized sections.
//
// Lines starting with "##" open a new section. Consecutive header lines
// accumulate into the same section until body text follows, so a heading
// and its subheading travel together. A blank line ends a paragraph;
// fragments of minChunkSize characters or fewer are dropped there.
func Chunk(content string) []string {
	var chunks []string
	var buffer []string
	hasBody := false

	emit := func(minSize int) {
		joined := strings.TrimSpace(strings.Join(buffer, "\n"))
		if len(joined) > minSize {
			chunks = append(chunks, joined)
		}
		buffer = buffer[:0]
		hasBody = false
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "##"):
			if hasBody {
				emit(0)
			}
			buffer = append(buffer, line)
		case strings.TrimSpace(line) == "":
			if len(buffer) > 0 {
				emit(minChunkSize)
			}
		default:
			buffer = append(buffer, line)
			hasBody = true
		}
	}

	if len(buffer) > 0 {
		emit(0)
	}

	return chunks
}
