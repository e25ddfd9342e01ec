package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestChunk_SectionHeaders(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name: "header starts a new section",
			content: "## Section 1\n" +
				"First section body with enough text to matter.\n" +
				"## Section 2\n" +
				"Second section body.",
			want: []string{
				"## Section 1\nFirst section body with enough text to matter.",
				"## Section 2\nSecond section body.",
			},
		},
		{
			name: "consecutive headers accumulate into one section",
			content: "## Chapter 1 - Own Funds\n" +
				"### 1.1 CET1 Capital Instruments\n" +
				"Common Equity Tier 1 capital consists of ordinary shares.",
			want: []string{
				"## Chapter 1 - Own Funds\n" +
					"### 1.1 CET1 Capital Instruments\n" +
					"Common Equity Tier 1 capital consists of ordinary shares.",
			},
		},
		{
			name: "header flush keeps short sections",
			content: "## A\n" +
				"short\n" +
				"## B\n" +
				"tail",
			want: []string{
				"## A\nshort",
				"## B\ntail",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.content)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunk_ParagraphBreaks(t *testing.T) {
	long := "This paragraph is comfortably longer than fifty characters of text."

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "blank line flushes a long paragraph",
			content: long + "\n\nAnother long paragraph that also clears the size threshold.",
			want: []string{
				long,
				"Another long paragraph that also clears the size threshold.",
			},
		},
		{
			name:    "short fragment before a blank line is discarded",
			content: "tiny\n\n" + long,
			want:    []string{long},
		},
		{
			name:    "discarded fragment does not leak into the next section",
			content: "tiny\n\n## Section\n" + long,
			want:    []string{"## Section\n" + long},
		},
		{
			name:    "multiple blank lines collapse",
			content: long + "\n\n\n\n" + long,
			want:    []string{long, long},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.content)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Edge Cases
// ==========================

func TestChunk_EdgeCases(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		assert.Empty(t, Chunk(""))
	})

	t.Run("only whitespace", func(t *testing.T) {
		assert.Empty(t, Chunk("\n\n   \n\t\n"))
	})

	t.Run("headers with no body form one chunk", func(t *testing.T) {
		got := Chunk("## A\n## B")
		assert.Equal(t, []string{"## A\n## B"}, got)
	})

	t.Run("final short chunk survives end of input", func(t *testing.T) {
		got := Chunk("## Fin\nend")
		assert.Equal(t, []string{"## Fin\nend"}, got)
	})

	t.Run("trailing newline does not add a chunk", func(t *testing.T) {
		got := Chunk("A paragraph long enough to pass the minimum size filter easily.\n")
		require.Len(t, got, 1)
	})
}

// ==========================
// Integration Test
// ==========================

func TestChunk_RegulatoryDocument(t *testing.T) {
	doc := `## PRA Rulebook - Own Funds

### 1.1 CET1 Capital Instruments
Capital instruments qualify as Common Equity Tier 1 instruments only where
the conditions laid down in Article 28 of the CRR are met at all times.

### 2.1 Deductions from CET1
Institutions shall deduct goodwill and other intangible assets from
Common Equity Tier 1 items in accordance with Article 36 of the CRR.
`

	chunks := Chunk(doc)
	require.Len(t, chunks, 2)

	// the bare title section is under the size threshold and dropped
	assert.True(t, strings.HasPrefix(chunks[0], "### 1.1 CET1 Capital Instruments"))
	assert.Contains(t, chunks[0], "Article 28")
	assert.True(t, strings.HasPrefix(chunks[1], "### 2.1 Deductions from CET1"))
	assert.Contains(t, chunks[1], "goodwill")
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkChunk(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("## Section heading\n")
		sb.WriteString("A body paragraph with enough regulatory prose to pass the size filter.\n\n")
	}
	content := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Chunk(content)
	}
}
