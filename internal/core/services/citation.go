package services

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

const snippetLength = 200

// citationMargin is how far below the top score a source may fall and still
// be listed among the citations of an answer.
const citationMargin = 0.05

// citationDecoder removes the citation marker from streamed text and records
// whether it was seen. A marker split across increments is held back until it
// can be resolved, so no fragment of it ever reaches the caller.
type citationDecoder struct {
	marker  string
	pending string
	found   bool
}

func newCitationDecoder(marker string) *citationDecoder {
	return &citationDecoder{marker: marker}
}

// Feed consumes one increment and returns the text that is safe to emit.
func (d *citationDecoder) Feed(delta string) string {
	s := d.pending + delta
	d.pending = ""

	for {
		i := strings.Index(s, d.marker)
		if i < 0 {
			break
		}
		d.found = true
		s = s[:i] + s[i+len(d.marker):]
	}

	for k := min(len(s), len(d.marker)-1); k > 0; k-- {
		if strings.HasSuffix(s, d.marker[:k]) {
			d.pending = s[len(s)-k:]
			return s[:len(s)-k]
		}
	}
	return s
}

// Flush returns held-back text once the stream has ended.
func (d *citationDecoder) Flush() string {
	s := d.pending
	d.pending = ""
	return s
}

// Found reports whether the marker appeared anywhere in the stream.
func (d *citationDecoder) Found() bool {
	return d.found
}

// buildCitation describes the sources of an answer that used the context.
// Only sources scoring within citationMargin of the top chunk are cited.
// It returns nil when no chunk text was included.
func buildCitation(assembled domain.AssembledContext) *domain.CitationMetadata {
	if assembled.IsEmpty() {
		return nil
	}
	top := assembled.Included[0]
	var cited []domain.Citation
	for _, c := range assembled.Citations {
		if c.Score >= top.Score-citationMargin {
			cited = append(cited, c)
		}
	}
	return &domain.CitationMetadata{
		SourceName: top.Chunk.DocumentName,
		Page:       top.Chunk.PageRef,
		Section:    top.Chunk.Section,
		Snippet:    snippet(top.Chunk.Text),
		Confidence: confidence(top.Score),
		Citations:  cited,
	}
}

// confidence converts a similarity score to a percentage with two decimals.
func confidence(score float64) float64 {
	return math.Round(score*100*100) / 100
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	return string([]rune(text)[:snippetLength]) + "..."
}
