package services

import (
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// AssembleContext formats ranked results into a context of at most budget
// characters. Blocks are appended best first until the next one would not fit.
// When even the best block exceeds the budget on its own it is truncated to
// the budget, so a non-empty retrieval never yields an empty context.
// An empty retrieval yields domain.NoResults.
func AssembleContext(results []domain.ScoredChunk, budget int) domain.AssembledContext {
	if len(results) == 0 || budget <= 0 {
		return domain.NoResults()
	}

	var (
		out  domain.AssembledContext
		text []byte
		size int
		seen = make(map[string]bool)
	)

	for _, res := range results {
		block := formatBlock(res.Chunk)
		n := utf8.RuneCountInString(block)

		if size+n > budget {
			out.Truncated = true
			if len(out.Included) > 0 {
				break
			}
			block = truncateRunes(block, budget)
			n = budget
		}

		text = append(text, block...)
		size += n
		out.Included = append(out.Included, res)

		c := domain.Citation{
			DocumentName: res.Chunk.DocumentName,
			Page:         res.Chunk.PageRef,
			Section:      res.Chunk.Section,
			Score:        res.Score,
		}
		if !seen[c.Key()] {
			seen[c.Key()] = true
			out.Citations = append(out.Citations, c)
		}

		if out.Truncated {
			break
		}
	}

	out.Text = string(text)
	return out
}

func formatBlock(c domain.DocumentChunk) string {
	if c.Section != "" {
		return fmt.Sprintf("[Source: %s, Page: %s, Section: %s]\n%s\n\n", c.DocumentName, c.PageRef, c.Section, c.Text)
	}
	return fmt.Sprintf("[Source: %s, Page: %s]\n%s\n\n", c.DocumentName, c.PageRef, c.Text)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
