package chunker

import (
	"strings"
	"unicode"
)

const maxHeadingLen = 80

// line is one line of page text, located by rune offsets.
type line struct {
	start   int
	end     int
	heading string
	body    bool
}

// pageLayout is a page's text with its lines classified.
type pageLayout struct {
	text  []rune
	lines []line
}

func scanPage(s string) pageLayout {
	layout := pageLayout{text: []rune(s)}
	start := 0
	for i := 0; i <= len(layout.text); i++ {
		if i < len(layout.text) && layout.text[i] != '\n' {
			continue
		}
		raw := strings.TrimSpace(string(layout.text[start:i]))
		l := line{start: start, end: i}
		switch {
		case raw == "":
		case IsHeading(raw):
			l.heading = raw
		default:
			l.body = true
		}
		layout.lines = append(layout.lines, l)
		start = i + 1
	}
	return layout
}

func (p pageLayout) hasBody() bool {
	for _, l := range p.lines {
		if l.body {
			return true
		}
	}
	return false
}

// lastHeading returns the final heading on the page, or current if there is none.
func (p pageLayout) lastHeading(current string) string {
	for i := len(p.lines) - 1; i >= 0; i-- {
		if p.lines[i].heading != "" {
			return p.lines[i].heading
		}
	}
	return current
}

// sectionAt returns the heading in force at the first body text of the window
// [start, end). Headings inside the window that precede its body text apply.
func (p pageLayout) sectionAt(start, end int, current string) string {
	section := current
	for _, l := range p.lines {
		if l.start >= end {
			break
		}
		if l.heading != "" {
			section = l.heading
			continue
		}
		if l.body && l.end > start {
			break
		}
	}
	return section
}

var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "by": true,
	"for": true, "in": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true,
}

// IsHeading reports whether a trimmed line looks like a section heading:
// short, without sentence punctuation, and either mostly uppercase or title cased.
func IsHeading(s string) bool {
	runes := []rune(s)
	if len(runes) < 3 || len(runes) > maxHeadingLen {
		return false
	}
	switch runes[len(runes)-1] {
	case '.', ',', ';', '?', '!':
		return false
	}

	var letters, upper int
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 2 {
		return false
	}
	if float64(upper)/float64(letters) >= 0.6 {
		return true
	}

	words := strings.Fields(s)
	if len(words) > 8 {
		return false
	}
	titled := 0
	for i, w := range words {
		first := []rune(w)[0]
		switch {
		case unicode.IsUpper(first), unicode.IsDigit(first):
			titled++
		case i > 0 && minorWords[strings.ToLower(w)]:
			titled++
		default:
			return false
		}
	}
	return titled == len(words)
}
