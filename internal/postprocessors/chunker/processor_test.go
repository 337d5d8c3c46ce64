package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

func body(n int) string {
	const sentence = "the operator checks the valve pressure before each shift. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(sentence)
	}
	return b.String()[:n]
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
		if p.minContent != DefaultMinContent {
			t.Errorf("expected minContent %d, got %d", DefaultMinContent, p.minContent)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(50), WithMinContent(10))
		if p.ChunkSize() != 500 || p.Overlap() != 50 || p.minContent != 10 {
			t.Errorf("unexpected configuration %+v", p)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap != 25 {
			t.Errorf("expected overlap reduced to 25, got %d", p.overlap)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1), WithMinContent(-5))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
		if p.minContent != DefaultMinContent {
			t.Errorf("expected default minContent, got %d", p.minContent)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker'")
	}
}

func TestProcessor_Process_NoPages(t *testing.T) {
	chunks, err := New().Process(context.Background(), "doc.pdf", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestProcessor_Process_WindowBoundsAndOverlap(t *testing.T) {
	const size, overlap = 100, 20
	p := New(WithChunkSize(size), WithOverlap(overlap), WithMinContent(5))
	pages := []domain.Page{{Number: 1, Text: body(450)}}

	chunks, err := p.Process(context.Background(), "manual.pdf", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if n := len([]rune(c.Text)); n > size {
			t.Errorf("chunk %d has length %d > %d", i, n, size)
		}
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
		if c.PageRef != "1" || c.DocumentName != "manual.pdf" || c.ID == "" {
			t.Errorf("chunk %d has unexpected metadata %+v", i, c)
		}
		if i == 0 {
			continue
		}
		prev := []rune(chunks[i-1].Text)
		cur := []rune(c.Text)
		if string(prev[len(prev)-overlap:]) != string(cur[:overlap]) {
			t.Errorf("chunk %d does not overlap chunk %d by %d characters", i, i-1, overlap)
		}
	}

	last := chunks[len(chunks)-1].Text
	if !strings.HasSuffix(pages[0].Text, last) {
		t.Errorf("final chunk should reach the end of the page")
	}
}

func TestProcessor_Process_StopsAtPageEnd(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20), WithMinContent(5))
	pages := []domain.Page{{Number: 1, Text: body(100)}}

	chunks, err := p.Process(context.Background(), "doc", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk for a page of one window, got %d", len(chunks))
	}
}

func TestProcessor_Process_MinContent(t *testing.T) {
	p := New(WithMinContent(50))
	pages := []domain.Page{
		{Number: 1, Text: "too short to matter at all"},
		{Number: 2, Text: body(200)},
	}

	chunks, err := p.Process(context.Background(), "doc", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageRef != "2" {
		t.Errorf("expected chunk from page 2, got page %s", chunks[0].PageRef)
	}
}

func TestProcessor_Process_PerPageWindows(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(10), WithMinContent(5))
	pages := []domain.Page{
		{Number: 1, Text: body(80)},
		{Number: 2, Text: body(80)},
		{Number: 3, Text: body(80)},
	}

	chunks, err := p.Process(context.Background(), "doc", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected one chunk per page, got %d", len(chunks))
	}
	for i, c := range chunks {
		want := []string{"1", "2", "3"}[i]
		if c.PageRef != want {
			t.Errorf("chunk %d: expected page %s, got %s", i, want, c.PageRef)
		}
	}
}

func TestProcessor_Process_UnpaginatedIsMulti(t *testing.T) {
	chunks, err := New().Process(context.Background(), "doc", []domain.Page{{Text: body(300)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 || chunks[0].PageRef != domain.PageRefMulti {
		t.Errorf("expected page ref %q", domain.PageRefMulti)
	}
}

func TestProcessor_Process_SectionTracking(t *testing.T) {
	p := New(WithChunkSize(200), WithOverlap(20), WithMinContent(5))
	pages := []domain.Page{
		{Number: 1, Text: "SAFETY PROCEDURES\n" + body(150)},
		{Number: 2, Text: body(150)},
		{Number: 3, Text: "Maintenance Schedule"},
		{Number: 4, Text: body(150)},
	}

	chunks, err := p.Process(context.Background(), "doc", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (heading-only page yields none), got %d", len(chunks))
	}
	if chunks[0].Section != "SAFETY PROCEDURES" {
		t.Errorf("chunk 0: expected section SAFETY PROCEDURES, got %q", chunks[0].Section)
	}
	if chunks[1].Section != "SAFETY PROCEDURES" {
		t.Errorf("chunk 1: section should carry across pages, got %q", chunks[1].Section)
	}
	if chunks[2].Section != "Maintenance Schedule" {
		t.Errorf("chunk 2: heading-only page should update section, got %q", chunks[2].Section)
	}
}

func TestProcessor_Process_Unicode(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(2), WithMinContent(1))
	pages := []domain.Page{{Number: 1, Text: strings.Repeat("ü", 25)}}

	chunks, err := p.Process(context.Background(), "doc", pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range chunks {
		if n := len([]rune(c.Text)); n > 10 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if strings.ContainsRune(c.Text, '�') {
			t.Errorf("chunk %d split a multi-byte character", i)
		}
	}
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, "doc", []domain.Page{{Number: 1, Text: body(300)}})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"SAFETY PROCEDURES", true},
		{"Maintenance Schedule", true},
		{"3. Emergency Shutdown", true},
		{"Use of Protective Equipment", true},
		{"the operator checks the valve pressure.", false},
		{"Always wear gloves when handling chemicals", false},
		{"OK", false},
		{"This Line Ends With A Period.", false},
		{"12345", false},
		{strings.Repeat("LONG ", 20), false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := IsHeading(tt.line); got != tt.want {
				t.Errorf("IsHeading(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
