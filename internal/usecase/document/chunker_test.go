package document

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", DefaultChunkSize, DefaultChunkOverlap, false},
		{"no overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChunker(tc.size, tc.overlap)
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestChunker_ShortTextIsOneChunk(t *testing.T) {
	c, _ := NewChunker(100, 20)

	got := c.Split("  Grover search amplifies marked states.  ")
	if len(got) != 1 || got[0] != "Grover search amplifies marked states." {
		t.Errorf("Split() = %q", got)
	}
}

func TestChunker_BlankText(t *testing.T) {
	c, _ := NewChunker(100, 20)

	if got := c.Split(" \n\n \t"); len(got) != 0 {
		t.Errorf("expected no chunks, got %q", got)
	}
	if got := c.Split(""); len(got) != 0 {
		t.Errorf("expected no chunks, got %q", got)
	}
}

func TestChunker_PrefersParagraphBreak(t *testing.T) {
	c, _ := NewChunker(40, 0)
	text := "first paragraph here ok.\n\nsecond paragraph follows after it"

	got := c.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %q", got)
	}
	if got[0] != "first paragraph here ok." {
		t.Errorf("chunk[0] = %q", got[0])
	}
	if got[1] != "second paragraph follows after it" {
		t.Errorf("chunk[1] = %q", got[1])
	}
}

func TestChunker_RespectsSizeAndOverlap(t *testing.T) {
	c, _ := NewChunker(50, 10)
	words := make([]string, 200)
	for i := range words {
		words[i] = "qubit"
	}
	text := strings.Join(words, " ")

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i, ch := range got {
		if n := utf8.RuneCountInString(ch); n > 50 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if strings.HasPrefix(ch, " ") || strings.HasSuffix(ch, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, ch)
		}
	}
	// Overlap means the total is longer than the input.
	total := 0
	for _, ch := range got {
		total += len(ch)
	}
	if total <= len(text) {
		t.Errorf("expected overlapping chunks, total %d <= %d", total, len(text))
	}
}

func TestChunker_HardCutWithoutSeparators(t *testing.T) {
	c, _ := NewChunker(10, 0)

	got := c.Split(strings.Repeat("x", 25))
	want := []int{10, 10, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks: %q", len(got), got)
	}
	for i, n := range want {
		if len(got[i]) != n {
			t.Errorf("chunk %d len = %d, want %d", i, len(got[i]), n)
		}
	}
}

func TestChunker_MultibyteRunes(t *testing.T) {
	c, _ := NewChunker(4, 1)

	got := c.Split("ψψψψψψψψ")
	for i, ch := range got {
		if !utf8.ValidString(ch) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, ch)
		}
		if n := utf8.RuneCountInString(ch); n > 4 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}
