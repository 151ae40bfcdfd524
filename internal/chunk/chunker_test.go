package chunk

import (
	"strings"
	"testing"
)

func TestSplitShortInput(t *testing.T) {
	segs := Split("hello world", 100)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Content != "hello world" {
		t.Fatalf("content altered: %q", segs[0].Content)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if segs := Split("", 100); len(segs) != 0 {
		t.Fatalf("expected 0 segments, got %d", len(segs))
	}
}

func TestSplitExactLimit(t *testing.T) {
	text := strings.Repeat("x", 200)
	segs := Split(text, 200)
	if len(segs) != 1 || segs[0].Content != text {
		t.Fatalf("input equal to the limit must come back as one segment")
	}
}

func TestSplitPlainTextRoundTrip(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("lorem ipsum dolor sit amet consectetur adipiscing elit ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		} else if i%3 == 0 {
			b.WriteString("\n")
		}
	}
	text := b.String()

	segs := Split(text, 300)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	var got strings.Builder
	for i, s := range segs {
		if len(s.Content) > 300 {
			t.Fatalf("segment %d exceeds limit: %d", i, len(s.Content))
		}
		if s.Index != i {
			t.Fatalf("segment %d carries index %d", i, s.Index)
		}
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("plain text must concatenate back unchanged")
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	text := "first paragraph line one\nline two\n\nsecond paragraph " + strings.Repeat("pad ", 40)
	segs := Split(text, 60)
	if !strings.HasSuffix(segs[0].Content, "line two\n\n") {
		t.Fatalf("expected cut after paragraph break, got %q", segs[0].Content)
	}
}

func TestSplitFallsBackToWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100) // no line breaks at all
	segs := Split(text, 80)
	for i, s := range segs[:len(segs)-1] {
		if !strings.HasSuffix(s.Content, " ") {
			t.Fatalf("segment %d should end on a word boundary: %q", i, s.Content)
		}
	}
	var got strings.Builder
	for _, s := range segs {
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("word-boundary split must round-trip")
	}
}

func TestSplitHardCutsOversizedWord(t *testing.T) {
	text := strings.Repeat("a", 500)
	segs := Split(text, 100)
	var got strings.Builder
	for i, s := range segs {
		if len(s.Content) > 100 {
			t.Fatalf("segment %d exceeds limit: %d", i, len(s.Content))
		}
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("hard cut must not lose characters")
	}
}

func TestSplitHardCutRespectsRuneBoundary(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 100)
	segs := Split(text, 100)
	var got strings.Builder
	for i, s := range segs {
		for _, r := range s.Content {
			if r == '�' {
				t.Fatalf("segment %d cut through a rune", i)
			}
		}
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("multibyte text must round-trip")
	}
}

func TestSplitKeepsFittingFenceIntact(t *testing.T) {
	fence := "```go\n" + strings.Repeat("fmt.Println(1)\n", 20) + "```\n"
	text := strings.Repeat("intro text line\n", 60) + fence + strings.Repeat("outro text line\n", 60)

	segs := Split(text, 800)
	for i, s := range segs {
		if len(s.Content) > 800 {
			t.Fatalf("segment %d exceeds limit", i)
		}
		if s.ClosesCodeBlock {
			t.Fatalf("fence fits inside one segment, nothing should be reopened (segment %d)", i)
		}
	}
	var got strings.Builder
	for _, s := range segs {
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("text with intact fence must round-trip")
	}
}

func TestSplitKeepsNearLimitFenceIntact(t *testing.T) {
	// A fence that fits maxLength but not maxLength minus the marker
	// headroom must still come through in one piece.
	fence := "```go\n" + strings.Repeat("x1234567\n", 20) + "```\n" // 190 chars
	text := fence + strings.Repeat("after the block\n", 10)

	segs := Split(text, 200)
	for i, s := range segs {
		if len(s.Content) > 200 {
			t.Fatalf("segment %d exceeds limit: %d", i, len(s.Content))
		}
		if s.ClosesCodeBlock {
			t.Fatalf("fence fits the limit, segment %d must not split it", i)
		}
	}
	if !strings.Contains(segs[0].Content, fence) {
		t.Fatalf("first segment must carry the whole fence:\n%q", segs[0].Content)
	}
	var got strings.Builder
	for _, s := range segs {
		got.WriteString(s.Content)
	}
	if got.String() != text {
		t.Fatalf("near-limit fence must round-trip")
	}
}

func TestSplitLongReplyWithMidTextFence(t *testing.T) {
	// 5000 chars with an 800-char fence starting at 1800, limit 2000: the
	// block fits one segment and must never be split.
	line := strings.Repeat("words all the way down ", 2) + "words here\n" // 57 chars
	intro := strings.Repeat(line, 31) + strings.Repeat("a", 32) + "\n"    // 1800
	fence := "```python\n" + strings.Repeat("print(12345678)\n", 48) + "print(1234567890)\n" + "```\n"
	text := intro + fence // fence spans 1800..2600
	for len(text) < 5000 {
		text += line
	}
	if i := strings.Index(text, "```"); i != 1800 {
		t.Fatalf("fence starts at %d", i)
	}
	if len(fence) != 800 {
		t.Fatalf("fence length = %d", len(fence))
	}

	segs := Split(text, 2000)
	fenceSeen := false
	var got strings.Builder
	for i, s := range segs {
		if len(s.Content) > 2000 {
			t.Fatalf("segment %d exceeds limit: %d", i, len(s.Content))
		}
		if s.ClosesCodeBlock {
			t.Fatalf("fitting fence split at segment %d", i)
		}
		if strings.Contains(s.Content, fence) {
			fenceSeen = true
		}
		got.WriteString(s.Content)
	}
	if !fenceSeen {
		t.Fatalf("no segment carries the fence whole")
	}
	if got.String() != text {
		t.Fatalf("long reply with fence must round-trip exactly")
	}
}

func TestSplitClosesAndReopensOversizedFence(t *testing.T) {
	// The code block alone exceeds the limit, so the fence has to be cut:
	// closed at the segment end and reopened with its language tag.
	body := strings.Repeat("0123456789012345678901234567\n", 80) // ~2300 chars
	text := strings.Repeat("lead line\n", 20) + "```go\n" + body + "```\ntrailing text\n"

	segs := Split(text, 2000)
	if len(segs) < 2 {
		t.Fatalf("expected the fence to force multiple segments")
	}

	sawReopen := false
	for i, s := range segs {
		if len(s.Content) > 2000 {
			t.Fatalf("segment %d exceeds limit: %d", i, len(s.Content))
		}
		if s.ClosesCodeBlock {
			if !strings.HasSuffix(s.Content, "\n```") {
				t.Fatalf("segment %d flags a close but does not end with a fence", i)
			}
			if i+1 >= len(segs) || !strings.HasPrefix(segs[i+1].Content, "```go\n") {
				t.Fatalf("segment after %d must reopen the fence with its language tag", i)
			}
			sawReopen = true
		}
	}
	if !sawReopen {
		t.Fatalf("oversized fence was never closed and reopened")
	}

	// Concatenation minus the injected markers restores the input.
	var got strings.Builder
	for i, s := range segs {
		c := s.Content
		if i > 0 && segs[i-1].ClosesCodeBlock {
			c = strings.TrimPrefix(c, "```go\n")
		}
		if s.ClosesCodeBlock {
			c = strings.TrimSuffix(c, "\n```")
		}
		got.WriteString(c)
	}
	if got.String() != text {
		t.Fatalf("fence split must round-trip after stripping injected markers")
	}
}

func TestSplitReopensBoldAcrossCut(t *testing.T) {
	text := "**" + strings.Repeat("bold words here ", 30) + "** done"
	segs := Split(text, 120)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments")
	}
	if !strings.HasSuffix(segs[0].Content, "**") {
		t.Fatalf("open bold must be closed at the cut: %q", segs[0].Content)
	}
	if !strings.HasPrefix(segs[1].Content, "**") {
		t.Fatalf("bold must be reopened on the next segment: %q", segs[1].Content)
	}
}

func TestSplitReopensInlineCodeAcrossCut(t *testing.T) {
	text := "`" + strings.Repeat("inline code ", 30) + "` done"
	segs := Split(text, 120)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments")
	}
	if !strings.HasSuffix(segs[0].Content, "`") {
		t.Fatalf("open inline code must be closed at the cut: %q", segs[0].Content)
	}
	if !strings.HasPrefix(segs[1].Content, "`") {
		t.Fatalf("inline code must be reopened on the next segment: %q", segs[1].Content)
	}
}
