// Package chunk splits long replies into ordered, size-limited segments
// while keeping markdown renderable across the cut points.
package chunk

import "strings"

// Segment is one platform-size-limited piece of a longer reply.
type Segment struct {
	Content string
	Index   int
	// ClosesCodeBlock is set when a fence had to be closed at the end of
	// this segment and is reopened at the start of the next one.
	ClosesCodeBlock bool
}

// markerReserve is headroom kept below maxLength for injected markers:
// "\n```" to close a fence plus "**", "*" and "`" for inline state, with
// slack for a marker token straddling the scan limit.
const markerReserve = 12

// mdState tracks open markdown constructs while scanning.
type mdState struct {
	inFence    bool
	fenceLang  string
	bold       bool
	italicCh   byte
	inlineCode bool
}

// advance consumes one token at i and returns the index after it.
func (s *mdState) advance(text string, i int, atLineStart bool) int {
	if atLineStart && strings.HasPrefix(text[i:], "```") {
		if s.inFence {
			s.inFence = false
			s.fenceLang = ""
		} else {
			s.inFence = true
			rest := text[i+3:]
			if j := strings.IndexByte(rest, '\n'); j >= 0 {
				s.fenceLang = strings.TrimSpace(rest[:j])
			} else {
				s.fenceLang = strings.TrimSpace(rest)
			}
		}
		return i + 3
	}
	if s.inFence {
		return i + 1
	}
	if text[i] == '`' {
		s.inlineCode = !s.inlineCode
		return i + 1
	}
	if s.inlineCode {
		return i + 1
	}
	if strings.HasPrefix(text[i:], "**") {
		s.bold = !s.bold
		return i + 2
	}
	if text[i] == '*' || text[i] == '_' {
		switch s.italicCh {
		case 0:
			s.italicCh = text[i]
		case text[i]:
			s.italicCh = 0
		}
		return i + 1
	}
	return i + 1
}

// closers terminates every open construct so the segment renders cleanly.
func (s *mdState) closers() string {
	var b strings.Builder
	if s.inlineCode {
		b.WriteByte('`')
	}
	if s.bold {
		b.WriteString("**")
	}
	if s.italicCh != 0 {
		b.WriteByte(s.italicCh)
	}
	if s.inFence {
		b.WriteString("\n```")
	}
	return b.String()
}

// reopeners restores the closed constructs at the start of the next segment.
func (s *mdState) reopeners() string {
	var b strings.Builder
	if s.inFence {
		b.WriteString("```")
		b.WriteString(s.fenceLang)
		b.WriteByte('\n')
	}
	if s.italicCh != 0 {
		b.WriteByte(s.italicCh)
	}
	if s.bold {
		b.WriteString("**")
	}
	if s.inlineCode {
		b.WriteByte('`')
	}
	return b.String()
}

// Split cuts text into ordered segments whose contents never exceed
// maxLength. Cut points are chosen at the last safe boundary at or before
// the limit: paragraph break, then line break, then word boundary, then a
// hard cut as last resort. Fenced code blocks are never split unless the
// block alone exceeds the limit; in that case the fence is closed at the
// cut and reopened with its language tag. Bold, italic and inline-code
// markers open at a cut are closed and reopened the same way, so the
// segments concatenate back to the input once injected markers are
// stripped.
func Split(text string, maxLength int) []Segment {
	if text == "" {
		return nil
	}
	if maxLength < markerReserve*2 {
		maxLength = markerReserve * 2
	}
	if len(text) <= maxLength {
		return []Segment{{Content: text}}
	}

	var segments []Segment
	var st mdState
	start := 0

	for {
		prefix := st.reopeners()
		if len(text)-start+len(prefix) <= maxLength {
			segments = append(segments, Segment{
				Content: prefix + text[start:],
				Index:   len(segments),
			})
			return segments
		}

		limit := start + maxLength - len(prefix) - markerReserve
		if limit <= start {
			limit = start + 1
		}
		if limit > len(text) {
			limit = len(text)
		}

		// Scan for the last candidate of each boundary class, keeping the
		// markdown state as it was at that candidate.
		var cutPara, cutLine, cutSpace, cutFenceLine int
		var stPara, stLine, stSpace, stFenceLine mdState
		cur := st
		for i := start; i < limit; {
			atLS := i == 0 || text[i-1] == '\n'
			ch := text[i]
			next := cur.advance(text, i, atLS)
			switch {
			case ch == '\n' && !cur.inFence && !cur.inlineCode:
				if i+2 <= limit && i+1 < len(text) && text[i+1] == '\n' {
					cutPara, stPara = i+2, cur
				}
				cutLine, stLine = i+1, cur
			case ch == '\n' && cur.inFence:
				cutFenceLine, stFenceLine = i+1, cur
			case ch == ' ' && !cur.inFence:
				cutSpace, stSpace = i+1, cur
			}
			i = next
		}

		var cut int
		var cst mdState
		switch {
		case cutPara > start:
			cut, cst = cutPara, stPara
		case cutLine > start:
			cut, cst = cutLine, stLine
		case cutSpace > start:
			cut, cst = cutSpace, stSpace
		case cutFenceLine > start:
			cut, cst = cutFenceLine, stFenceLine
		default:
			cut, cst = hardCut(text, start, limit, st)
		}

		// The reserve shortens the scan window, so a fence that closes
		// between limit and maxLength looks oversized even though a cut
		// right after its closing line needs no injected markers. Rescan
		// up to the full length for a marker-free cut before splitting
		// inside the fence.
		if cst.inFence {
			if c, cs, ok := cleanCut(text, start, start+maxLength-len(prefix), st); ok {
				cut, cst = c, cs
			}
		}

		segments = append(segments, Segment{
			Content:         prefix + text[start:cut] + cst.closers(),
			Index:           len(segments),
			ClosesCodeBlock: cst.inFence,
		})
		st = cst
		start = cut
	}
}

// cleanCut finds the last line boundary at or before limit where no
// markdown construct is open, so cutting there injects nothing and the
// full limit applies instead of the reserve-reduced one.
func cleanCut(text string, start, limit int, st mdState) (int, mdState, bool) {
	if limit > len(text) {
		limit = len(text)
	}
	cur := st
	var cut int
	var cst mdState
	for i := start; i < limit; {
		atLS := i == 0 || text[i-1] == '\n'
		ch := text[i]
		next := cur.advance(text, i, atLS)
		if ch == '\n' && cur.closers() == "" {
			cut, cst = i+1, cur
		}
		i = next
	}
	if cut > start {
		return cut, cst, true
	}
	return 0, mdState{}, false
}

// hardCut falls back to cutting mid-line, on a rune boundary and never in
// the middle of a marker token.
func hardCut(text string, start, limit int, st mdState) (int, mdState) {
	cut := limit
	for cut > start && cut < len(text) && text[cut]&0xC0 == 0x80 {
		cut--
	}
	if cut <= start {
		cut = start + 1
	}
	cst := st
	i := start
	for i < cut {
		atLS := i == 0 || text[i-1] == '\n'
		next := cst.advance(text, i, atLS)
		if next > cut {
			if i == start {
				// single token wider than the budget, consume it anyway
				i = next
			}
			break
		}
		i = next
	}
	return i, cst
}
