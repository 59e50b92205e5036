package pattern

import "testing"

func TestLexerBasic(t *testing.T) {
	lex := NewLexer("DE AD ?? EF")
	var got []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("unexpected lexer error: %v", err)
		}
		if tok.Kind == TokenEndOfLine {
			break
		}
		got = append(got, tok)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(got))
	}
	if got[0].Kind != TokenByte || got[0].Byte != 0xDE {
		t.Errorf("token 0 = %+v, want byte 0xDE", got[0])
	}
	if got[2].Kind != TokenWildcard {
		t.Errorf("token 2 = %+v, want wildcard", got[2])
	}
}

func TestLexerErrorIndexIsRuneCount(t *testing.T) {
	// U+3000 is whitespace of one rune but three UTF-8 bytes, so a byte
	// index for 'Z' would be 5.
	lex := NewLexer("DE　Z")
	if _, err := lex.Next(); err != nil {
		t.Fatalf("unexpected error on first byte: %v", err)
	}
	_, err := lex.Next()
	if err == nil {
		t.Fatal("expected an error on invalid hex digit")
	}
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Index != 3 {
		t.Errorf("Index = %d, want 3 (rune offset of 'Z')", perr.Index)
	}
}

func TestPatternParseAndString(t *testing.T) {
	p, err := Parse("DE AD ?? EF")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", p.Len())
	}
	if got, want := p.String(), "DE AD ?? EF"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	roundTripped, err := Parse(p.String())
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if !p.Equal(roundTripped) {
		t.Errorf("round-tripped pattern not equal to original")
	}
}

func TestScanFindsOverlappingMatches(t *testing.T) {
	p, err := Parse("AA AA")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	buf := []byte{0xAA, 0xAA, 0xAA}
	offsets := NewIterator(p, buf).All()
	if len(offsets) != 2 {
		t.Fatalf("offsets = %v, want 2 overlapping matches", offsets)
	}
	if offsets[0] != 0 || offsets[1] != 1 {
		t.Errorf("offsets = %v, want [0 1]", offsets)
	}
}

func TestScanWildcardMatchesAnyByte(t *testing.T) {
	p, err := Parse("DE ?? EF")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	buf := []byte{0x00, 0xDE, 0x99, 0xEF, 0x00}
	offsets := NewIterator(p, buf).All()
	if len(offsets) != 1 || offsets[0] != 1 {
		t.Errorf("offsets = %v, want [1]", offsets)
	}
}

func TestScanPatternLongerThanBufferYieldsNoMatches(t *testing.T) {
	p, err := Parse("DE AD BE EF")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	buf := []byte{0xDE, 0xAD}
	offsets := NewIterator(p, buf).All()
	if len(offsets) != 0 {
		t.Errorf("offsets = %v, want none", offsets)
	}
}

func TestScanEmptyPatternMatchesEveryOffsetInclusive(t *testing.T) {
	p := New(nil)
	buf := []byte{1, 2, 3}
	offsets := NewIterator(p, buf).All()
	if len(offsets) != len(buf)+1 {
		t.Fatalf("offsets = %v, want %d entries (0..len inclusive)", offsets, len(buf)+1)
	}
	for i, off := range offsets {
		if off != i {
			t.Errorf("offsets[%d] = %d, want %d", i, off, i)
		}
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	if _, err := Parse("GG"); err == nil {
		t.Error("expected an error parsing invalid hex digits")
	}
}
