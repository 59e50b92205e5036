package pattern

import (
	"fmt"
	"strings"
)

// OptionalByte is a single element of a compiled Pattern: either a
// concrete byte to match, or a wildcard (Present == false) matching any
// byte. Go has no Option<T>; this is its POD-safe rendition.
type OptionalByte struct {
	Value   uint8
	Present bool
}

// Byte constructs a concrete, present OptionalByte.
func Byte(b uint8) OptionalByte { return OptionalByte{Value: b, Present: true} }

// Wildcard is the wildcard OptionalByte, exposed for readability at call
// sites that build patterns programmatically.
var Wildcard = OptionalByte{}

// Pattern is an immutable, ordered sequence of OptionalByte. Once built it
// cannot be mutated; equality and string rendering are defined over the
// underlying sequence.
type Pattern struct {
	elements []OptionalByte
}

// New builds a Pattern from a trusted, already-compiled sequence.
func New(elements []OptionalByte) Pattern {
	cp := make([]OptionalByte, len(elements))
	copy(cp, elements)
	return Pattern{elements: cp}
}

// Parse compiles a signature string via the Lexer, appending a byte or
// wildcard element per token until TokenEndOfLine.
func Parse(s string) (Pattern, error) {
	lex := NewLexer(s)
	var elements []OptionalByte
	for {
		tok, err := lex.Next()
		if err != nil {
			return Pattern{}, err
		}
		switch tok.Kind {
		case TokenEndOfLine:
			return New(elements), nil
		case TokenByte:
			elements = append(elements, Byte(tok.Byte))
		case TokenWildcard:
			elements = append(elements, Wildcard)
		}
	}
}

// Len reports the number of elements in the pattern.
func (p Pattern) Len() int { return len(p.elements) }

// At returns the element at index i.
func (p Pattern) At(i int) OptionalByte { return p.elements[i] }

// Equal reports structural equality of two patterns.
func (p Pattern) Equal(other Pattern) bool {
	if len(p.elements) != len(other.elements) {
		return false
	}
	for i := range p.elements {
		if p.elements[i] != other.elements[i] {
			return false
		}
	}
	return true
}

// String renders the pattern as uppercase "HH HH ?? HH", single-space
// separated. Parsing this output reproduces an equal Pattern.
func (p Pattern) String() string {
	parts := make([]string, len(p.elements))
	for i, e := range p.elements {
		if e.Present {
			parts[i] = fmt.Sprintf("%02X", e.Value)
		} else {
			parts[i] = "??"
		}
	}
	return strings.Join(parts, " ")
}

// matchesAt reports whether the pattern matches buf starting at offset i.
// Caller guarantees i+len(p.elements) <= len(buf).
func (p Pattern) matchesAt(buf []byte, i int) bool {
	for j, e := range p.elements {
		if e.Present && buf[i+j] != e.Value {
			return false
		}
	}
	return true
}

// Iterator is a single-pass, mutable cursor performing the naive O(n·m)
// overlapping byte scan described by the spec: it advances the candidate
// start index by exactly one on every call, matched or not, and never
// panics when the pattern is longer than the remaining buffer.
type Iterator struct {
	pattern Pattern
	buf     []byte
	next    int
	done    bool
}

// NewIterator creates a fresh iterator over buf for pattern. Iterators are
// not restartable; build a new one from the same Pattern and buffer to
// scan again.
func NewIterator(p Pattern, buf []byte) *Iterator {
	return &Iterator{pattern: p, buf: buf}
}

// Next yields the next matching offset, or ok == false once exhausted.
func (it *Iterator) Next() (offset int, ok bool) {
	if it.done {
		return 0, false
	}
	m := it.pattern.Len()
	n := len(it.buf)
	if m > n {
		it.done = true
		return 0, false
	}
	for i := it.next; i <= n-m; i++ {
		if it.pattern.matchesAt(it.buf, i) {
			it.next = i + 1
			return i, true
		}
	}
	it.done = true
	return 0, false
}

// All drains the iterator into a slice, for callers that don't need
// lazy, one-at-a-time consumption.
func (it *Iterator) All() []int {
	var out []int
	for {
		off, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, off)
	}
}
