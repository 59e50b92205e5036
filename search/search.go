// Package search performs a bounded recursive structural search over a
// memview.View: starting from a base address, scan each visited
// struct-sized region for byte patterns matching a target value, and
// optionally follow aligned candidate pointers found along the way to
// continue the search from there. Adapted from the teacher's
// process.Process-bound Search to work over any View, with liveness
// checks delegated to a caller-supplied ValidAddressFunc instead of a
// single concrete process type.
package search

import (
	"fmt"
	"unsafe"

	"memview/memview"
)

// ValidAddressFunc reports whether addr is worth following as a pointer.
type ValidAddressFunc func(addr uintptr) bool

type Searcher struct {
	MaxStructSize uint
	MaxDepth      int
	MinAlignment  uint
	SearchFor     func([]byte) bool
	IsValidAddr   ValidAddressFunc
}

type Option func(*Searcher)

func WithMaxStructSize(size uint) Option {
	return func(s *Searcher) { s.MaxStructSize = size }
}

func WithMaxDepth(depth int) Option {
	return func(s *Searcher) { s.MaxDepth = depth }
}

func WithMinAlignment(align uint) Option {
	return func(s *Searcher) { s.MinAlignment = align }
}

func WithValidAddressFunc(fn ValidAddressFunc) Option {
	return func(s *Searcher) { s.IsValidAddr = fn }
}

// WithSearchForType configures the search to look for the raw memory
// representation of val. val must be POD for the byte comparison to be
// meaningful.
func WithSearchForType[T any](val T) Option {
	return func(s *Searcher) {
		size := int(unsafe.Sizeof(val))
		valBytes := make([]byte, size)
		copy(valBytes, unsafe.Slice((*byte)(unsafe.Pointer(&val)), size))
		s.SearchFor = func(data []byte) bool {
			if len(data) < len(valBytes) {
				return false
			}
			for i, b := range valBytes {
				if data[i] != b {
					return false
				}
			}
			return true
		}
	}
}

// Result is a path of byte offsets from base down to the address where
// SearchFor matched, one offset per pointer hop plus a final in-struct
// offset.
type Result struct {
	Path []uintptr
}

// Search walks outward from base, reporting every Result whose final
// offset's bytes satisfy the configured SearchFor predicate.
func Search(view memview.View, base uintptr, options ...Option) ([]Result, error) {
	s := &Searcher{
		MaxStructSize: 256,
		MaxDepth:      3,
		MinAlignment:  4,
		IsValidAddr:   func(uintptr) bool { return true },
	}
	for _, opt := range options {
		opt(s)
	}
	if s.SearchFor == nil {
		return nil, fmt.Errorf("search: no search target specified")
	}

	var results []Result
	visited := make(map[uintptr]bool)

	var walk func(addr uintptr, depth int, path []uintptr)
	walk = func(addr uintptr, depth int, path []uintptr) {
		if depth > s.MaxDepth || visited[addr] {
			return
		}
		visited[addr] = true

		data := make([]byte, s.MaxStructSize)
		n := view.Read(addr, data)
		if n <= 0 {
			return
		}
		data = data[:n]

		for offset := uint(0); offset < s.MaxStructSize; offset += s.MinAlignment {
			if offset+s.MinAlignment > uint(len(data)) {
				break
			}

			if s.SearchFor(data[offset:]) {
				newPath := append(append([]uintptr{}, path...), uintptr(offset))
				results = append(results, Result{Path: newPath})
			}

			if offset%8 == 0 && depth < s.MaxDepth && offset+8 <= uint(len(data)) {
				ptrVal := uintptr(0)
				for i := 7; i >= 0; i-- {
					ptrVal = ptrVal<<8 | uintptr(data[offset+uint(i)])
				}
				if ptrVal != 0 && s.IsValidAddr(ptrVal) {
					newPath := append(append([]uintptr{}, path...), uintptr(offset))
					walk(ptrVal, depth+1, newPath)
				}
			}
		}
	}

	walk(base, 0, nil)
	return results, nil
}
