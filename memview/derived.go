package memview

import (
	"reflect"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"
)

// podTypeHasPointers is the runtime rendition of the spec's "dynamic POD
// assertion at runtime" design note (§9): Go has no trait bound
// expressing "plain old data", so every derived generic helper below
// walks T's type once via reflection and refuses to treat it as a flat
// byte sequence if it contains anything pointer-shaped. Adapted from the
// teacher's pod.typeHasPointers, which does the same walk to decide
// whether a struct read from process memory is safe to hand back as a
// Go value.
func podTypeHasPointers(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.String, reflect.Chan:
		return true
	case reflect.Array:
		return podTypeHasPointers(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if podTypeHasPointers(rt.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func isPOD[T any]() bool {
	var t T
	return !podTypeHasPointers(reflect.TypeOf(t))
}

func strideOf[T any]() uintptr {
	var t T
	return unsafe.Sizeof(t)
}

// ReadValue reads a T from address. Fails (ok == false) if T is not POD,
// T has zero size, or fewer than sizeof(T) bytes could be read.
func ReadValue[T any](view View, address uintptr) (v T, ok bool) {
	if !isPOD[T]() {
		return v, false
	}
	size := strideOf[T]()
	if size == 0 {
		return v, false
	}
	buf := make([]byte, size)
	n := view.Read(address, buf)
	if uintptr(n) != size {
		return v, false
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	copy(dst, buf)
	return v, true
}

// WriteValue writes v to address, symmetrical with ReadValue.
func WriteValue[T any](view View, address uintptr, v T) bool {
	if !isPOD[T]() {
		return false
	}
	size := strideOf[T]()
	if size == 0 {
		return false
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	n := view.Write(address, src)
	return uintptr(n) == size
}

// ReadArray fills a buffer of capacity maxCount*sizeof(T), then trims to
// bytesRead/sizeof(T). A zero stride yields an empty result and never
// divides by zero.
func ReadArray[T any](view View, address uintptr, maxCount int) []T {
	if maxCount <= 0 || !isPOD[T]() {
		return nil
	}
	stride := strideOf[T]()
	if stride == 0 {
		return []T{}
	}
	buf := make([]byte, stride*uintptr(maxCount))
	n := view.Read(address, buf)
	count := uintptr(n) / stride
	if count == 0 {
		return []T{}
	}
	out := make([]T, count)
	src := buf[:count*stride]
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), int(count*stride))
	copy(dst, src)
	return out
}

// WriteArray writes seq starting at address, returning the number of
// elements actually written (which may be short on a partial write).
func WriteArray[T any](view View, address uintptr, seq []T) int {
	if len(seq) == 0 || !isPOD[T]() {
		return 0
	}
	stride := strideOf[T]()
	if stride == 0 {
		return 0
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&seq[0])), len(seq)*int(stride))
	n := view.Write(address, src)
	return n / int(stride)
}

// ReadPointerArray reads count native-width addresses and reattaches
// them to view, producing RawPointers rather than bare integers.
func ReadPointerArray(view View, address uintptr, count int) []RawPointer {
	addrs := ReadArray[uintptr](view, address, count)
	out := make([]RawPointer, len(addrs))
	for i, a := range addrs {
		out[i] = Ptr(view, a)
	}
	return out
}

// ReadTypedPointerArray is ReadPointerArray specialised to TypedPointer[T].
func ReadTypedPointerArray[T any](view View, address uintptr, count int) []TypedPointer[T] {
	addrs := ReadArray[uintptr](view, address, count)
	out := make([]TypedPointer[T], len(addrs))
	for i, a := range addrs {
		out[i] = TypedPtr[T](view, a)
	}
	return out
}

// Encoding names the code-unit width used by ReadString/WriteString.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF16
	UTF32
)

func maxScalarWidth(e Encoding) int {
	switch e {
	case UTF8:
		return 4
	case UTF16:
		return 2
	case UTF32:
		return 1
	default:
		return 1
	}
}

// ReadString reads up to maxChars*maxScalarWidth(enc) code units, and if
// zeroTerm, truncates at the first zero code unit before decoding under
// enc with replacement-on-error, then truncates the decoded string to at
// most maxChars runes.
func ReadString(view View, address uintptr, maxChars int, enc Encoding, zeroTerm bool) string {
	if maxChars <= 0 {
		return ""
	}
	width := maxScalarWidth(enc)
	unitSize := 1
	switch enc {
	case UTF16:
		unitSize = 2
	case UTF32:
		unitSize = 4
	}
	raw := make([]byte, maxChars*width*unitSize)
	n := view.Read(address, raw)
	raw = raw[:n]

	var decoded string
	switch enc {
	case UTF16:
		units := bytesToUint16(raw)
		if zeroTerm {
			units = truncateAtZero16(units)
		}
		decoded = string(utf16.Decode(units))
	case UTF32:
		units := bytesToUint32(raw)
		if zeroTerm {
			units = truncateAtZero32(units)
		}
		runes := make([]rune, len(units))
		for i, u := range units {
			runes[i] = rune(u)
		}
		decoded = string(runes)
	default: // UTF8
		if zeroTerm {
			if idx := indexZeroByte(raw); idx >= 0 {
				raw = raw[:idx]
			}
		}
		decoded = toUTF8Lenient(raw)
	}

	return truncateRunes(decoded, maxChars)
}

// WriteString writes s at address under enc, optionally appending one
// zero code unit. UTF-8 takes a fast path (no transcode); other
// encodings transcode from UTF-8 with replacement-on-error.
func WriteString(view View, address uintptr, s string, enc Encoding, zeroTerm bool) bool {
	var raw []byte
	switch enc {
	case UTF16:
		units := utf16.Encode([]rune(s))
		raw = uint16ToBytes(units)
		if zeroTerm {
			raw = append(raw, 0, 0)
		}
	case UTF32:
		runes := []rune(s)
		units := make([]uint32, len(runes))
		for i, r := range runes {
			units[i] = uint32(r)
		}
		raw = uint32ToBytes(units)
		if zeroTerm {
			raw = append(raw, 0, 0, 0, 0)
		}
	default: // UTF8
		raw = []byte(s)
		if zeroTerm {
			raw = append(raw, 0)
		}
	}
	n := view.Write(address, raw)
	return n == len(raw)
}

func toUTF8Lenient(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb = append(sb, r)
		b = b[size:]
	}
	return string(sb)
}

func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

func indexZeroByte(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func truncateAtZero16(units []uint16) []uint16 {
	for i, u := range units {
		if u == 0 {
			return units[:i]
		}
	}
	return units
}

func truncateAtZero32(units []uint32) []uint32 {
	for i, u := range units {
		if u == 0 {
			return units[:i]
		}
	}
	return units
}

func bytesToUint16(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return out
}

func bytesToUint32(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = uint32(b[4*i]) | uint32(b[4*i+1])<<8 | uint32(b[4*i+2])<<16 | uint32(b[4*i+3])<<24
	}
	return out
}

func uint16ToBytes(units []uint16) []byte {
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

func uint32ToBytes(units []uint32) []byte {
	out := make([]byte, len(units)*4)
	for i, u := range units {
		out[4*i] = byte(u)
		out[4*i+1] = byte(u >> 8)
		out[4*i+2] = byte(u >> 16)
		out[4*i+3] = byte(u >> 24)
	}
	return out
}
