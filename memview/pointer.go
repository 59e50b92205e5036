package memview

// RawPointer is a (view, address) pair. It owns no memory; every
// operation forwards to its view with address prepended. Two RawPointers
// are equal iff their addresses are equal — the view is not part of
// identity.
type RawPointer struct {
	View    View
	Address uintptr
}

// Ptr constructs a RawPointer over view at address.
func Ptr(view View, address uintptr) RawPointer {
	return RawPointer{View: view, Address: address}
}

// Offset returns a new RawPointer at Address+delta. Arithmetic is
// wrapping; overflow/underflow behaviour is the caller's responsibility.
func (p RawPointer) Offset(delta int64) RawPointer {
	return RawPointer{View: p.View, Address: p.Address + uintptr(delta)}
}

// Equal compares by address only.
func (p RawPointer) Equal(other RawPointer) bool {
	return p.Address == other.Address
}

// ToRange builds the half-open range [p, p+size).
func (p RawPointer) ToRange(size uintptr) MemRange {
	return MemRange{view: p.View, base: p.Address, size: size}
}

// ToRangeEnd builds [p, end). ok is false if end < p.Address.
func (p RawPointer) ToRangeEnd(end uintptr) (r MemRange, ok bool) {
	if end < p.Address {
		return MemRange{}, false
	}
	return MemRange{view: p.View, base: p.Address, size: end - p.Address}, true
}

// To applies fn to p, the uniform "construct a domain type from a
// pointer" convention: any single-argument constructor can be passed
// without the domain type needing to inherit from a common base.
func To[T any](p RawPointer, fn func(RawPointer) T) T {
	return fn(p)
}

// TypedPointer is a RawPointer statically tagged with a POD payload type.
// Arithmetic is by byte offset, not by stride of T — this matches the
// pointer-chain-walking source behaviour the spec calls out in §4.7, and
// is documented here rather than silently "fixed" to stride arithmetic.
type TypedPointer[T any] struct {
	Raw RawPointer
}

// TypedPtr constructs a TypedPointer[T] over view at address.
func TypedPtr[T any](view View, address uintptr) TypedPointer[T] {
	return TypedPointer[T]{Raw: Ptr(view, address)}
}

// Offset returns a new TypedPointer[T] offset by delta bytes (not
// delta*sizeof(T)).
func (p TypedPointer[T]) Offset(delta int64) TypedPointer[T] {
	return TypedPointer[T]{Raw: p.Raw.Offset(delta)}
}

// Deref reads the pointed-to T.
func (p TypedPointer[T]) Deref() (T, bool) {
	return ReadValue[T](p.Raw.View, p.Raw.Address)
}

// Write stores v at the pointed-to address.
func (p TypedPointer[T]) Write(v T) bool {
	return WriteValue(p.Raw.View, p.Raw.Address, v)
}

// DerefChain walks one level of indirection for a pointer-to-pointer:
// TypedPointer[TypedPointer[U]].Deref() would read the U by value via the
// generic machinery, which is wrong — the intermediate value IS an
// address. DerefChain reads that address and returns a TypedPointer[U]
// anchored to the same view, the step pointer-chain traversal is built
// from. Every hop derefs, including the last; a trailing byte offset
// that should not be dereferenced is expressed by the caller calling
// Offset before the final DerefChain/Deref, not by this primitive.
func DerefChain[U any](p TypedPointer[TypedPointer[U]]) (TypedPointer[U], bool) {
	addr, ok := ReadValue[uintptr](p.Raw.View, p.Raw.Address)
	if !ok {
		return TypedPointer[U]{}, false
	}
	return TypedPtr[U](p.Raw.View, addr), true
}
