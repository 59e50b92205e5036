// Package pod provides struct-tag-driven reading and writing of POD
// (plain-old-data) structs over a memview.View, plus diagnostic
// pretty-printing. It is the higher-level counterpart to
// memview.ReadValue/WriteValue: where those functions move flat,
// pointer-free values, this package understands a `pod:"..."` tag
// vocabulary for validating and following pointer-typed fields
// (addr-sized uint fields tagged valid_pointer) and for sanitizing
// fixed-size byte arrays tagged char_array.
package pod

import (
	"errors"
	"reflect"
	"strings"
	"unsafe"

	"memview/memview"
)

// ValidAddressFunc reports whether addr looks like a live, readable
// address in the view being read. Callers typically pass a closure over
// a memview.MemRange.Contains check or an OsProcess-derived bound.
type ValidAddressFunc func(addr uintptr) bool

// AlwaysValid treats every non-zero address as valid, matching the
// teacher's original non-strict default when no process bound is known.
func AlwaysValid(addr uintptr) bool { return addr != 0 }

func SizeOf[T any]() uintptr {
	var t T
	return unsafe.Sizeof(t)
}

// hasPointers reports whether T, or any field/element type it contains,
// is a Go-managed reference type. ReadStruct refuses such T: copying
// remote bytes over a Go pointer/slice/map/string field would hand the
// garbage collector an address it does not own.
func hasPointers[T any]() bool {
	var t T
	return typeHasPointers(reflect.TypeOf(t))
}

func typeHasPointers(rt reflect.Type) bool {
	if rt == nil {
		return false
	}
	switch rt.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.String, reflect.Chan:
		return true
	case reflect.Array:
		return typeHasPointers(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if typeHasPointers(rt.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ReadStruct reads sizeof(T) bytes from view at address, decodes them
// into a T by raw copy, then walks T's pod tags validating and cleaning
// pointer-typed fields (see validateAndCleanPointers). It reports false
// on a short read or if T is not POD.
func ReadStruct[T any](view memview.View, address uintptr, isValid ValidAddressFunc) (T, bool) {
	var zero T
	if hasPointers[T]() {
		return zero, false
	}

	size := int(SizeOf[T]())
	if size == 0 {
		return zero, false
	}

	buf := make([]byte, size)
	if n := view.Read(address, buf); n != size {
		return zero, false
	}

	var out T
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&out)), size)
	copy(dst, buf)

	if isValid == nil {
		isValid = AlwaysValid
	}
	validateAndCleanPointers(&out, isValid)

	return out, true
}

// WriteStruct serializes v's raw memory layout and writes it to address,
// reporting whether the full write succeeded. T must be POD, for the
// same reason ReadStruct requires it.
func WriteStruct[T any](view memview.View, address uintptr, v T) bool {
	if hasPointers[T]() {
		return false
	}
	size := int(unsafe.Sizeof(v))
	if size == 0 {
		return true
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	return view.Write(address, src) == size
}

// ReadPointerList reads count address-sized slots starting at addr and
// returns the non-zero ones, dropping NULL slots. No other validity
// check is applied (each slot only goes through AlwaysValid).
func ReadPointerList(view memview.View, addr uintptr, count int) []uintptr {
	if count <= 0 {
		return nil
	}
	ptrs := memview.ReadArray[uintptr](view, addr, count)
	results := make([]uintptr, 0, len(ptrs))
	for _, p := range ptrs {
		if p != 0 && AlwaysValid(p) {
			results = append(results, p)
		}
	}
	return results
}

// validateAndCleanPointers walks structPtr's fields, and for every field
// tagged pod:"valid_pointer" zeroes it out if isValid rejects its value
// (or if it is a required pointer and happens to be NULL). Fields tagged
// pod:"char_array" are null-terminated in place. This is the non-strict
// counterpart to ValidateStrict.
func validateAndCleanPointers(structPtr interface{}, isValid ValidAddressFunc) {
	v := reflect.ValueOf(structPtr).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tag := fieldType.Tag.Get("pod")
		if tag == "" {
			continue
		}
		if err := processField(field, fieldType, tag, isValid, false); err != nil {
			cleanInvalidField(field, tag)
		}
	}
}

// ValidateStrict runs the same tag-driven checks as ReadStruct's cleanup
// pass, but returns an error on the first violation instead of silently
// zeroing the field. Useful when a caller wants to treat a malformed
// structure as a hard failure rather than tolerate it.
func ValidateStrict(structPtr interface{}, isValid ValidAddressFunc) error {
	v := reflect.ValueOf(structPtr).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tag := fieldType.Tag.Get("pod")
		if tag == "" {
			continue
		}
		if err := processField(field, fieldType, tag, isValid, true); err != nil {
			return err
		}
	}
	return nil
}

func processField(field reflect.Value, fieldType reflect.StructField, tag string, isValid ValidAddressFunc, strict bool) error {
	tags := parsePodTags(tag)

	switch tags["type"] {
	case "valid_pointer":
		return validatePointerField(field, fieldType, tags, isValid, strict)
	case "char_array":
		cleanCharArray(field)
	case "skip":
	}
	return nil
}

func validatePointerField(field reflect.Value, fieldType reflect.StructField, tags map[string]string, isValid ValidAddressFunc, strict bool) error {
	switch field.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
	default:
		return nil
	}

	ptr := field.Uint()

	if tags["required"] == "true" && ptr == 0 {
		if strict {
			return errors.New("required pointer field " + fieldType.Name + " is NULL")
		}
		return nil
	}
	if ptr == 0 {
		return nil
	}

	if !isValid(uintptr(ptr)) {
		if strict {
			return errors.New("invalid pointer in field " + fieldType.Name)
		}
		if field.CanSet() {
			field.SetUint(0)
		}
	}
	return nil
}

func parsePodTags(tagStr string) map[string]string {
	tags := make(map[string]string)
	if tagStr == "" {
		return tags
	}
	parts := strings.Split(tagStr, ",")
	tags["type"] = parts[0]
	for i := 1; i < len(parts); i++ {
		if parts[i] == "required" {
			tags["required"] = "true"
		} else if kv := strings.SplitN(parts[i], "=", 2); len(kv) == 2 {
			tags[kv[0]] = kv[1]
		}
	}
	return tags
}

func cleanInvalidField(field reflect.Value, tag string) {
	tags := parsePodTags(tag)
	if tags["type"] == "valid_pointer" {
		switch field.Kind() {
		case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if field.CanSet() {
				field.SetUint(0)
			}
		}
	}
}

func cleanCharArray(field reflect.Value) {
	if field.Kind() != reflect.Array || field.Type().Elem().Kind() != reflect.Uint8 {
		return
	}
	foundNull := false
	for i := 0; i < field.Len(); i++ {
		if foundNull {
			if field.Index(i).CanSet() {
				field.Index(i).SetUint(0)
			}
		} else if field.Index(i).Uint() == 0 {
			foundNull = true
		}
	}
}
