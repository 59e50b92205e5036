package pod

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"memview/memview"
)

// ReadLinkedStruct reads a struct from view at addr into v (a pointer to
// a struct), and for every field tagged pod:"valid_pointer" whose Go
// type is itself a pointer to a struct, follows the remote address and
// recursively reads the pointed-to struct in place — adapted from the
// teacher's reflection.go ReadStruct, generalized from a single
// process.Process collaborator to any memview.View. Unlike ReadStruct's
// flat byte copy, this path is for structs whose field types on the Go
// side already encode "this is a pointer to a child record I want
// materialized", not merely an address to validate.
func ReadLinkedStruct(view memview.View, addr uintptr, v interface{}, isValid ValidAddressFunc) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("pod: ReadLinkedStruct: v must be a non-nil pointer to a struct")
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("pod: ReadLinkedStruct: v must point to a struct")
	}
	if isValid == nil {
		isValid = AlwaysValid
	}

	size := int(elem.Type().Size())
	data := make([]byte, size)
	if n := view.Read(addr, data); n != size {
		return fmt.Errorf("pod: ReadLinkedStruct: short read at 0x%x (%d/%d bytes)", addr, n, size)
	}

	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		fieldType := elem.Type().Field(i)
		if !field.CanSet() {
			continue
		}

		offset := fieldType.Offset
		fieldSize := fieldType.Type.Size()
		if offset+fieldSize > uintptr(len(data)) {
			return fmt.Errorf("pod: ReadLinkedStruct: field %s out of bounds", fieldType.Name)
		}
		fieldData := data[offset : offset+fieldSize]

		switch field.Kind() {
		case reflect.Ptr:
			if err := readLinkedPointerField(view, field, fieldType, fieldData, isValid); err != nil {
				return err
			}
		case reflect.Struct:
			if err := ReadLinkedStruct(view, addr+offset, field.Addr().Interface(), isValid); err != nil {
				return err
			}
		default:
			readLinkedScalarField(field, fieldData)
		}
	}

	return nil
}

func readLinkedPointerField(view memview.View, field reflect.Value, fieldType reflect.StructField, fieldData []byte, isValid ValidAddressFunc) error {
	var ptrAddr uint64
	switch len(fieldData) {
	case 4:
		ptrAddr = uint64(binary.LittleEndian.Uint32(fieldData))
	case 8:
		ptrAddr = binary.LittleEndian.Uint64(fieldData)
	default:
		return nil
	}

	tag := fieldType.Tag.Get("pod")
	if !strings.Contains(tag, "valid_pointer") {
		return nil
	}
	if ptrAddr == 0 {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if !isValid(uintptr(ptrAddr)) {
		if strings.Contains(tag, "err_failure") {
			return fmt.Errorf("pod: invalid pointer 0x%x in field %s", ptrAddr, fieldType.Name)
		}
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	newObj := reflect.New(fieldType.Type.Elem())
	if err := ReadLinkedStruct(view, uintptr(ptrAddr), newObj.Interface(), isValid); err != nil {
		if strings.Contains(tag, "err_failure") {
			return fmt.Errorf("pod: failed to read pointed struct for field %s: %w", fieldType.Name, err)
		}
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	field.Set(newObj)
	return nil
}

func readLinkedScalarField(field reflect.Value, fieldData []byte) {
	if len(fieldData) == 0 {
		return
	}
	switch field.Kind() {
	case reflect.Uint8:
		field.SetUint(uint64(fieldData[0]))
	case reflect.Uint16:
		field.SetUint(uint64(binary.LittleEndian.Uint16(fieldData)))
	case reflect.Uint32:
		field.SetUint(uint64(binary.LittleEndian.Uint32(fieldData)))
	case reflect.Uint64, reflect.Uintptr:
		field.SetUint(binary.LittleEndian.Uint64(fieldData))
	case reflect.Int8:
		field.SetInt(int64(int8(fieldData[0])))
	case reflect.Int16:
		field.SetInt(int64(int16(binary.LittleEndian.Uint16(fieldData))))
	case reflect.Int32:
		field.SetInt(int64(int32(binary.LittleEndian.Uint32(fieldData))))
	case reflect.Int64:
		field.SetInt(int64(binary.LittleEndian.Uint64(fieldData)))
	case reflect.Float32:
		bits := binary.LittleEndian.Uint32(fieldData)
		field.SetFloat(float64(*(*float32)(unsafe.Pointer(&bits))))
	case reflect.Float64:
		bits := binary.LittleEndian.Uint64(fieldData)
		field.SetFloat(*(*float64)(unsafe.Pointer(&bits)))
	case reflect.Bool:
		field.SetBool(fieldData[0] != 0)
	case reflect.Array:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			for i := 0; i < field.Len() && i < len(fieldData); i++ {
				field.Index(i).SetUint(uint64(fieldData[i]))
			}
		}
	default:
		// Anything else (rare: enums over other widths, etc.) goes
		// through binary.Read against the field's own address, same
		// fallback the non-linked ReadStruct path doesn't need because
		// it never narrows to individual fields.
		if field.CanAddr() {
			_ = binary.Read(bytes.NewReader(fieldData), binary.LittleEndian, field.Addr().Interface())
		}
	}
}
