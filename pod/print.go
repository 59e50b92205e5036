package pod

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"memview/coloransi"
)

func expandFlagsRows(table *Table, fieldName string, fv reflect.Value) {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		emitFlags(table, fieldName, uint64(fv.Int()), fv.Type().Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		emitFlags(table, fieldName, fv.Uint(), fv.Type().Bits())
	}
}

func emitFlags(table *Table, fieldName string, val uint64, bitSize int) {
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	mask := uint64(^uint64(0))
	if bitSize < 64 {
		mask = (uint64(1) << bitSize) - 1
	}
	val &= mask
	if val == 0 {
		return
	}

	nibbles := (bitSize + 3) / 4
	for b := 0; b < bitSize; b++ {
		if (val>>b)&1 == 1 {
			bit := uint64(1) << b
			offsetHex := fmt.Sprintf("0x%0*X", nibbles, bit)
			table.AddRow("", offsetHex, fmt.Sprintf("bit %d True", b), "", "-")
		}
	}
}

func asPtrString(isValid ValidAddressFunc, fv reflect.Value) string {
	switch fv.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		addr := fv.Uint()
		if addr == 0 {
			return ""
		}
		if isValid(uintptr(addr)) {
			return fmt.Sprintf("0x%X ✓", addr)
		}
		return fmt.Sprintf("0x%X ×", addr)
	case reflect.Pointer:
		if fv.IsNil() {
			return ""
		}
		addr := uint64(fv.Pointer())
		if isValid(uintptr(addr)) {
			return fmt.Sprintf("0x%X ✓", addr)
		}
		return fmt.Sprintf("0x%X ×", addr)
	}
	return ""
}

// PrintStruct renders a table describing every exported field of v: its
// offset, value, whether the value looks like a live pointer (per
// isValid), and its pod tag. Grounded on the teacher's PrintPodStruct,
// generalized from a process.Process bound-checker to any
// ValidAddressFunc so it works the same way over a remote View or a
// self-process View.
func PrintStruct[T any](isValid ValidAddressFunc, v T, w io.Writer) {
	if isValid == nil {
		isValid = AlwaysValid
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			fmt.Fprintln(w, "<nil pointer>")
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		fmt.Fprintf(w, "PrintStruct: expected struct or *struct, got %s\n", rv.Kind())
		return
	}
	rt := rv.Type()

	fmt.Fprintf(w, "=== %s ===\n", rt.Name())
	fmt.Fprintf(w, "Size: 0x%X (%d bytes)\n\n", rt.Size(), rt.Size())

	table := NewTable(
		ColumnSpec{Header: "Field", MinWidth: 8},
		ColumnSpec{Header: "Offset", MinWidth: 10},
		ColumnSpec{
			Header:   "Value",
			MinWidth: 6,
			FormatFunc: func(s string) string {
				if s == "0 (0x0)" {
					return coloransi.Foreground(coloransi.CreateRGB(64, 64, 64), s)
				}
				return coloransi.Foreground(coloransi.ColorLimeGreen, s)
			},
		},
		ColumnSpec{
			Header:     "AsPtr",
			MinWidth:   6,
			BlankValue: "-",
			FormatFunc: func(s string) string {
				if s == "-" || s == "0x0" {
					return coloransi.Foreground(coloransi.White, s)
				}
				if strings.Contains(s, "✓") {
					return coloransi.Foreground(coloransi.ColorLimeGreen, s)
				}
				if strings.Contains(s, "×") {
					return coloransi.Foreground(coloransi.BrightRed, s)
				}
				return s
			},
		},
		ColumnSpec{Header: "Tags", MinWidth: 6, BlankValue: "-"},
	)

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		offset := field.Offset
		tag := field.Tag.Get("pod")

		if fv.Kind() == reflect.Array {
			printArrayField(table, field, fv, offset, tag)
			continue
		}

		var valueStr string
		switch fv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if strings.Contains(tag, "pointer") {
				valueStr = fmt.Sprintf("0x%016X", fv.Uint())
			} else {
				valueStr = fmt.Sprintf("%d (0x%X)", fv.Uint(), fv.Uint())
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			valueStr = fmt.Sprintf("%d (0x%X)", fv.Int(), fv.Int())
		case reflect.Bool:
			valueStr = fmt.Sprintf("%v", fv.Bool())
		case reflect.Pointer:
			if fv.IsNil() {
				valueStr = "nil"
			} else {
				valueStr = fmt.Sprintf("0x%016X", fv.Pointer())
			}
		default:
			valueStr = fmt.Sprintf("%v", fv.Interface())
		}

		offsetStr := fmt.Sprintf("0x%04X", offset)
		table.AddRow(field.Name, offsetStr, valueStr, asPtrString(isValid, fv), tag)

		if strings.Contains(strings.ToLower(field.Name), "flags") {
			expandFlagsRows(table, field.Name, fv)
		}
	}

	table.Render(w)
	fmt.Fprintln(w)
}

func printArrayField(table *Table, field reflect.StructField, fv reflect.Value, offset uintptr, tag string) {
	elemT := fv.Type().Elem()

	if elemT.Kind() == reflect.Uint8 && strings.Contains(tag, "char_array") {
		b := make([]byte, fv.Len())
		for j := 0; j < fv.Len(); j++ {
			b[j] = byte(fv.Index(j).Uint())
		}
		n := len(b)
		for j, x := range b {
			if x == 0 {
				n = j
				break
			}
		}
		valueStr := fmt.Sprintf("[%d]byte{...}", fv.Len())
		if n > 0 {
			valueStr = fmt.Sprintf("%q", string(b[:n]))
		}
		table.AddRow(field.Name, fmt.Sprintf("0x%04X", offset), valueStr, "", tag)
		return
	}

	allZero := true
	for j := 0; j < fv.Len(); j++ {
		if !fv.Index(j).IsZero() {
			allZero = false
			break
		}
	}
	var valueStr string
	if allZero {
		valueStr = fmt.Sprintf("[%d]%s{0...}", fv.Len(), elemT)
	} else {
		maxShow := min(fv.Len(), 3)
		sb := &strings.Builder{}
		fmt.Fprintf(sb, "[%d]%s{", fv.Len(), elemT)
		for j := 0; j < maxShow; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			ev := fv.Index(j)
			switch ev.Kind() {
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				fmt.Fprintf(sb, "0x%X", ev.Uint())
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				fmt.Fprintf(sb, "%d", ev.Int())
			default:
				fmt.Fprintf(sb, "%v", ev.Interface())
			}
		}
		if fv.Len() > maxShow {
			sb.WriteString("...")
		}
		sb.WriteString("}")
		valueStr = sb.String()
	}
	table.AddRow(field.Name, fmt.Sprintf("0x%04X", offset), valueStr, "", tag)
}

// PrintStructCompact renders v on a single line, Field:value pairs.
func PrintStructCompact[T any](v T, w io.Writer) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			fmt.Fprintln(w, "<nil pointer>")
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		fmt.Fprintf(w, "PrintStructCompact: expected struct or *struct, got %s\n", rv.Kind())
		return
	}
	rt := rv.Type()

	fmt.Fprintf(w, "%s {", rt.Name())
	first := true
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if !first {
			fmt.Fprint(w, ", ")
		}
		first = false

		fv := rv.Field(i)
		tag := f.Tag.Get("pod")
		if strings.Contains(tag, "pointer") && (fv.Kind() == reflect.Uint || fv.Kind() == reflect.Uint64 || fv.Kind() == reflect.Uintptr) {
			fmt.Fprintf(w, "%s:0x%X", f.Name, fv.Uint())
		} else {
			fmt.Fprintf(w, "%s:%v", f.Name, fv.Interface())
		}
	}
	fmt.Fprintln(w, "}")
}

// PrintStructStdout is PrintStruct against os.Stdout.
func PrintStructStdout[T any](isValid ValidAddressFunc, v T) {
	PrintStruct(isValid, v, os.Stdout)
}
