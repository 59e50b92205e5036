// Package hexdump renders colorized hex dumps of raw bytes, memview
// ranges, and pattern scan hits. It is adapted from the teacher's
// ProcessBlob-only hexdump: instead of taking a process memory map to
// validate embedded pointers, it takes a plain ValidAddressFunc, and
// instead of a single byte-slice highlight pattern it can also
// highlight the hit offsets of a pattern.Pattern scan (HighlightScan).
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"memview/coloransi"
	"memview/memview"
	"memview/pattern"
)

// ValidAddressFunc mirrors pod.ValidAddressFunc without creating an
// import cycle between hexdump and pod; both packages independently
// accept "does this look like a live address" closures from the
// caller.
type ValidAddressFunc func(addr uintptr) bool

// Options customizes a hex dump's appearance.
type Options struct {
	BytesPerLine int
	GroupSize    int
	ShowASCII    bool
	ShowOffset   bool
	StartOffset  uint64
	OffsetWidth  int

	OffsetColor              coloransi.ColorCode
	HexColor                 coloransi.ColorCode
	ASCIIColor               coloransi.ColorCode
	NonPrintableColor        coloransi.ColorCode
	HighlightColor           coloransi.ColorCode
	HighlightBackgroundColor coloransi.ColorCode
	ZeroColor                coloransi.ColorCode

	// HighlightPattern, if non-empty, is highlighted wherever it
	// occurs literally within one rendered line (substring match; in
	// the ASCII column, within one half-line). Occurrences that cross a
	// line break are not highlighted.
	HighlightPattern []byte

	// HighlightOffsets highlights HighlightLen bytes starting at each
	// given offset — the shape a pattern.Pattern scan hit takes once
	// reduced to an int. Populate via HighlightScan.
	HighlightOffsets []int
	HighlightLen     int

	MaxLines int

	ShowPointers bool
	IsValidAddr  ValidAddressFunc
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine:             16,
		GroupSize:                1,
		ShowASCII:                true,
		ShowOffset:               true,
		OffsetWidth:              8,
		OffsetColor:              coloransi.Cyan,
		HexColor:                 coloransi.Green,
		ASCIIColor:               coloransi.White,
		NonPrintableColor:        coloransi.BrightBlack,
		HighlightColor:           coloransi.Yellow,
		HighlightBackgroundColor: coloransi.Black,
		ZeroColor:                coloransi.BrightBlack,
	}
}

// HighlightScan runs pat against data and records every hit offset so
// DumpToWriter highlights them, mirroring how the teacher's
// EnablePointerChecking wired in a memory map.
func (o *Options) HighlightScan(data []byte, pat pattern.Pattern) {
	o.HighlightOffsets = pattern.NewIterator(pat, data).All()
	o.HighlightLen = pat.Len()
}

func Dump(data []byte, options Options) string {
	var buf bytes.Buffer
	DumpToWriter(&buf, data, options)
	return buf.String()
}

// DumpRange reads the full range's data and dumps it, with offsets
// reported relative to the range's base address rather than 0 — the
// natural way to read a dump produced from a MemRange scan.
func DumpRange(r memview.MemRange, options Options) string {
	options.StartOffset = uint64(r.Base())
	return Dump(r.Read(), options)
}

func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 {
		options.GroupSize = 1
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		formatLine(writer, data[offset:end], offset, uint64(offset)+options.StartOffset, options)
		lineCount++
	}
}

func isHighlightedAt(options Options, lineOffset, posInLine int) bool {
	if len(options.HighlightPattern) > 0 {
		return false // handled separately per-line by the caller, which has the line slice
	}
	if len(options.HighlightOffsets) == 0 || options.HighlightLen <= 0 {
		return false
	}
	abs := lineOffset + posInLine
	for _, off := range options.HighlightOffsets {
		if abs >= off && abs < off+options.HighlightLen {
			return true
		}
	}
	return false
}

func formatLine(writer io.Writer, data []byte, lineOffset int, offset uint64, options Options) {
	if options.ShowOffset {
		offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", offset)
		fmt.Fprint(writer, coloransi.Foreground(options.OffsetColor, offsetStr), "  ")
	}

	hexParts := formatHexValues(data, lineOffset, options)

	useSplit := options.BytesPerLine >= 8 && len(data) > (options.BytesPerLine/2)
	groupsPerLine := options.BytesPerLine / options.GroupSize
	if groupsPerLine == 0 {
		groupsPerLine = 1
	}
	leftGroups := min(groupsPerLine/2, len(hexParts))

	if useSplit && leftGroups > 0 && leftGroups < len(hexParts) {
		fmt.Fprint(writer, strings.Join(hexParts[:leftGroups], " "), " | ", strings.Join(hexParts[leftGroups:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	if options.BytesPerLine > len(data) {
		fullGroups := (options.BytesPerLine + options.GroupSize - 1) / options.GroupSize
		curGroups := (len(data) + options.GroupSize - 1) / options.GroupSize
		missingBytes := options.BytesPerLine - len(data)

		deltaSpaces := (fullGroups - 1) - max(0, curGroups-1)

		pipeFull := 0
		if options.BytesPerLine >= 8 {
			pipeFull = 3
		}
		pipeCur := 0
		if useSplit {
			pipeCur = 3
		}

		paddingSize := missingBytes*2 + deltaSpaces + (pipeFull - pipeCur)
		if paddingSize > 0 {
			fmt.Fprint(writer, strings.Repeat(" ", paddingSize))
		}
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")

		if options.BytesPerLine >= 8 && len(data) > options.BytesPerLine/2 {
			midPoint := options.BytesPerLine / 2
			if midPoint < len(data) {
				formatASCII(writer, data[:midPoint], lineOffset, 0, options)
				fmt.Fprint(writer, " ")
				formatASCII(writer, data[midPoint:], lineOffset, midPoint, options)
			} else {
				formatASCII(writer, data, lineOffset, 0, options)
			}
		} else {
			formatASCII(writer, data, lineOffset, 0, options)
		}
	}

	if options.ShowPointers && options.IsValidAddr != nil && len(data) >= 8 {
		fmt.Fprint(writer, " | ")
		printPointerPreview(writer, data, options)
	}

	fmt.Fprintln(writer)
}

func printPointerPreview(writer io.Writer, data []byte, options Options) {
	ptr := bytesToUint64(data[:8])
	if options.IsValidAddr(uintptr(ptr)) {
		fmt.Fprintf(writer, "%s ", coloransi.Foreground(coloransi.Yellow, fmt.Sprintf("0x%x", ptr)))
	}
	if len(data) >= 16 {
		ptr2 := bytesToUint64(data[8:16])
		if options.IsValidAddr(uintptr(ptr2)) {
			fmt.Fprintf(writer, "%s", coloransi.Foreground(coloransi.Yellow, fmt.Sprintf("0x%x", ptr2)))
		}
	}
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func formatASCII(writer io.Writer, data []byte, lineOffset, posBase int, options Options) {
	for i, b := range data {
		c := rune(b)
		color := options.ASCIIColor

		isHighlighted := matchesHighlight(data, i, options) || isHighlightedAt(options, lineOffset, posBase+i)

		switch {
		case isHighlighted:
			fmt.Fprint(writer, coloransi.Color(options.HighlightColor, options.HighlightBackgroundColor, string(c)))
		case b == 0:
			fmt.Fprint(writer, coloransi.Foreground(options.ZeroColor, "."))
		case !unicode.IsPrint(c):
			fmt.Fprint(writer, coloransi.Foreground(options.NonPrintableColor, "."))
		default:
			fmt.Fprint(writer, coloransi.Foreground(color, string(c)))
		}
	}
}

func matchesHighlight(data []byte, i int, options Options) bool {
	n := len(options.HighlightPattern)
	if n == 0 {
		return false
	}
	for start := i - n + 1; start <= i; start++ {
		if start < 0 || start+n > len(data) {
			continue
		}
		if bytes.Equal(data[start:start+n], options.HighlightPattern) {
			return true
		}
	}
	return false
}

func formatHexValues(data []byte, lineOffset int, options Options) []string {
	var result []string
	var groupBuffer []string

	for i, b := range data {
		hexValue := fmt.Sprintf("%02x", b)
		color := options.HexColor
		if b == 0 {
			color = options.ZeroColor
		}

		highlighted := matchesHighlight(data, i, options) || isHighlightedAt(options, lineOffset, i)
		if highlighted {
			color = options.HighlightColor
		}

		var coloredHex string
		if highlighted {
			coloredHex = coloransi.Color(color, options.HighlightBackgroundColor, hexValue)
		} else {
			coloredHex = coloransi.Foreground(color, hexValue)
		}

		groupBuffer = append(groupBuffer, coloredHex)

		if (i+1)%options.GroupSize == 0 || i == len(data)-1 {
			result = append(result, strings.Join(groupBuffer, ""))
			groupBuffer = nil
		}
	}

	return result
}

func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

func DumpBytesWithHighlight(data []byte, highlight []byte) string {
	options := DefaultOptions()
	options.HighlightPattern = highlight
	return Dump(data, options)
}

func DumpWithOffset(data []byte, startOffset uint64) string {
	options := DefaultOptions()
	options.StartOffset = startOffset
	return Dump(data, options)
}

func DumpCompact(data []byte) string {
	options := DefaultOptions()
	options.BytesPerLine = 8
	options.GroupSize = 1
	options.OffsetWidth = 4
	return Dump(data, options)
}

// HexDump is a fluent builder wrapping Dump, mirroring the teacher's
// builder of the same name.
type HexDump struct {
	Options Options
}

func NewHexDump() *HexDump {
	return &HexDump{Options: DefaultOptions()}
}

func (h *HexDump) SetBytesPerLine(value int) *HexDump { h.Options.BytesPerLine = value; return h }
func (h *HexDump) SetGroupSize(value int) *HexDump     { h.Options.GroupSize = value; return h }
func (h *HexDump) SetShowASCII(value bool) *HexDump    { h.Options.ShowASCII = value; return h }
func (h *HexDump) SetShowOffset(value bool) *HexDump   { h.Options.ShowOffset = value; return h }
func (h *HexDump) SetStartOffset(value uint64) *HexDump {
	h.Options.StartOffset = value
	return h
}
func (h *HexDump) SetMaxLines(value int) *HexDump { h.Options.MaxLines = value; return h }

func (h *HexDump) SetHighlight(pat []byte, foreground, background coloransi.ColorCode) *HexDump {
	h.Options.HighlightPattern = pat
	h.Options.HighlightColor = foreground
	h.Options.HighlightBackgroundColor = background
	return h
}

// EnablePointerChecking turns on the trailing pointer preview column,
// validated against isValid rather than the teacher's memory map slice.
func (h *HexDump) EnablePointerChecking(isValid ValidAddressFunc) *HexDump {
	h.Options.ShowPointers = true
	h.Options.IsValidAddr = isValid
	return h
}

func (h *HexDump) Dump(data []byte) string {
	return Dump(data, h.Options)
}

func (h *HexDump) DumpToWriter(writer io.Writer, data []byte) {
	DumpToWriter(writer, data, h.Options)
}
