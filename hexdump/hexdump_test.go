package hexdump

import (
	"strings"
	"testing"

	"memview/memview"
	"memview/pattern"
	"memview/protection"
)

type fakeView struct {
	buf []byte
}

func newFakeView(data []byte) *fakeView {
	return &fakeView{buf: data}
}

func (v *fakeView) Read(address uintptr, buf []byte) int {
	if int(address) >= len(v.buf) {
		return 0
	}
	return copy(buf, v.buf[address:])
}
func (v *fakeView) Write(address uintptr, data []byte) int { return 0 }
func (v *fakeView) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	return nil
}
func (v *fakeView) Free(address uintptr, size uintptr) bool { return false }
func (v *fakeView) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	return true
}
func (v *fakeView) Protection(address uintptr) (protection.Protection, bool) {
	return protection.R, true
}
func (v *fakeView) Platform() memview.Platform { return memview.NewHostPlatform() }
func (v *fakeView) Close() error               { return nil }

func TestDumpBytesContainsOffsetAndHex(t *testing.T) {
	out := DumpBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	if !strings.Contains(out, "00000000") {
		t.Errorf("output missing leading offset:\n%s", out)
	}
	if !strings.Contains(out, "de") {
		t.Errorf("output missing lowercase hex byte 'de':\n%s", out)
	}
}

func TestDumpToWriterRespectsMaxLines(t *testing.T) {
	options := DefaultOptions()
	options.BytesPerLine = 4
	options.MaxLines = 1
	data := make([]byte, 16)
	out := Dump(data, options)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 1 data line + 1 truncation notice, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "more bytes") {
		t.Errorf("expected truncation notice, got %q", lines[1])
	}
}

func TestDumpWithOffsetUsesStartOffset(t *testing.T) {
	out := DumpWithOffset([]byte{0x01, 0x02}, 0x100)
	if !strings.Contains(out, "00000100") {
		t.Errorf("output missing start offset 0x100:\n%s", out)
	}
}

func TestHighlightScanRecordsPatternHits(t *testing.T) {
	data := []byte{0x00, 0xDE, 0xAD, 0x00}
	pat, err := pattern.Parse("DE AD")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	options := DefaultOptions()
	options.HighlightScan(data, pat)
	if len(options.HighlightOffsets) != 1 || options.HighlightOffsets[0] != 1 {
		t.Errorf("HighlightOffsets = %v, want [1]", options.HighlightOffsets)
	}
	if options.HighlightLen != 2 {
		t.Errorf("HighlightLen = %d, want 2", options.HighlightLen)
	}
}

func TestDumpRangeUsesRangeBaseAsStartOffset(t *testing.T) {
	buf := make([]byte, 0x44)
	copy(buf[0x40:], []byte{0x01, 0x02, 0x03, 0x04})
	view := newFakeView(buf)
	r := memview.Range(view, 0x40, 4)
	out := DumpRange(r, DefaultOptions())
	if !strings.Contains(out, "00000040") {
		t.Errorf("output missing range base offset:\n%s", out)
	}
}

func TestEnablePointerCheckingShowsValidPointer(t *testing.T) {
	isValid := func(addr uintptr) bool { return addr == 0x1122334455667788 }
	data := make([]byte, 8)
	// little-endian encoding of 0x1122334455667788
	for i := 0; i < 8; i++ {
		data[i] = byte(uint64(0x1122334455667788) >> (8 * i))
	}
	out := NewHexDump().SetShowOffset(false).EnablePointerChecking(isValid).Dump(data)
	if !strings.Contains(out, "0x1122334455667788") {
		t.Errorf("output missing recognized pointer value:\n%s", out)
	}
}

func TestDumpCompactUsesEightBytesPerLine(t *testing.T) {
	data := make([]byte, 16)
	out := DumpCompact(data)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines of 8 bytes each, got %d:\n%s", len(lines), out)
	}
}
