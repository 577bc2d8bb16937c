package spreadsheet

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeUnicodeStringCompressed(t *testing.T) {
	// cch=5, grbit=0 (compressed, no rich/ext), "hello"
	data := append([]byte{5, 0, 0x00}, []byte("hello")...)
	s, n := decodeUnicodeString(data)
	if s != "hello" {
		t.Errorf("decoded = %q, want %q", s, "hello")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestDecodeUnicodeStringUncompressed(t *testing.T) {
	// cch=2, grbit=1 (uncompressed UTF-16LE), "hi"
	data := []byte{2, 0, 0x01, 'h', 0, 'i', 0}
	s, n := decodeUnicodeString(data)
	if s != "hi" {
		t.Errorf("decoded = %q, want %q", s, "hi")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestDecodeSSTReadsMultipleEntries(t *testing.T) {
	var data []byte
	data = append(data, 0, 0, 0, 0) // total count (unused)
	data = append(data, 2, 0, 0, 0) // unique count = 2
	data = append(data, 3, 0, 0x00)
	data = append(data, []byte("foo")...)
	data = append(data, 3, 0, 0x00)
	data = append(data, []byte("bar")...)

	strs := decodeSST(data)
	if len(strs) != 2 || strs[0] != "foo" || strs[1] != "bar" {
		t.Fatalf("decodeSST = %v, want [foo bar]", strs)
	}
}

func TestDecodeBoundSheetName(t *testing.T) {
	data := make([]byte, 8)
	data[6] = 5 // cch
	data[7] = 0 // compressed
	data = append(data, []byte("Sheet")...)
	name, ok := decodeBoundSheetName(data)
	if !ok || name != "Sheet" {
		t.Fatalf("decodeBoundSheetName = %q, %v, want Sheet, true", name, ok)
	}
}

func TestDecodeRKInteger(t *testing.T) {
	// Integer RK: value 42 shifted left 2 bits, fInt bit set, no /100 scaling.
	rk := uint32(42<<2) | 0x2
	got := decodeRK(rk)
	if got != 42 {
		t.Errorf("decodeRK(int) = %v, want 42", got)
	}
}

func TestDecodeRKFloatDiv100(t *testing.T) {
	// Encode 1.5 as a truncated IEEE double with the /100 flag: 150/100 = 1.5.
	bits := math.Float64bits(150)
	rk := uint32(bits>>32) &^ 0x3
	rk |= 0x1 // fX100
	got := decodeRK(rk)
	if got != 1.5 {
		t.Errorf("decodeRK(float/100) = %v, want 1.5", got)
	}
}

func TestSplitBIFFRecordsRoundTrips(t *testing.T) {
	var stream []byte
	rec1 := []byte{1, 2, 3}
	rec2 := []byte{4, 5}
	stream = appendBIFFRecord(stream, 0x0809, rec1)
	stream = appendBIFFRecord(stream, 0x00FC, rec2)

	records := splitBIFFRecords(stream)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].typ != 0x0809 || string(records[0].data) != string(rec1) {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].typ != 0x00FC || string(records[1].data) != string(rec2) {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func appendBIFFRecord(stream []byte, typ uint16, data []byte) []byte {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint16(header[0:2], typ)
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(data)))
	stream = append(stream, header...)
	stream = append(stream, data...)
	return stream
}

func TestXLSSheetGridLaysOutByRowAndColumn(t *testing.T) {
	sh := &xlsSheet{name: "Sheet1"}
	sh.set(0, 0, "a")
	sh.set(1, 2, "b")

	grid := sh.grid()
	if len(grid) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(grid))
	}
	if grid[0][0] != "a" {
		t.Errorf("grid[0][0] = %q, want a", grid[0][0])
	}
	if grid[1][2] != "b" {
		t.Errorf("grid[1][2] = %q, want b", grid[1][2])
	}
}
