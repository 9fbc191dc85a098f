package bitbuf

import (
	"bytes"
	"testing"
)

func TestParseCode(t *testing.T) {
	row, err := ParseCode("{24}aa2dd4")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if row.Len() != 24 {
		t.Errorf("Len() = %d, want 24", row.Len())
	}
	if got := row.Bytes(); !bytes.Equal(got, []byte{0xaa, 0x2d, 0xd4}) {
		t.Errorf("Bytes() = %x, want aa2dd4", got)
	}
}

func TestParseCodeWhitespace(t *testing.T) {
	row, err := ParseCode(" {16} aa bb ")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if got := row.String(); got != "{16}aabb" {
		t.Errorf("String() = %q, want {16}aabb", got)
	}
}

func TestParseCodeOddBitLength(t *testing.T) {
	row, err := ParseCode("{13}aaf8")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if row.Len() != 13 {
		t.Errorf("Len() = %d, want 13", row.Len())
	}
}

func TestParseCodeErrors(t *testing.T) {
	for _, code := range []string{
		"aabb",       // no bit length
		"{12aabb",    // unterminated brace
		"{x}aabb",    // non-numeric length
		"{24}aazz",   // bad hex
		"{40}aabbcc", // fewer bits than declared
	} {
		if _, err := ParseCode(code); err == nil {
			t.Errorf("ParseCode(%q) did not fail", code)
		}
	}
}

func TestBit(t *testing.T) {
	row, err := ParseCode("{16}8001")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if row.Bit(0) != 1 {
		t.Errorf("Bit(0) = 0, want 1")
	}
	if row.Bit(1) != 0 {
		t.Errorf("Bit(1) = 1, want 0")
	}
	if row.Bit(15) != 1 {
		t.Errorf("Bit(15) = 0, want 1")
	}
	if row.Bit(16) != 0 {
		t.Errorf("Bit(16) past end = 1, want 0")
	}
}

func TestSearchAligned(t *testing.T) {
	row, err := ParseCode("{40}00aa2dd400")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	pos := row.Search(0, []byte{0xaa, 0x2d, 0xd4}, 24)
	if pos != 8 {
		t.Errorf("Search = %d, want 8", pos)
	}
}

func TestSearchShifted(t *testing.T) {
	// aa2dd4 shifted right by 3 bits: 000 10101010 00101101 11010100
	row, err := ParseCode("{27}1545ba80")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	pos := row.Search(0, []byte{0xaa, 0x2d, 0xd4}, 24)
	if pos != 3 {
		t.Errorf("Search = %d, want 3", pos)
	}
}

func TestSearchFrom(t *testing.T) {
	row, err := ParseCode("{32}2dd42dd4")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if pos := row.Search(0, []byte{0x2d, 0xd4}, 16); pos != 0 {
		t.Errorf("Search(0) = %d, want 0", pos)
	}
	if pos := row.Search(1, []byte{0x2d, 0xd4}, 16); pos != 16 {
		t.Errorf("Search(1) = %d, want 16", pos)
	}
}

func TestSearchNotFound(t *testing.T) {
	row, err := ParseCode("{24}ffffff")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if pos := row.Search(0, []byte{0xaa, 0x2d, 0xd4}, 24); pos != row.Len() {
		t.Errorf("Search = %d, want Len() = %d", pos, row.Len())
	}
}

func TestSearchIgnoresPadding(t *testing.T) {
	// 2dd4 sits in the final 16 bits of the byte store, but the row
	// declares only 20 bits, so the match must not be reported.
	row, err := ParseCode("{20}ff2dd4")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if pos := row.Search(0, []byte{0x2d, 0xd4}, 16); pos != row.Len() {
		t.Errorf("Search = %d, want Len() = %d", pos, row.Len())
	}
}

func TestExtractBytesAligned(t *testing.T) {
	row, err := ParseCode("{40}0011223344")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	got := make([]byte, 3)
	row.ExtractBytes(got, 8, 24)
	if !bytes.Equal(got, []byte{0x11, 0x22, 0x33}) {
		t.Errorf("ExtractBytes = %x, want 112233", got)
	}
}

func TestExtractBytesShifted(t *testing.T) {
	// Offset 4: nibble-aligned view of 0x0112233445 -> 11 22 33 44.
	row, err := ParseCode("{40}0112233445")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	got := make([]byte, 4)
	row.ExtractBytes(got, 4, 32)
	if !bytes.Equal(got, []byte{0x11, 0x22, 0x33, 0x44}) {
		t.Errorf("ExtractBytes = %x, want 11223344", got)
	}
}

func TestExtractBytesPastEnd(t *testing.T) {
	row, err := ParseCode("{16}abcd")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	got := []byte{0xff, 0xff, 0xff}
	row.ExtractBytes(got, 8, 24)
	if !bytes.Equal(got, []byte{0xcd, 0x00, 0x00}) {
		t.Errorf("ExtractBytes = %x, want cd0000", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	const code = "{304}aaaaaaaa2dd49000342b0077a4826239003e00003fff2000ba0000260200ff9ff8000082924f"
	row, err := ParseCode(code)
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if got := row.String(); got != code {
		t.Errorf("String() = %q, want %q", got, code)
	}
}
