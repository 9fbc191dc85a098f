// Package bitbuf models one demodulated bit row as captured by an RF
// front end, with the search and extraction primitives the frame decoders
// are built on. Bits are stored MSB first, matching over-the-air order.
package bitbuf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Row is a read-only sequence of bits with a declared bit length. The
// backing store holds whole bytes; bits past Len() are padding and never
// participate in searches.
type Row struct {
	data []byte
	bits int
}

// NewRow wraps data as a row of nbits bits. The slice is copied so the
// row stays immutable while the caller reuses its buffer.
func NewRow(data []byte, nbits int) (*Row, error) {
	if nbits < 0 {
		return nil, fmt.Errorf("negative bit length %d", nbits)
	}
	need := (nbits + 7) / 8
	if len(data) < need {
		return nil, fmt.Errorf("row declares %d bits but carries only %d", nbits, len(data)*8)
	}
	buf := make([]byte, need)
	copy(buf, data[:need])
	return &Row{data: buf, bits: nbits}, nil
}

// ParseCode parses the "{<bitlen>}<hex>" row notation used by capture
// tooling, e.g. "{304}aaaaaaaa2dd490...". Whitespace between digits is
// ignored; hex digits beyond the declared bit length are dropped.
func ParseCode(code string) (*Row, error) {
	clean := stripSpace(code)
	if !strings.HasPrefix(clean, "{") {
		return nil, fmt.Errorf("row code must start with {bitlen}, got %q", code)
	}
	end := strings.IndexByte(clean, '}')
	if end < 0 {
		return nil, fmt.Errorf("row code missing closing brace: %q", code)
	}
	nbits, err := strconv.Atoi(clean[1:end])
	if err != nil {
		return nil, fmt.Errorf("invalid bit length in row code: %w", err)
	}
	digits := clean[end+1:]
	if len(digits)%2 != 0 {
		digits += "0"
	}
	data := make([]byte, len(digits)/2)
	for i := 0; i < len(data); i++ {
		v, err := strconv.ParseUint(digits[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex in row code: %w", err)
		}
		data[i] = byte(v)
	}
	return NewRow(data, nbits)
}

// Len returns the declared number of bits in the row.
func (r *Row) Len() int {
	return r.bits
}

// Bytes returns a copy of the backing bytes, including any padding bits
// in the final byte.
func (r *Row) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Bit returns the bit at position pos, MSB first within each byte.
// Positions at or beyond Len() read as zero.
func (r *Row) Bit(pos int) byte {
	if pos < 0 || pos >= r.bits {
		return 0
	}
	return (r.data[pos>>3] >> (7 - uint(pos&7))) & 1
}

// Search returns the bit offset of the first occurrence of the leading
// patternBits bits of pattern, scanning from the `from` offset. When the
// pattern is absent it returns Len(), so callers guarding on remaining
// bits reject the row without a separate not-found branch.
func (r *Row) Search(from int, pattern []byte, patternBits int) int {
	if patternBits > len(pattern)*8 {
		return r.bits
	}
	if from < 0 {
		from = 0
	}
	for pos := from; pos+patternBits <= r.bits; pos++ {
		matched := 0
		for ; matched < patternBits; matched++ {
			want := (pattern[matched>>3] >> (7 - uint(matched&7))) & 1
			if r.Bit(pos+matched) != want {
				break
			}
		}
		if matched == patternBits {
			return pos
		}
	}
	return r.bits
}

// ExtractBytes copies nbits bits starting at bit offset `from` into dst,
// packing them byte-aligned from dst[0]. Callers are expected to stay
// within Len(); out-of-range source bits read as zero.
func (r *Row) ExtractBytes(dst []byte, from, nbits int) {
	nbytes := (nbits + 7) / 8
	if nbytes > len(dst) {
		nbytes = len(dst)
	}
	if from&7 == 0 {
		idx := from >> 3
		for i := 0; i < nbytes; i++ {
			if idx+i < len(r.data) {
				dst[i] = r.data[idx+i]
			} else {
				dst[i] = 0
			}
		}
		return
	}
	shift := uint(from & 7)
	for i := 0; i < nbytes; i++ {
		idx := (from >> 3) + i
		var b byte
		if idx < len(r.data) {
			b = r.data[idx] << shift
		}
		if idx+1 < len(r.data) {
			b |= r.data[idx+1] >> (8 - shift)
		}
		dst[i] = b
	}
}

// String renders the row in the "{<bitlen>}<hex>" notation accepted by
// ParseCode.
func (r *Row) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "{%d}", r.bits)
	for _, b := range r.data {
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func stripSpace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
