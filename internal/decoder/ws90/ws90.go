// Package ws90 decodes the Fine Offset Electronics WS90 weather station,
// an FSK sensor array reporting temperature, humidity, wind, light, rain
// and battery state in one fixed 32-byte frame. Also sold by EcoWitt.
//
// Two firmware generations share the frame shape but differ in preamble
// width and in what the trailing bytes mean. The current layout carries a
// 16-bit rain counter, a supercap voltage and a firmware version; the
// early layout uses a 12-bit rain counter and leaves the tail
// uninterpreted. Both are handled here, the early one as a fallback.
package ws90

import (
	"context"
	"errors"
	"fmt"

	"github.com/baronhoot/rtl-433/internal/bitbuf"
	"github.com/baronhoot/rtl-433/internal/checksum"
	"github.com/baronhoot/rtl-433/internal/decoder"
	"github.com/baronhoot/rtl-433/internal/options"
)

const (
	modelName  = "Fineoffset-WS90"
	familyByte = 0x90
	frameBytes = 32
	crcPoly    = 0x31
	crcInit    = 0x00

	layoutExtended = "extended"
	layoutLegacy   = "legacy"
)

// layout captures what differs between the two frame generations before
// field decoding: the sync word to hunt for and the plausible row sizes.
type layout struct {
	name     string
	sync     []byte
	syncBits int
	minBits  int
	maxBits  int
}

var (
	extendedLayout = layout{
		name:     layoutExtended,
		sync:     []byte{0xaa, 0xaa, 0x2d, 0xd4},
		syncBits: 32,
		minBits:  168,
		maxBits:  330,
	}
	legacyLayout = layout{
		name:     layoutLegacy,
		sync:     []byte{0xaa, 0x2d, 0xd4},
		syncBits: 24,
		minBits:  280,
		maxBits:  350,
	}
)

func init() {
	decoder.Register(Decoder{})
}

// Decoder implements the WS90 frame decode.
type Decoder struct{}

// Registration describes the WS90 RF envelope to the dispatch layer.
func (Decoder) Registration() decoder.Registration {
	return decoder.Registration{
		Name:         modelName,
		Description:  "Fine Offset Electronics WS90 weather station",
		Modulation:   "FSK_PCM",
		ShortWidthUS: 58,
		LongWidthUS:  58,
		ResetLimitUS: 3000,
		Fields: []string{
			"model",
			"id",
			"battery_ok",
			"battery_mV",
			"temperature_C",
			"humidity",
			"wind_dir_deg",
			"wind_avg_m_s",
			"wind_max_m_s",
			"uv",
			"lux",
			"flags",
			"rain_mm",
			"supercap_V",
			"firmware",
			"data",
			"mic",
		},
	}
}

// Decode locates a WS90 frame in the row, verifies it and returns the
// measurement record. The current layout is tried first; the legacy one
// only when the row cannot contain the current one, since its shorter
// sync word would otherwise match the very same frame. A revision forced
// through the context disables the fallback.
func (Decoder) Decode(ctx context.Context, row *bitbuf.Row) (map[string]any, error) {
	var layouts []layout
	switch options.RevisionFrom(ctx) {
	case options.RevisionExtended:
		layouts = []layout{extendedLayout}
	case options.RevisionLegacy:
		layouts = []layout{legacyLayout}
	default:
		layouts = []layout{extendedLayout, legacyLayout}
	}

	var err error
	for _, lay := range layouts {
		var fields map[string]any
		fields, err = decodeLayout(row, lay)
		if err == nil {
			return fields, nil
		}
		if !errors.Is(err, decoder.ErrAbortLength) {
			return nil, err
		}
	}
	return nil, err
}

// decodeLayout runs the linear locate/extract/verify/emit sequence for
// one frame generation.
func decodeLayout(row *bitbuf.Row, lay layout) (map[string]any, error) {
	if row.Len() < lay.minBits || row.Len() > lay.maxBits {
		return nil, fmt.Errorf("%w: row is %d bits, %s layout expects %d to %d",
			decoder.ErrAbortLength, row.Len(), lay.name, lay.minBits, lay.maxBits)
	}

	offset := row.Search(0, lay.sync, lay.syncBits) + lay.syncBits
	if offset+frameBytes*8 > row.Len() {
		return nil, fmt.Errorf("%w: no full frame after sync, %d bits left",
			decoder.ErrAbortLength, row.Len()-offset)
	}

	var frame [frameBytes]byte
	row.ExtractBytes(frame[:], offset, frameBytes*8)

	if frame[0] != familyByte {
		return nil, fmt.Errorf("%w: family byte %02x, expected %02x",
			decoder.ErrAbortEarly, frame[0], familyByte)
	}
	if crc := checksum.CRC8(frame[:frameBytes-1], crcPoly, crcInit); crc != 0 {
		return nil, fmt.Errorf("%w: CRC residue %02x", decoder.ErrFailIntegrity, crc)
	}
	if sum := checksum.AddBytes(frame[:frameBytes-1]); sum != frame[frameBytes-1] {
		return nil, fmt.Errorf("%w: checksum %02x, trailer %02x",
			decoder.ErrFailIntegrity, sum, frame[frameBytes-1])
	}

	return emitFields(frame[:], lay), nil
}
