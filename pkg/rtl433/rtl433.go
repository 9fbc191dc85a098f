// Package rtl433 is the public entry point for decoding demodulated
// sensor transmissions. A captured bit row is handed to every registered
// device decoder until one claims it; the decoded measurements come back
// as a flat field map alongside metadata about the row itself.
//
// Rows use the capture tooling's "{<bitlen>}<hex>" notation, e.g.
//
//	{304}aaaaaaaa2dd49000342b0077a4826239003e...
package rtl433

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baronhoot/rtl-433/internal/bitbuf"
	"github.com/baronhoot/rtl-433/internal/decoder"
	_ "github.com/baronhoot/rtl-433/internal/decoder/ws90" // register decoder
)

// Decode outcomes re-exported for callers outside this module.
var (
	// ErrAbortLength reports a row no decoder's length window accepts.
	ErrAbortLength = decoder.ErrAbortLength
	// ErrAbortEarly reports a frame rejected on its family byte.
	ErrAbortEarly = decoder.ErrAbortEarly
	// ErrFailIntegrity reports a located frame with a bad CRC or checksum.
	ErrFailIntegrity = decoder.ErrFailIntegrity
)

// Result captures the outcome of AnalyzeCode.
type Result struct {
	Decoder  string
	Code     string
	BitCount int
	Fields   map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	summary := map[string]any{
		"decoder":   r.Decoder,
		"bit_count": r.BitCount,
		"code":      r.Code,
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("decoder: %s bits:%d code:%s (marshal error: %v)", r.Decoder, r.BitCount, r.Code, err)
	}
	return string(data)
}

// AnalyzeCode parses a bit row and runs it through the decoder registry.
func AnalyzeCode(ctx context.Context, code string) (Result, error) {
	return AnalyzeCodeWithOptions(ctx, code, AnalyzeOptions{})
}

// AnalyzeCodeWithOptions parses a bit row with custom options. When no
// decoder claims the row, the returned error is the most telling decode
// outcome seen: an integrity failure outranks a family-byte reject, which
// outranks a length abort.
func AnalyzeCodeWithOptions(ctx context.Context, code string, opts AnalyzeOptions) (Result, error) {
	ctx, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	row, err := bitbuf.ParseCode(code)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Decoder:  "unknown",
		Code:     row.String(),
		BitCount: row.Len(),
	}

	var worst error
	for _, dec := range decoder.All() {
		fields, err := dec.Decode(ctx, row)
		if err == nil {
			result.Decoder = dec.Registration().Name
			result.Fields = fields
			return result, nil
		}
		if severity(err) > severity(worst) {
			worst = err
		}
	}
	if worst == nil {
		worst = errors.New("no decoders registered")
	}
	return result, worst
}

// Decoders returns the registration of every known device decoder, in
// registration order.
func Decoders() []decoder.Registration {
	all := decoder.All()
	regs := make([]decoder.Registration, 0, len(all))
	for _, d := range all {
		regs = append(regs, d.Registration())
	}
	return regs
}

// FieldOrder returns the union of every decoder's output fields in
// first-seen order, suitable as a fixed column set.
func FieldOrder() []string {
	return decoder.FieldOrder()
}

func severity(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, decoder.ErrAbortLength):
		return 1
	case errors.Is(err, decoder.ErrAbortEarly):
		return 2
	case errors.Is(err, decoder.ErrFailIntegrity):
		return 3
	default:
		return 4
	}
}
