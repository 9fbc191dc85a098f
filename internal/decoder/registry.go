// Package decoder defines the contract between the dispatch layer and the
// per-device frame decoders, and keeps the in-memory registry the decoders
// join from their init functions.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/baronhoot/rtl-433/internal/bitbuf"
)

// Decode outcome errors. Dispatch distinguishes a row that simply cannot
// belong to a decoder from a frame that was located but failed
// verification, so callers can report the most telling failure.
var (
	// ErrAbortLength reports a bit row whose usable length falls outside
	// the decoder's acceptance window.
	ErrAbortLength = errors.New("bit row length outside decoder window")
	// ErrAbortEarly reports a frame rejected by cheap sanity checks before
	// any integrity verification ran.
	ErrAbortEarly = errors.New("frame failed early sanity check")
	// ErrFailIntegrity reports a located frame whose CRC or checksum does
	// not verify.
	ErrFailIntegrity = errors.New("frame failed integrity check")
)

// Registration describes the RF envelope a decoder expects and the fields
// it can emit, in emission order.
type Registration struct {
	// Name is the stable key used for lookup and as the record's model
	// string. Description is the human-readable device name.
	Name        string
	Description string
	Modulation  string
	// Pulse timing in microseconds, as configured on the demodulator.
	ShortWidthUS int
	LongWidthUS  int
	ResetLimitUS int
	// Fields lists every key the decoder may emit, in output order.
	// Conditional fields are listed even though single frames omit them.
	Fields []string
}

// Decoder turns one demodulated bit row into a flat field map.
type Decoder interface {
	Registration() Registration
	Decode(context.Context, *bitbuf.Row) (map[string]any, error)
}

var (
	regMu    sync.RWMutex
	registry []Decoder
)

// Register stores a decoder in memory. Decoders self-register from init,
// so duplicate names indicate a programming error and panic.
func Register(d Decoder) {
	regMu.Lock()
	defer regMu.Unlock()
	name := d.Registration().Name
	for _, existing := range registry {
		if existing.Registration().Name == name {
			panic("decoder: Register called twice for " + name)
		}
	}
	registry = append(registry, d)
}

// All returns the registered decoders in registration order.
func All() []Decoder {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]Decoder, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the decoder registered under name.
func Lookup(name string) (Decoder, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	for _, d := range registry {
		if d.Registration().Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("decoder not found: %q", name)
}

// FieldOrder returns the union of every registered decoder's fields in
// first-seen order, for consumers that need one stable column set across
// devices.
func FieldOrder() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	var fields []string
	seen := make(map[string]bool)
	for _, d := range registry {
		for _, field := range d.Registration().Fields {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	return fields
}
