package options

import (
	"context"
	"fmt"
	"strings"
)

// Revision selects which frame layout generation a decoder should accept.
type Revision int

const (
	// RevisionAuto tries the current layout first and falls back to the
	// legacy one when the row cannot contain it.
	RevisionAuto Revision = iota
	// RevisionExtended forces the current layout with its 32-bit
	// preamble/sync word.
	RevisionExtended
	// RevisionLegacy forces the early-firmware layout with its shorter
	// 24-bit preamble/sync word.
	RevisionLegacy
)

func (r Revision) String() string {
	switch r {
	case RevisionExtended:
		return "extended"
	case RevisionLegacy:
		return "legacy"
	default:
		return "auto"
	}
}

type contextKey struct{}

// WithRevision stores a forced revision inside the context.
func WithRevision(ctx context.Context, rev Revision) context.Context {
	if rev == RevisionAuto {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, rev)
}

// RevisionFrom retrieves the forced revision, defaulting to RevisionAuto.
func RevisionFrom(ctx context.Context) Revision {
	if v := ctx.Value(contextKey{}); v != nil {
		if rev, ok := v.(Revision); ok {
			return rev
		}
	}
	return RevisionAuto
}

// ParseRevision maps the flag/config spelling onto a Revision.
func ParseRevision(input string) (Revision, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "auto":
		return RevisionAuto, nil
	case "extended", "ext":
		return RevisionExtended, nil
	case "legacy":
		return RevisionLegacy, nil
	}
	return RevisionAuto, fmt.Errorf("unknown protocol revision %q (want auto, extended, or legacy)", input)
}
