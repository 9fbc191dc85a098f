package rtl433

import (
	"context"

	internalopts "github.com/baronhoot/rtl-433/internal/options"
)

// AnalyzeOptions configures decoding.
type AnalyzeOptions struct {
	// Revision pins the protocol generation a decoder should accept:
	// "auto" (default), "extended" or "legacy".
	Revision string
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (context.Context, error) {
	rev, err := internalopts.ParseRevision(opts.Revision)
	if err != nil {
		return ctx, err
	}
	return internalopts.WithRevision(ctx, rev), nil
}
