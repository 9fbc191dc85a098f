package rtl433

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/baronhoot/rtl-433/internal/testutil"
)

func TestWS90Golden(t *testing.T) {
	fixtures := []struct {
		name    string
		opts    AnalyzeOptions
		wantErr error
	}{
		{name: "ws90_nominal"},
		{name: "ws90_sentinel"},
		{name: "ws90_lowbatt"},
		{name: "ws90_midbatt"},
		{name: "ws90_legacy_long"},
		{name: "ws90_legacy_short"},
		{name: "ws90_nominal", opts: AnalyzeOptions{Revision: "extended"}},
		{name: "ws90_corrupt", wantErr: ErrFailIntegrity},
	}
	for _, tc := range fixtures {
		tc := tc
		testName := tc.name
		if tc.opts.Revision != "" {
			testName += "_" + tc.opts.Revision
		}
		t.Run(testName, func(t *testing.T) {
			code := testutil.LoadCode(t, "ws90/"+tc.name+".code")
			result, err := AnalyzeCodeWithOptions(context.Background(), code, tc.opts)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Fineoffset-WS90", result.Decoder)

			var expected map[string]any
			testutil.LoadJSON(t, "ws90/"+tc.name+".json", &expected)
			if diff := cmp.Diff(expected, asJSONNumbers(result.Fields)); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// asJSONNumbers widens the record's integer values to float64 so it
// compares cleanly against a fixture read back through encoding/json.
func asJSONNumbers(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if n, ok := v.(int); ok {
			out[k] = float64(n)
		} else {
			out[k] = v
		}
	}
	return out
}
