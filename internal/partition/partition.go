// Package partition splits a corpus line count into contiguous half-open
// ranges, one per worker.
package partition

import (
	"fmt"

	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
)

// Range is a half-open interval [Start, End) of line indices.
type Range struct {
	Start int
	End   int
}

// Empty reports whether the range covers no lines.
func (r Range) Empty() bool {
	return r.Start >= r.End
}

// Len returns the number of lines in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Split divides [0, totalLines) into workers contiguous ranges of
// ceil(totalLines/workers) lines each, the last truncated to the remainder.
// When workers exceeds totalLines the trailing ranges are empty. A worker
// count below one is a configuration error.
func Split(totalLines, workers int) ([]Range, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", apperrors.ErrConfiguration, workers)
	}
	if totalLines < 0 {
		return nil, fmt.Errorf("%w: negative line count %d", apperrors.ErrConfiguration, totalLines)
	}

	chunk := ceilDiv(totalLines, workers)
	ranges := make([]Range, workers)
	for i := range ranges {
		start := i * chunk
		if start > totalLines {
			start = totalLines
		}
		end := start + chunk
		if end > totalLines {
			end = totalLines
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges, nil
}

func ceilDiv(numerator, divisor int) int {
	if numerator%divisor == 0 {
		return numerator / divisor
	}
	return numerator/divisor + 1
}
