// Package ranking orders a counting-table snapshot for reporting.
package ranking

import (
	"sort"

	"github.com/erodriguezln/keyrank/internal/counter"
)

// Rank returns the entries sorted by count descending. Equal counts are
// broken by key ascending in byte order, which makes the output a
// deterministic function of the counts alone regardless of worker
// interleaving or bucket placement.
func Rank(entries []counter.Entry) []counter.Entry {
	ranked := make([]counter.Entry, len(entries))
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	return ranked
}
