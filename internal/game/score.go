package game

import (
	"slices"
	"strings"

	"github.com/scythe504/speedboard/internal"
)

// RankEntries sorts by score descending, then round descending. Connection
// id breaks the remaining ties so the order is stable between calls.
func RankEntries(entries []internal.ProgressEntry) []internal.ProgressEntry {
	slices.SortFunc(entries, func(a, b internal.ProgressEntry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if a.Round != b.Round {
			return b.Round - a.Round
		}
		return strings.Compare(a.ID, b.ID)
	})
	return entries
}

// TopN returns at most n entries of an already ranked slice.
func TopN(ranked []internal.ProgressEntry, n int) []internal.ProgressEntry {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return slices.Clone(ranked)
}
