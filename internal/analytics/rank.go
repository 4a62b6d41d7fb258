package analytics

import (
	"cmp"
	"slices"
)

// Ranked pairs an item with its competition rank (1, 1, 3 for scores 10, 10, 8).
type Ranked[T any] struct {
	Item T
	Rank int
}

// Number is the value type RunningTotal accumulates.
type Number interface {
	~int | ~int64 | ~float64
}

// Cumulative pairs an item with the running total up to and including its key.
type Cumulative[T any, V Number] struct {
	Item  T
	Total V
}

// RankDesc orders items by score descending and assigns RANK values: equal
// scores share a rank and the next distinct score skips the tied count.
// tieBreak only orders items inside a tied run; it never changes a rank.
func RankDesc[T any](items []T, score func(T) float64, tieBreak func(a, b T) int) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, item := range items {
		out[i] = Ranked[T]{Item: item}
	}
	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		if c := cmp.Compare(score(b.Item), score(a.Item)); c != 0 {
			return c
		}
		if tieBreak != nil {
			return tieBreak(a.Item, b.Item)
		}
		return 0
	})

	rank := 0
	var last float64
	for i := range out {
		current := score(out[i].Item)
		if i == 0 || current != last {
			rank = i + 1
			last = current
		}
		out[i].Rank = rank
	}
	return out
}

// PartitionRank applies RankDesc independently inside each partition. The
// returned ranks are aligned with items.
func PartitionRank[T any, K comparable](items []T, partition func(T) K, score func(T) float64) []int {
	buckets := make(map[K][]int)
	for i, item := range items {
		key := partition(item)
		buckets[key] = append(buckets[key], i)
	}

	ranks := make([]int, len(items))
	for _, indexes := range buckets {
		ranked := RankDesc(indexes, func(i int) float64 { return score(items[i]) }, nil)
		for _, r := range ranked {
			ranks[r.Item] = r.Rank
		}
	}
	return ranks
}

// RunningTotal sorts items ascending by key and accumulates value. Rows that
// share a key all receive the total inclusive of every row with that key,
// matching a range-framed window sum rather than a row-by-row one.
func RunningTotal[T any, K cmp.Ordered, V Number](items []T, key func(T) K, value func(T) V) []Cumulative[T, V] {
	out := make([]Cumulative[T, V], len(items))
	for i, item := range items {
		out[i] = Cumulative[T, V]{Item: item}
	}
	slices.SortStableFunc(out, func(a, b Cumulative[T, V]) int {
		return cmp.Compare(key(a.Item), key(b.Item))
	})

	var total V
	for start := 0; start < len(out); {
		end := start
		for end < len(out) && key(out[end].Item) == key(out[start].Item) {
			total += value(out[end].Item)
			end++
		}
		for i := start; i < end; i++ {
			out[i].Total = total
		}
		start = end
	}
	return out
}
