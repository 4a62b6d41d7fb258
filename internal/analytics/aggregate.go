package analytics

import (
	"math"
	"time"

	"circulation-analytics/internal/circulation"
)

// CountDistinct counts unique keys in items.
func CountDistinct[T any, K comparable](items []T, key func(T) K) int {
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		seen[key(item)] = struct{}{}
	}
	return len(seen)
}

// ConditionalCount counts items matching pred.
func ConditionalCount[T any](items []T, pred func(T) bool) int {
	count := 0
	for _, item := range items {
		if pred(item) {
			count++
		}
	}
	return count
}

// GroupBy buckets items by key, preserving input order inside each bucket.
func GroupBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}

// AverageDuration returns the arithmetic mean; ok is false for an empty input.
func AverageDuration(durations []int) (avg float64, ok bool) {
	if len(durations) == 0 {
		return 0, false
	}
	sum := 0
	for _, d := range durations {
		sum += d
	}
	return float64(sum) / float64(len(durations)), true
}

// SumAmount sums fine amounts matching pred; a nil pred matches every fine.
// Amounts are added in whole cents so totals compare exactly against
// thresholds like 50.
func SumAmount(fines []circulation.Fine, pred func(circulation.Fine) bool) float64 {
	var cents int64
	for _, fine := range fines {
		if pred == nil || pred(fine) {
			cents += int64(math.Round(fine.Amount * 100))
		}
	}
	return float64(cents) / 100
}

// DurationDays is the loan length in calendar days, measured to the return
// date or, for loans still out, to today. ok is false when the loan date is null.
func DurationDays(loan circulation.Loan, today time.Time) (int, bool) {
	if loan.LoanTS.IsZero() {
		return 0, false
	}
	end := loan.ReturnTS
	if end.IsZero() {
		end = today
	}
	return circulation.DaysBetween(loan.LoanTS, end), true
}

func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func optionalRound2(value float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	rounded := Round2(value)
	return &rounded
}
