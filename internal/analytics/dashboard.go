package analytics

import "circulation-analytics/internal/circulation"

type DashboardSummary struct {
	AsOf             string   `json:"as_of"`
	TotalBooks       int      `json:"total_books"`
	TotalCopies      int      `json:"total_copies"`
	TotalSubjects    int      `json:"total_subjects"`
	TotalPatrons     int      `json:"total_patrons"`
	ActivePatrons90d int      `json:"active_patrons_90d"`
	TotalLoans       int      `json:"total_loans"`
	CurrentLoans     int      `json:"current_loans"`
	OverdueLoans     int      `json:"overdue_loans"`
	AvgDurationDays  *float64 `json:"avg_duration_days"`
	LoansLast7d      int      `json:"loans_last_7d"`
	ReturnsLast7d    int      `json:"returns_last_7d"`
	InvalidRows      int      `json:"invalid_rows"`
}

// BuildDashboard computes the headline KPIs over the whole snapshot.
func BuildDashboard(snap *circulation.Snapshot, period Period) DashboardSummary {
	idx := newIndex(snap)
	loans := idx.loans

	durations := make([]int, 0, len(loans))
	for _, loan := range loans {
		if days, ok := DurationDays(loan, period.Today); ok {
			durations = append(durations, days)
		}
	}
	avg, ok := AverageDuration(durations)

	active := make([]circulation.Loan, 0, len(loans))
	for _, loan := range loans {
		if Since(loan.LoanTS, period.Last90) {
			active = append(active, loan)
		}
	}

	return DashboardSummary{
		AsOf:             circulation.FormatDate(period.Today),
		TotalBooks:       len(idx.books),
		TotalCopies:      len(idx.copies),
		TotalSubjects:    CountDistinct(idx.bookSubjects, func(l circulation.BookSubject) int64 { return l.SubjectID }),
		TotalPatrons:     len(idx.patrons),
		ActivePatrons90d: CountDistinct(active, func(l circulation.Loan) int64 { return l.PatronID }),
		TotalLoans:       len(loans),
		CurrentLoans:     ConditionalCount(loans, circulation.Loan.Current),
		OverdueLoans: ConditionalCount(loans, func(l circulation.Loan) bool {
			return l.Overdue(period.Today)
		}),
		AvgDurationDays: optionalRound2(avg, ok),
		LoansLast7d: ConditionalCount(loans, func(l circulation.Loan) bool {
			return Since(l.LoanTS, period.Last7)
		}),
		ReturnsLast7d: ConditionalCount(loans, func(l circulation.Loan) bool {
			return Since(l.ReturnTS, period.Last7)
		}),
		InvalidRows: idx.invalid,
	}
}
