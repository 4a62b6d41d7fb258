package analytics

import (
	"cmp"
	"slices"
	"time"

	"circulation-analytics/internal/circulation"
)

type LoanStatus string

const (
	LoanCurrent  LoanStatus = "CURRENT"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"
)

const (
	DurationLonger  = "LONGER THAN USUAL"
	DurationShorter = "SHORTER THAN USUAL"
	DurationTypical = "TYPICAL"
)

func StatusOf(loan circulation.Loan, today time.Time) LoanStatus {
	switch {
	case !loan.Current():
		return LoanReturned
	case loan.Overdue(today):
		return LoanOverdue
	default:
		return LoanCurrent
	}
}

func (f StatusFilter) matches(status LoanStatus) bool {
	return f == StatusAll || string(f) == string(status)
}

type LoanSegmentRow struct {
	LoanID               int64      `json:"loan_id"`
	PatronID             int64      `json:"patron_id"`
	PatronName           string     `json:"patron_name"`
	ISBN                 string     `json:"isbn"`
	Title                string     `json:"title"`
	LoanTS               time.Time  `json:"loan_ts"`
	DueTS                time.Time  `json:"due_ts"`
	ReturnTS             *time.Time `json:"return_ts"`
	Status               LoanStatus `json:"status"`
	DurationDays         *int       `json:"duration_days"`
	AvgDurationPerPatron *float64   `json:"avg_duration_per_patron"`
	DurationVsUsual      string     `json:"duration_vs_usual"`
}

type LoanSegmentReport struct {
	AsOf        string           `json:"as_of"`
	Status      StatusFilter     `json:"status_filter"`
	Rows        []LoanSegmentRow `json:"rows"`
	InvalidRows int              `json:"invalid_rows"`
}

// BuildLoanSegments lists loans with their status and how their length
// compares with the same patron's usual loan length.
func BuildLoanSegments(snap *circulation.Snapshot, period Period, filter StatusFilter) (LoanSegmentReport, error) {
	if err := filter.Validate(); err != nil {
		return LoanSegmentReport{}, err
	}
	if filter == "" {
		filter = StatusAll
	}
	idx := newIndex(snap)

	type patronAverage struct {
		value float64
		ok    bool
	}
	averages := make(map[int64]patronAverage, len(idx.loansByPatron))
	for patronID, loans := range idx.loansByPatron {
		durations := make([]int, 0, len(loans))
		for _, loan := range loans {
			if days, ok := DurationDays(loan, period.Today); ok {
				durations = append(durations, days)
			}
		}
		avg, ok := AverageDuration(durations)
		averages[patronID] = patronAverage{value: avg, ok: ok}
	}

	rows := make([]LoanSegmentRow, 0, len(idx.loans))
	for _, loan := range idx.loans {
		status := StatusOf(loan, period.Today)
		if !filter.matches(status) {
			continue
		}
		book := idx.bookForLoan(loan)
		avg := averages[loan.PatronID]
		row := LoanSegmentRow{
			LoanID:               loan.LoanID,
			PatronID:             loan.PatronID,
			PatronName:           idx.patrons[loan.PatronID].FullName(),
			ISBN:                 book.ISBN,
			Title:                book.Title,
			LoanTS:               loan.LoanTS,
			DueTS:                loan.DueTS,
			Status:               status,
			AvgDurationPerPatron: optionalRound2(avg.value, avg.ok),
			DurationVsUsual:      DurationTypical,
		}
		if !loan.ReturnTS.IsZero() {
			returned := loan.ReturnTS
			row.ReturnTS = &returned
		}
		if days, ok := DurationDays(loan, period.Today); ok {
			row.DurationDays = &days
			if avg.ok {
				row.DurationVsUsual = compareDuration(float64(days), avg.value)
			}
		}
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b LoanSegmentRow) int {
		if c := b.LoanTS.Compare(a.LoanTS); c != 0 {
			return c
		}
		return cmp.Compare(b.LoanID, a.LoanID)
	})

	return LoanSegmentReport{
		AsOf:        circulation.FormatDate(period.Today),
		Status:      filter,
		Rows:        rows,
		InvalidRows: idx.invalid,
	}, nil
}

func compareDuration(days float64, usual float64) string {
	switch {
	case days > usual:
		return DurationLonger
	case days < usual:
		return DurationShorter
	default:
		return DurationTypical
	}
}
