package analytics

import (
	"strings"

	"circulation-analytics/internal/circulation"
)

// PatronBucket is the pivot column a loan counts toward in the monthly trend.
type PatronBucket int

const (
	BucketStudent PatronBucket = iota
	BucketFaculty
	BucketStaff
	BucketAlumni
	BucketOther
)

// ClassifyPatronType maps any type outside the four named ones, blank
// included, to BucketOther.
func ClassifyPatronType(patronType string) PatronBucket {
	switch strings.TrimSpace(patronType) {
	case circulation.PatronStudent:
		return BucketStudent
	case circulation.PatronFaculty:
		return BucketFaculty
	case circulation.PatronStaff:
		return BucketStaff
	case circulation.PatronAlumni:
		return BucketAlumni
	default:
		return BucketOther
	}
}

type MonthlyTrendRow struct {
	LoanMonth         string `json:"loan_month"`
	StudentLoans      int    `json:"student_loans"`
	FacultyLoans      int    `json:"faculty_loans"`
	StaffLoans        int    `json:"staff_loans"`
	AlumniLoans       int    `json:"alumni_loans"`
	OtherLoans        int    `json:"other_loans"`
	TotalLoans        int    `json:"total_loans"`
	RunningTotalLoans int    `json:"running_total_loans"`
}

type MonthlyTrendReport struct {
	AsOf        string            `json:"as_of"`
	Rows        []MonthlyTrendRow `json:"rows"`
	InvalidRows int               `json:"invalid_rows"`
}

// BuildMonthlyTrend pivots loans per month by patron type and carries a
// running total across months. Loans without a loan date are ignored.
func BuildMonthlyTrend(snap *circulation.Snapshot, period Period) MonthlyTrendReport {
	idx := newIndex(snap)

	dated := make([]circulation.Loan, 0, len(idx.loans))
	for _, loan := range idx.loans {
		if !loan.LoanTS.IsZero() {
			dated = append(dated, loan)
		}
	}
	months := GroupBy(dated, func(l circulation.Loan) string { return l.LoanTS.Format("2006-01") })

	buckets := make([]MonthlyTrendRow, 0, len(months))
	for month, loans := range months {
		counts := GroupBy(loans, func(l circulation.Loan) PatronBucket {
			return ClassifyPatronType(idx.patrons[l.PatronID].PatronType)
		})
		buckets = append(buckets, MonthlyTrendRow{
			LoanMonth:    month,
			StudentLoans: len(counts[BucketStudent]),
			FacultyLoans: len(counts[BucketFaculty]),
			StaffLoans:   len(counts[BucketStaff]),
			AlumniLoans:  len(counts[BucketAlumni]),
			OtherLoans:   len(counts[BucketOther]),
			TotalLoans:   len(loans),
		})
	}

	cumulative := RunningTotal(buckets,
		func(r MonthlyTrendRow) string { return r.LoanMonth },
		func(r MonthlyTrendRow) int { return r.TotalLoans },
	)
	// cumulative is already ascending by month.
	rows := make([]MonthlyTrendRow, len(cumulative))
	for i, c := range cumulative {
		c.Item.RunningTotalLoans = c.Total
		rows[i] = c.Item
	}

	return MonthlyTrendReport{
		AsOf:        circulation.FormatDate(period.Today),
		Rows:        rows,
		InvalidRows: idx.invalid,
	}
}
