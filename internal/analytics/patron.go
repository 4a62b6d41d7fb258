package analytics

import (
	"cmp"
	"slices"
	"time"

	"circulation-analytics/internal/circulation"
)

type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

func (r RiskLevel) weight() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	default:
		return 1
	}
}

// ClassifyRisk applies the thresholds in precedence order; the first match wins.
func ClassifyRisk(unpaidFines float64, overdueLoans int) RiskLevel {
	switch {
	case unpaidFines >= 50 || overdueLoans >= 3:
		return RiskHigh
	case (unpaidFines >= 10 && unpaidFines <= 49) || (overdueLoans >= 1 && overdueLoans <= 2):
		return RiskMedium
	default:
		return RiskLow
	}
}

type PatronRiskRow struct {
	PatronID         int64      `json:"patron_id"`
	PatronName       string     `json:"patron_name"`
	Email            string     `json:"email"`
	PatronType       string     `json:"patron_type"`
	TotalLoans       int        `json:"total_loans"`
	ActiveLoans      int        `json:"active_loans"`
	OverdueLoans     int        `json:"overdue_loans"`
	LastLoanTS       *time.Time `json:"last_loan_ts"`
	TotalFines       float64    `json:"total_fines"`
	UnpaidFines      float64    `json:"unpaid_fines"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	IsRecentBorrower int        `json:"is_recent_borrower"`
}

type PatronRiskReport struct {
	AsOf        string          `json:"as_of"`
	Rows        []PatronRiskRow `json:"rows"`
	InvalidRows int             `json:"invalid_rows"`
}

// BuildPatronRisk profiles every patron's borrowing and fine exposure.
func BuildPatronRisk(snap *circulation.Snapshot, period Period) PatronRiskReport {
	idx := newIndex(snap)

	rows := make([]PatronRiskRow, 0, len(idx.patrons))
	for _, patron := range idx.patrons {
		loans := idx.loansByPatron[patron.PatronID]
		fines := idx.finesByPatron[patron.PatronID]

		row := PatronRiskRow{
			PatronID:     patron.PatronID,
			PatronName:   patron.FullName(),
			Email:        patron.Email,
			PatronType:   patron.PatronType,
			TotalLoans:   len(loans),
			ActiveLoans:  ConditionalCount(loans, circulation.Loan.Current),
			OverdueLoans: ConditionalCount(loans, func(l circulation.Loan) bool { return l.Overdue(period.Today) }),
			TotalFines:   SumAmount(fines, nil),
			UnpaidFines:  SumAmount(fines, circulation.Fine.Unpaid),
		}
		var last time.Time
		for _, loan := range loans {
			if loan.LoanTS.After(last) {
				last = loan.LoanTS
			}
		}
		if !last.IsZero() {
			row.LastLoanTS = &last
		}
		if Since(last, period.Last30) {
			row.IsRecentBorrower = 1
		}
		row.RiskLevel = ClassifyRisk(row.UnpaidFines, row.OverdueLoans)
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b PatronRiskRow) int {
		if c := cmp.Compare(b.RiskLevel.weight(), a.RiskLevel.weight()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.UnpaidFines, a.UnpaidFines); c != 0 {
			return c
		}
		if c := cmp.Compare(a.PatronName, b.PatronName); c != 0 {
			return c
		}
		return cmp.Compare(a.PatronID, b.PatronID)
	})

	return PatronRiskReport{
		AsOf:        circulation.FormatDate(period.Today),
		Rows:        rows,
		InvalidRows: idx.invalid,
	}
}
