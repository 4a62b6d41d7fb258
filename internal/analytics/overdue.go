package analytics

import (
	"cmp"
	"time"

	"circulation-analytics/internal/circulation"
)

const (
	riskWeightDaysOverdue = 1.0
	riskWeightLateLoans   = 2.0
	riskFineDivisor       = 10.0
)

type OverdueRiskRow struct {
	LoanID             int64     `json:"loan_id"`
	PatronID           int64     `json:"patron_id"`
	PatronName         string    `json:"patron_name"`
	ISBN               string    `json:"isbn"`
	Title              string    `json:"title"`
	DueTS              time.Time `json:"due_ts"`
	DaysOverdue        int       `json:"days_overdue"`
	AllLoans           int       `json:"all_loans"`
	OverdueOrLateLoans int       `json:"overdue_or_late_loans"`
	UnpaidFines        float64   `json:"unpaid_fines"`
	RiskScore          float64   `json:"risk_score"`
	RiskRank           int       `json:"risk_rank"`
}

type OverdueRiskReport struct {
	AsOf        string           `json:"as_of"`
	Rows        []OverdueRiskRow `json:"rows"`
	InvalidRows int              `json:"invalid_rows"`
}

// RiskScore weighs days overdue, the patron's overdue-or-late history and
// unpaid fines into one follow-up priority.
func RiskScore(daysOverdue int, overdueOrLate int, unpaidFines float64) float64 {
	return Round2(float64(daysOverdue)*riskWeightDaysOverdue +
		float64(overdueOrLate)*riskWeightLateLoans +
		unpaidFines/riskFineDivisor)
}

// BuildOverdueRisk scores every loan that is still out past its due date and
// ranks them globally by risk score.
func BuildOverdueRisk(snap *circulation.Snapshot, period Period) OverdueRiskReport {
	idx := newIndex(snap)

	rows := make([]OverdueRiskRow, 0)
	for _, loan := range idx.loans {
		if !loan.Overdue(period.Today) {
			continue
		}
		history := idx.loansByPatron[loan.PatronID]
		troubled := ConditionalCount(history, func(l circulation.Loan) bool {
			return l.Overdue(period.Today) || l.ReturnedLate()
		})
		unpaid := idx.unpaidFines(loan.PatronID)
		days := circulation.DaysBetween(loan.DueTS, period.Today)
		book := idx.bookForLoan(loan)

		rows = append(rows, OverdueRiskRow{
			LoanID:             loan.LoanID,
			PatronID:           loan.PatronID,
			PatronName:         idx.patrons[loan.PatronID].FullName(),
			ISBN:               book.ISBN,
			Title:              book.Title,
			DueTS:              loan.DueTS,
			DaysOverdue:        days,
			AllLoans:           len(history),
			OverdueOrLateLoans: troubled,
			UnpaidFines:        unpaid,
			RiskScore:          RiskScore(days, troubled, unpaid),
		})
	}

	ranked := RankDesc(rows, func(r OverdueRiskRow) float64 { return r.RiskScore }, func(a, b OverdueRiskRow) int {
		if c := cmp.Compare(b.DaysOverdue, a.DaysOverdue); c != 0 {
			return c
		}
		return cmp.Compare(a.LoanID, b.LoanID)
	})
	out := make([]OverdueRiskRow, len(ranked))
	for i, r := range ranked {
		r.Item.RiskRank = r.Rank
		out[i] = r.Item
	}

	return OverdueRiskReport{
		AsOf:        circulation.FormatDate(period.Today),
		Rows:        out,
		InvalidRows: idx.invalid,
	}
}
