package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"circulation-analytics/internal/analytics"
	"circulation-analytics/internal/circulation"
)

func writeJSON(payload any, path string) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeCSV(result reportResult, path string) error {
	header, records, err := csvTable(result.Payload)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvTable(payload any) ([]string, [][]string, error) {
	switch r := payload.(type) {
	case analytics.DashboardSummary:
		header := []string{
			"as_of", "total_books", "total_copies", "total_subjects", "total_patrons",
			"active_patrons_90d", "total_loans", "current_loans", "overdue_loans",
			"avg_duration_days", "loans_last_7d", "returns_last_7d",
		}
		record := []string{
			r.AsOf, itoa(r.TotalBooks), itoa(r.TotalCopies), itoa(r.TotalSubjects), itoa(r.TotalPatrons),
			itoa(r.ActivePatrons90d), itoa(r.TotalLoans), itoa(r.CurrentLoans), itoa(r.OverdueLoans),
			optionalFloat(r.AvgDurationDays), itoa(r.LoansLast7d), itoa(r.ReturnsLast7d),
		}
		return header, [][]string{record}, nil
	case analytics.OverdueRiskReport:
		header := []string{
			"risk_rank", "loan_id", "patron_id", "patron_name", "isbn", "title", "due_ts",
			"days_overdue", "all_loans", "overdue_or_late_loans", "unpaid_fines", "risk_score",
		}
		records := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			records = append(records, []string{
				itoa(row.RiskRank), id(row.LoanID), id(row.PatronID), row.PatronName, row.ISBN, row.Title,
				timestamp(row.DueTS), itoa(row.DaysOverdue), itoa(row.AllLoans), itoa(row.OverdueOrLateLoans),
				decimal(row.UnpaidFines), decimal(row.RiskScore),
			})
		}
		return header, records, nil
	case analytics.CatalogReport:
		header := []string{
			"isbn", "title", "pub_year", "publisher", "authors", "subjects", "times_loaned",
			"total_copies", "available_copies", "primary_subject_id", "primary_subject", "subject_popularity_rank",
		}
		records := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			subjectID, subject := "", ""
			if row.PrimarySubjectID != nil {
				subjectID = id(*row.PrimarySubjectID)
			}
			if row.PrimarySubject != nil {
				subject = *row.PrimarySubject
			}
			records = append(records, []string{
				row.ISBN, row.Title, itoa(row.PubYear), row.Publisher, row.Authors, row.Subjects,
				itoa(row.TimesLoaned), itoa(row.TotalCopies), itoa(row.AvailableCopies),
				subjectID, subject, itoa(row.SubjectPopularityRank),
			})
		}
		return header, records, nil
	case analytics.PatronRiskReport:
		header := []string{
			"patron_id", "patron_name", "email", "patron_type", "total_loans", "active_loans",
			"overdue_loans", "last_loan_ts", "total_fines", "unpaid_fines", "risk_level", "is_recent_borrower",
		}
		records := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			lastLoan := ""
			if row.LastLoanTS != nil {
				lastLoan = timestamp(*row.LastLoanTS)
			}
			records = append(records, []string{
				id(row.PatronID), row.PatronName, row.Email, row.PatronType, itoa(row.TotalLoans),
				itoa(row.ActiveLoans), itoa(row.OverdueLoans), lastLoan, decimal(row.TotalFines),
				decimal(row.UnpaidFines), string(row.RiskLevel), itoa(row.IsRecentBorrower),
			})
		}
		return header, records, nil
	case analytics.LoanSegmentReport:
		header := []string{
			"loan_id", "patron_id", "patron_name", "isbn", "title", "loan_ts", "due_ts", "return_ts",
			"status", "duration_days", "avg_duration_per_patron", "duration_vs_usual",
		}
		records := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			returned, duration := "", ""
			if row.ReturnTS != nil {
				returned = timestamp(*row.ReturnTS)
			}
			if row.DurationDays != nil {
				duration = itoa(*row.DurationDays)
			}
			records = append(records, []string{
				id(row.LoanID), id(row.PatronID), row.PatronName, row.ISBN, row.Title,
				timestamp(row.LoanTS), timestamp(row.DueTS), returned, string(row.Status),
				duration, optionalFloat(row.AvgDurationPerPatron), row.DurationVsUsual,
			})
		}
		return header, records, nil
	case analytics.MonthlyTrendReport:
		header := []string{
			"loan_month", "student_loans", "faculty_loans", "staff_loans", "alumni_loans",
			"other_loans", "total_loans", "running_total_loans",
		}
		records := make([][]string, 0, len(r.Rows))
		for _, row := range r.Rows {
			records = append(records, []string{
				row.LoanMonth, itoa(row.StudentLoans), itoa(row.FacultyLoans), itoa(row.StaffLoans),
				itoa(row.AlumniLoans), itoa(row.OtherLoans), itoa(row.TotalLoans), itoa(row.RunningTotalLoans),
			})
		}
		return header, records, nil
	case analytics.Bundle:
		return nil, nil, errors.New("-csv needs a single -report, not all")
	default:
		return nil, nil, fmt.Errorf("no CSV layout for %T", payload)
	}
}

func itoa(value int) string {
	return strconv.Itoa(value)
}

func id(value int64) string {
	return strconv.FormatInt(value, 10)
}

func decimal(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func optionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return decimal(*value)
}

func timestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	if value.Equal(circulation.DateOnly(value)) {
		return circulation.FormatDate(value)
	}
	return value.UTC().Format(time.RFC3339)
}
