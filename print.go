package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"circulation-analytics/internal/analytics"
	"circulation-analytics/internal/circulation"
)

const rule = 44

func printReport(w io.Writer, result reportResult, sourceName string, top int) {
	fmt.Fprintln(w, "Library Circulation Analytics")
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "Source: %s\n", sourceName)
	fmt.Fprintf(w, "As of: %s\n", result.AsOf)
	if result.InvalidRows > 0 {
		fmt.Fprintf(w, "Source rows with dangling references: %s\n", humanize.Comma(int64(result.InvalidRows)))
	}

	switch payload := result.Payload.(type) {
	case analytics.DashboardSummary:
		printDashboard(w, payload)
	case analytics.OverdueRiskReport:
		printOverdue(w, payload, top)
	case analytics.CatalogReport:
		printCatalog(w, payload, top)
	case analytics.PatronRiskReport:
		printPatrons(w, payload, top)
	case analytics.LoanSegmentReport:
		printLoans(w, payload, top)
	case analytics.MonthlyTrendReport:
		printTrend(w, payload)
	case analytics.Bundle:
		printDashboard(w, payload.Dashboard)
		printOverdue(w, payload.OverdueRisk, top)
		printCatalog(w, payload.Catalog, top)
		printPatrons(w, payload.PatronRisk, top)
		printLoans(w, payload.LoanSegments, top)
		printTrend(w, payload.MonthlyTrend)
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", rule))
}

// limit keeps the first top entries; top <= 0 keeps everything.
func limit[T any](rows []T, top int) []T {
	if top > 0 && len(rows) > top {
		return rows[:top]
	}
	return rows
}

func money(value float64) string {
	return "$" + humanize.FormatFloat("#,###.##", value)
}

func count(value int) string {
	return humanize.Comma(int64(value))
}

func printDashboard(w io.Writer, d analytics.DashboardSummary) {
	heading(w, "Dashboard")
	fmt.Fprintf(w, "Books: %s | Copies: %s | Subjects: %s\n", count(d.TotalBooks), count(d.TotalCopies), count(d.TotalSubjects))
	fmt.Fprintf(w, "Patrons: %s (%s active in the last 90 days)\n", count(d.TotalPatrons), count(d.ActivePatrons90d))
	fmt.Fprintf(w, "Loans: %s | Current: %s | Overdue: %s\n", count(d.TotalLoans), count(d.CurrentLoans), count(d.OverdueLoans))
	if d.AvgDurationDays != nil {
		fmt.Fprintf(w, "Average loan duration: %.2f days\n", *d.AvgDurationDays)
	} else {
		fmt.Fprintln(w, "Average loan duration: n/a")
	}
	fmt.Fprintf(w, "Last 7 days: %s loans out, %s returned\n", count(d.LoansLast7d), count(d.ReturnsLast7d))
}

func printOverdue(w io.Writer, r analytics.OverdueRiskReport, top int) {
	heading(w, "Overdue risk")
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No overdue loans.")
		return
	}
	for _, row := range limit(r.Rows, top) {
		fmt.Fprintf(w, "%s | loan %d | %s | %s | due %s | %d days overdue | late %d of %d | unpaid %s | score %.2f\n",
			humanize.Ordinal(row.RiskRank),
			row.LoanID,
			row.PatronName,
			row.Title,
			circulation.FormatDate(row.DueTS),
			row.DaysOverdue,
			row.OverdueOrLateLoans,
			row.AllLoans,
			money(row.UnpaidFines),
			row.RiskScore,
		)
	}
}

func printCatalog(w io.Writer, r analytics.CatalogReport, top int) {
	heading(w, "Catalog")
	if r.Search != "" || r.SubjectID != nil {
		filters := make([]string, 0, 2)
		if r.Search != "" {
			filters = append(filters, fmt.Sprintf("search %q", r.Search))
		}
		if r.SubjectID != nil {
			filters = append(filters, fmt.Sprintf("subject %d", *r.SubjectID))
		}
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(filters, ", "))
	}
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No books matched.")
		return
	}
	for _, row := range limit(r.Rows, top) {
		subject := "Unclassified"
		if row.PrimarySubject != nil {
			subject = *row.PrimarySubject
		}
		authors := row.Authors
		if authors == "" {
			authors = "Unknown author"
		}
		fmt.Fprintf(w, "%s | %s | %s | loaned %s times | %d of %d copies available | %s in %s\n",
			row.ISBN,
			row.Title,
			authors,
			count(row.TimesLoaned),
			row.AvailableCopies,
			row.TotalCopies,
			humanize.Ordinal(row.SubjectPopularityRank),
			subject,
		)
	}
}

func printPatrons(w io.Writer, r analytics.PatronRiskReport, top int) {
	heading(w, "Patron risk")
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No patrons found.")
		return
	}
	levels := map[analytics.RiskLevel]int{}
	for _, row := range r.Rows {
		levels[row.RiskLevel]++
	}
	fmt.Fprintf(w, "High: %d | Medium: %d | Low: %d\n",
		levels[analytics.RiskHigh], levels[analytics.RiskMedium], levels[analytics.RiskLow])
	for _, row := range limit(r.Rows, top) {
		lastLoan := "never"
		if row.LastLoanTS != nil {
			lastLoan = circulation.FormatDate(*row.LastLoanTS)
		}
		fmt.Fprintf(w, "%s | %s | %s | loans %d (active %d, overdue %d) | unpaid %s of %s | last loan %s\n",
			row.RiskLevel,
			row.PatronName,
			row.PatronType,
			row.TotalLoans,
			row.ActiveLoans,
			row.OverdueLoans,
			money(row.UnpaidFines),
			money(row.TotalFines),
			lastLoan,
		)
	}
}

func printLoans(w io.Writer, r analytics.LoanSegmentReport, top int) {
	heading(w, fmt.Sprintf("Loans (%s)", strings.ToLower(string(r.Status))))
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No loans matched.")
		return
	}
	for _, row := range limit(r.Rows, top) {
		duration := "n/a"
		if row.DurationDays != nil {
			duration = fmt.Sprintf("%d days", *row.DurationDays)
		}
		fmt.Fprintf(w, "loan %d | %s | %s | out %s | %s | %s | %s\n",
			row.LoanID,
			row.PatronName,
			row.Title,
			circulation.FormatDate(row.LoanTS),
			row.Status,
			duration,
			strings.ToLower(row.DurationVsUsual),
		)
	}
}

func printTrend(w io.Writer, r analytics.MonthlyTrendReport) {
	heading(w, "Monthly trend")
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "No loans recorded.")
		return
	}
	for _, row := range r.Rows {
		fmt.Fprintf(w, "%s | student %d | faculty %d | staff %d | alumni %d | other %d | total %s | running %s\n",
			row.LoanMonth,
			row.StudentLoans,
			row.FacultyLoans,
			row.StaffLoans,
			row.AlumniLoans,
			row.OtherLoans,
			count(row.TotalLoans),
			count(row.RunningTotalLoans),
		)
	}
}
