package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"circulation-analytics/internal/analytics"
)

// reportResult is one CLI run: the report payload as returned by the engine,
// plus its rows split by section for CSV and database storage.
type reportResult struct {
	Name        string
	AsOf        string
	Payload     any
	Sections    []section
	InvalidRows int
}

type section struct {
	Name string
	Rows []any
}

func (r reportResult) rowCount() int {
	total := 0
	for _, s := range r.Sections {
		total += len(s.Rows)
	}
	return total
}

func parseReportName(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return analytics.ReportAll, nil
	}
	if value == analytics.ReportAll || slices.Contains(analytics.ReportNames, value) {
		return value, nil
	}
	return "", fmt.Errorf("%w: unknown report %q (want %s or %s)", analytics.ErrInvalidParameter,
		value, strings.Join(analytics.ReportNames, ", "), analytics.ReportAll)
}

func runSelected(ctx context.Context, engine *analytics.Engine, name string, req analytics.Request) (reportResult, error) {
	switch name {
	case analytics.ReportDashboard:
		r, err := engine.Dashboard(ctx)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: dashboardSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportOverdue:
		r, err := engine.OverdueRisk(ctx)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: overdueSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportCatalog:
		r, err := engine.Catalog(ctx, req.Catalog)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: catalogSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportPatrons:
		r, err := engine.PatronRisk(ctx)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: patronSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportLoans:
		r, err := engine.LoanSegments(ctx, req.Status)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: loanSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportTrend:
		r, err := engine.MonthlyTrend(ctx)
		return reportResult{Name: name, AsOf: r.AsOf, Payload: r, Sections: trendSections(r), InvalidRows: r.InvalidRows}, err
	case analytics.ReportAll:
		b, err := engine.All(ctx, req)
		if err != nil {
			return reportResult{}, err
		}
		var sections []section
		sections = append(sections, dashboardSections(b.Dashboard)...)
		sections = append(sections, overdueSections(b.OverdueRisk)...)
		sections = append(sections, catalogSections(b.Catalog)...)
		sections = append(sections, patronSections(b.PatronRisk)...)
		sections = append(sections, loanSections(b.LoanSegments)...)
		sections = append(sections, trendSections(b.MonthlyTrend)...)
		return reportResult{Name: name, AsOf: b.AsOf, Payload: b, Sections: sections, InvalidRows: b.Dashboard.InvalidRows}, nil
	default:
		return reportResult{}, fmt.Errorf("%w: unknown report %q", analytics.ErrInvalidParameter, name)
	}
}

func rowsOf[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}

func dashboardSections(r analytics.DashboardSummary) []section {
	return []section{{Name: analytics.ReportDashboard, Rows: []any{r}}}
}

func overdueSections(r analytics.OverdueRiskReport) []section {
	return []section{{Name: analytics.ReportOverdue, Rows: rowsOf(r.Rows)}}
}

func catalogSections(r analytics.CatalogReport) []section {
	return []section{{Name: analytics.ReportCatalog, Rows: rowsOf(r.Rows)}}
}

func patronSections(r analytics.PatronRiskReport) []section {
	return []section{{Name: analytics.ReportPatrons, Rows: rowsOf(r.Rows)}}
}

func loanSections(r analytics.LoanSegmentReport) []section {
	return []section{{Name: analytics.ReportLoans, Rows: rowsOf(r.Rows)}}
}

func trendSections(r analytics.MonthlyTrendReport) []section {
	return []section{{Name: analytics.ReportTrend, Rows: rowsOf(r.Rows)}}
}
