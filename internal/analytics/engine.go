package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"circulation-analytics/internal/circulation"
)

const (
	ReportDashboard = "dashboard"
	ReportOverdue   = "overdue"
	ReportCatalog   = "catalog"
	ReportPatrons   = "patrons"
	ReportLoans     = "loans"
	ReportTrend     = "trend"
	ReportAll       = "all"
)

// ReportNames lists the individual reports in presentation order.
var ReportNames = []string{ReportDashboard, ReportOverdue, ReportCatalog, ReportPatrons, ReportLoans, ReportTrend}

// MetricsRecorder receives one observation per report run.
type MetricsRecorder interface {
	Observe(ctx context.Context, report string, success bool, duration time.Duration)
	RecordRows(report string, rows int, invalidRows int)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, string, bool, time.Duration) {}
func (noopRecorder) RecordRows(string, int, int)                          {}

// Request carries the parameters of the reports that accept any.
type Request struct {
	Catalog CatalogParams
	Status  StatusFilter
}

func (r Request) Validate() error {
	if err := r.Catalog.Validate(); err != nil {
		return err
	}
	return r.Status.Validate()
}

// Bundle holds every report computed from one snapshot.
type Bundle struct {
	AsOf         string             `json:"as_of"`
	Dashboard    DashboardSummary   `json:"dashboard"`
	OverdueRisk  OverdueRiskReport  `json:"overdue_risk"`
	Catalog      CatalogReport      `json:"catalog"`
	PatronRisk   PatronRiskReport   `json:"patron_risk"`
	LoanSegments LoanSegmentReport  `json:"loan_segments"`
	MonthlyTrend MonthlyTrendReport `json:"monthly_trend"`
}

// Engine loads a snapshot per call from Store and runs report builders over
// it. A nil Clock falls back to SystemClock; nil Metrics and Logger are no-ops.
type Engine struct {
	Store   circulation.Store
	Clock   Clock
	Metrics MetricsRecorder
	Logger  *zerolog.Logger
}

func (e *Engine) period() Period {
	clock := e.Clock
	if clock == nil {
		clock = SystemClock
	}
	return NewPeriod(clock())
}

func (e *Engine) log() *zerolog.Logger {
	if e.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return e.Logger
}

func (e *Engine) recorder() MetricsRecorder {
	if e.Metrics == nil {
		return noopRecorder{}
	}
	return e.Metrics
}

func (e *Engine) Dashboard(ctx context.Context) (DashboardSummary, error) {
	return runReport(ctx, e, ReportDashboard, nil, func(snap *circulation.Snapshot, p Period) (DashboardSummary, int, int, error) {
		r := BuildDashboard(snap, p)
		return r, 1, r.InvalidRows, nil
	})
}

func (e *Engine) OverdueRisk(ctx context.Context) (OverdueRiskReport, error) {
	return runReport(ctx, e, ReportOverdue, nil, func(snap *circulation.Snapshot, p Period) (OverdueRiskReport, int, int, error) {
		r := BuildOverdueRisk(snap, p)
		return r, len(r.Rows), r.InvalidRows, nil
	})
}

func (e *Engine) Catalog(ctx context.Context, params CatalogParams) (CatalogReport, error) {
	return runReport(ctx, e, ReportCatalog, params.Validate, func(snap *circulation.Snapshot, p Period) (CatalogReport, int, int, error) {
		r, err := BuildCatalog(snap, p, params)
		return r, len(r.Rows), r.InvalidRows, err
	})
}

func (e *Engine) PatronRisk(ctx context.Context) (PatronRiskReport, error) {
	return runReport(ctx, e, ReportPatrons, nil, func(snap *circulation.Snapshot, p Period) (PatronRiskReport, int, int, error) {
		r := BuildPatronRisk(snap, p)
		return r, len(r.Rows), r.InvalidRows, nil
	})
}

func (e *Engine) LoanSegments(ctx context.Context, filter StatusFilter) (LoanSegmentReport, error) {
	return runReport(ctx, e, ReportLoans, filter.Validate, func(snap *circulation.Snapshot, p Period) (LoanSegmentReport, int, int, error) {
		r, err := BuildLoanSegments(snap, p, filter)
		return r, len(r.Rows), r.InvalidRows, err
	})
}

func (e *Engine) MonthlyTrend(ctx context.Context) (MonthlyTrendReport, error) {
	return runReport(ctx, e, ReportTrend, nil, func(snap *circulation.Snapshot, p Period) (MonthlyTrendReport, int, int, error) {
		r := BuildMonthlyTrend(snap, p)
		return r, len(r.Rows), r.InvalidRows, nil
	})
}

// All builds every report concurrently over a single snapshot and a single
// reading of the clock. Any failure discards the whole bundle.
func (e *Engine) All(ctx context.Context, req Request) (Bundle, error) {
	return runReport(ctx, e, ReportAll, req.Validate, func(snap *circulation.Snapshot, p Period) (Bundle, int, int, error) {
		bundle := Bundle{AsOf: circulation.FormatDate(p.Today)}
		var g errgroup.Group
		g.Go(func() error {
			bundle.Dashboard = BuildDashboard(snap, p)
			return nil
		})
		g.Go(func() error {
			bundle.OverdueRisk = BuildOverdueRisk(snap, p)
			return nil
		})
		g.Go(func() (err error) {
			bundle.Catalog, err = BuildCatalog(snap, p, req.Catalog)
			return err
		})
		g.Go(func() error {
			bundle.PatronRisk = BuildPatronRisk(snap, p)
			return nil
		})
		g.Go(func() (err error) {
			bundle.LoanSegments, err = BuildLoanSegments(snap, p, req.Status)
			return err
		})
		g.Go(func() error {
			bundle.MonthlyTrend = BuildMonthlyTrend(snap, p)
			return nil
		})
		if err := g.Wait(); err != nil {
			return Bundle{}, 0, 0, err
		}
		rows := 1 + len(bundle.OverdueRisk.Rows) + len(bundle.Catalog.Rows) + len(bundle.PatronRisk.Rows) +
			len(bundle.LoanSegments.Rows) + len(bundle.MonthlyTrend.Rows)
		return bundle, rows, bundle.Dashboard.InvalidRows, nil
	})
}

func runReport[T any](
	ctx context.Context,
	e *Engine,
	name string,
	validate func() error,
	build func(*circulation.Snapshot, Period) (T, int, int, error),
) (T, error) {
	var zero T
	if validate != nil {
		if err := validate(); err != nil {
			e.log().Warn().Err(err).Str("report", name).Msg("rejected report parameters")
			return zero, err
		}
	}

	started := time.Now()
	period := e.period()
	report, rows, invalid, err := func() (T, int, int, error) {
		snap, err := circulation.Load(ctx, e.Store)
		if err != nil {
			return zero, 0, 0, err
		}
		return build(snap, period)
	}()
	elapsed := time.Since(started)
	e.recorder().Observe(ctx, name, err == nil, elapsed)
	if err != nil {
		e.log().Error().Err(err).Str("report", name).Dur("elapsed", elapsed).Msg("report failed")
		return zero, fmt.Errorf("%s report: %w", name, err)
	}
	e.recorder().RecordRows(name, rows, invalid)

	event := e.log().Info()
	if invalid > 0 {
		event = e.log().Warn()
	}
	event.
		Str("report", name).
		Str("as_of", circulation.FormatDate(period.Today)).
		Int("rows", rows).
		Int("invalid_rows", invalid).
		Dur("elapsed", elapsed).
		Msg("report built")
	return report, nil
}
