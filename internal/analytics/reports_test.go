package analytics

import (
	"errors"
	"testing"
	"time"

	"circulation-analytics/internal/circulation"
)

func TestDashboardSummary(t *testing.T) {
	summary := BuildDashboard(fixtureSnapshot(), NewPeriod(fixtureToday))

	expect := map[string][2]int{
		"total_books":        {summary.TotalBooks, 6},
		"total_copies":       {summary.TotalCopies, 7},
		"total_subjects":     {summary.TotalSubjects, 2},
		"total_patrons":      {summary.TotalPatrons, 4},
		"active_patrons_90d": {summary.ActivePatrons90d, 3},
		"total_loans":        {summary.TotalLoans, 5},
		"current_loans":      {summary.CurrentLoans, 2},
		"overdue_loans":      {summary.OverdueLoans, 1},
		"loans_last_7d":      {summary.LoansLast7d, 2},
		"returns_last_7d":    {summary.ReturnsLast7d, 1},
		"invalid_rows":       {summary.InvalidRows, 0},
	}
	for field, pair := range expect {
		if pair[0] != pair[1] {
			t.Fatalf("%s expected %d, got %d", field, pair[1], pair[0])
		}
	}
	if summary.AvgDurationDays == nil || !floatEqual(*summary.AvgDurationDays, 10.6) {
		t.Fatalf("expected avg duration 10.6, got %v", summary.AvgDurationDays)
	}
}

func TestDashboardEmptyStore(t *testing.T) {
	summary := BuildDashboard(&circulation.Snapshot{}, NewPeriod(fixtureToday))
	if summary.TotalBooks != 0 || summary.TotalCopies != 0 || summary.TotalSubjects != 0 ||
		summary.TotalPatrons != 0 || summary.ActivePatrons90d != 0 || summary.TotalLoans != 0 ||
		summary.CurrentLoans != 0 || summary.OverdueLoans != 0 || summary.LoansLast7d != 0 ||
		summary.ReturnsLast7d != 0 {
		t.Fatalf("expected all-zero counts, got %+v", summary)
	}
	if summary.AvgDurationDays != nil {
		t.Fatalf("expected absent average, got %v", *summary.AvgDurationDays)
	}
}

func TestDashboardCurrentPlusReturnedEqualsTotal(t *testing.T) {
	snap := fixtureSnapshot()
	summary := BuildDashboard(snap, NewPeriod(fixtureToday))
	returned := ConditionalCount(snap.Loans, func(l circulation.Loan) bool { return !l.Current() })
	if summary.CurrentLoans+returned != summary.TotalLoans {
		t.Fatalf("expected current %d + returned %d = total %d", summary.CurrentLoans, returned, summary.TotalLoans)
	}
}

func TestMissingReferencesAreSkippedAndCounted(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Loans = append(snap.Loans, circulation.Loan{LoanID: 99, CopyID: 404, PatronID: 1, LoanTS: day(2026, 3, 14)})
	snap.Fines = append(snap.Fines, circulation.Fine{FineID: 99, PatronID: 404, Amount: 500, Status: "Unpaid"})
	snap.Copies = append(snap.Copies, circulation.Copy{CopyID: 50, ISBN: "missing", BranchID: 1})

	summary := BuildDashboard(snap, NewPeriod(fixtureToday))
	if summary.InvalidRows != 3 {
		t.Fatalf("expected 3 invalid rows, got %d", summary.InvalidRows)
	}
	if summary.TotalLoans != 5 || summary.TotalCopies != 7 {
		t.Fatalf("expected malformed rows excluded, got loans=%d copies=%d", summary.TotalLoans, summary.TotalCopies)
	}

	profile := BuildPatronRisk(snap, NewPeriod(fixtureToday))
	for _, row := range profile.Rows {
		if row.PatronID == 1 && !floatEqual(row.UnpaidFines, 60) {
			t.Fatalf("orphan fine leaked into patron 1: %v", row.UnpaidFines)
		}
	}
}

func TestOverdueRiskScenario(t *testing.T) {
	report := BuildOverdueRisk(fixtureSnapshot(), NewPeriod(fixtureToday))
	if len(report.Rows) != 1 {
		t.Fatalf("expected 1 overdue loan, got %d", len(report.Rows))
	}
	row := report.Rows[0]
	if row.LoanID != 2 || row.DaysOverdue != 3 || row.OverdueOrLateLoans != 2 || row.AllLoans != 2 {
		t.Fatalf("unexpected row %+v", row)
	}
	if !floatEqual(row.UnpaidFines, 60) || !floatEqual(row.RiskScore, 13.0) || row.RiskRank != 1 {
		t.Fatalf("expected unpaid 60, score 13.0, rank 1, got %+v", row)
	}
	if row.PatronName != "Pat Risk" || row.Title != "The Dispossessed" {
		t.Fatalf("expected display fields, got %q / %q", row.PatronName, row.Title)
	}
}

func TestOverdueRiskRankingAndOrder(t *testing.T) {
	snap := fixtureSnapshot()
	// Patron 3 gets two overdue loans with no fines; one ties patron 1's score.
	snap.Loans = append(snap.Loans,
		circulation.Loan{LoanID: 10, CopyID: 5, PatronID: 3, LoanTS: day(2026, 2, 1), DueTS: day(2026, 3, 6)},
		circulation.Loan{LoanID: 11, CopyID: 6, PatronID: 3, LoanTS: day(2026, 2, 1), DueTS: day(2026, 3, 14)},
	)
	report := BuildOverdueRisk(snap, NewPeriod(fixtureToday))
	if len(report.Rows) != 3 {
		t.Fatalf("expected 3 overdue loans, got %d", len(report.Rows))
	}
	// loan 10: 9 days + 2*2 = 13; loan 2: 13; loan 11: 1 + 4 = 5
	got := []int64{report.Rows[0].LoanID, report.Rows[1].LoanID, report.Rows[2].LoanID}
	if got[0] != 10 || got[1] != 2 || got[2] != 11 {
		t.Fatalf("expected order [10 2 11] (days overdue breaks the tie), got %v", got)
	}
	ranks := []int{report.Rows[0].RiskRank, report.Rows[1].RiskRank, report.Rows[2].RiskRank}
	if ranks[0] != 1 || ranks[1] != 1 || ranks[2] != 3 {
		t.Fatalf("expected ranks [1 1 3], got %v", ranks)
	}
}

func TestPatronRiskProfile(t *testing.T) {
	report := BuildPatronRisk(fixtureSnapshot(), NewPeriod(fixtureToday))
	if len(report.Rows) != 4 {
		t.Fatalf("expected 4 patrons, got %d", len(report.Rows))
	}
	order := []int64{1, 2, 3, 4}
	levels := []RiskLevel{RiskHigh, RiskMedium, RiskLow, RiskLow}
	for i, row := range report.Rows {
		if row.PatronID != order[i] || row.RiskLevel != levels[i] {
			t.Fatalf("row %d: expected patron %d %s, got %d %s", i, order[i], levels[i], row.PatronID, row.RiskLevel)
		}
		if !(row.TotalLoans >= row.ActiveLoans && row.ActiveLoans >= row.OverdueLoans && row.OverdueLoans >= 0) {
			t.Fatalf("loan count invariant broken for patron %d: %+v", row.PatronID, row)
		}
	}

	pat := report.Rows[0]
	if pat.OverdueLoans != 1 || pat.ActiveLoans != 1 || pat.TotalLoans != 2 {
		t.Fatalf("unexpected loan counts for patron 1: %+v", pat)
	}
	if !floatEqual(pat.UnpaidFines, 60) || !floatEqual(pat.TotalFines, 75) {
		t.Fatalf("expected fines 75 total / 60 unpaid, got %v / %v", pat.TotalFines, pat.UnpaidFines)
	}
	if pat.IsRecentBorrower != 1 || pat.LastLoanTS == nil || circulation.FormatDate(*pat.LastLoanTS) != "2026-02-26" {
		t.Fatalf("expected recent borrower with last loan 2026-02-26, got %+v", pat)
	}

	quiet := report.Rows[2]
	if quiet.LastLoanTS != nil || quiet.IsRecentBorrower != 0 || quiet.TotalLoans != 0 {
		t.Fatalf("expected patron without loans to have no last loan, got %+v", quiet)
	}
}

func TestClassifyRisk(t *testing.T) {
	cases := []struct {
		unpaid  float64
		overdue int
		want    RiskLevel
	}{
		{unpaid: 50, overdue: 0, want: RiskHigh},
		{unpaid: 0, overdue: 3, want: RiskHigh},
		{unpaid: 10, overdue: 0, want: RiskMedium},
		{unpaid: 49, overdue: 0, want: RiskMedium},
		{unpaid: 0, overdue: 2, want: RiskMedium},
		{unpaid: 9.99, overdue: 0, want: RiskLow},
		{unpaid: 49.5, overdue: 0, want: RiskLow},
		{unpaid: 0, overdue: 0, want: RiskLow},
	}
	for _, tc := range cases {
		if got := ClassifyRisk(tc.unpaid, tc.overdue); got != tc.want {
			t.Fatalf("unpaid %.2f overdue %d: expected %s, got %s", tc.unpaid, tc.overdue, tc.want, got)
		}
	}
}

func TestUnpaidFinesSumInWholeCents(t *testing.T) {
	cases := [][]float64{
		{0.01, 32.16, 17.83},
		{0.01, 32.41, 17.58},
		{0.01, 32.66, 17.33},
	}
	for _, amounts := range cases {
		snap := &circulation.Snapshot{
			Patrons: []circulation.Patron{{PatronID: 1, FirstName: "Fay", LastName: "Penny", PatronType: "Student"}},
		}
		for i, amount := range amounts {
			snap.Fines = append(snap.Fines, circulation.Fine{FineID: int64(i + 1), PatronID: 1, Amount: amount, Status: "Unpaid"})
		}
		if got := SumAmount(snap.Fines, nil); got != 50 {
			t.Fatalf("fines %v: expected sum 50, got %v", amounts, got)
		}

		report := BuildPatronRisk(snap, NewPeriod(fixtureToday))
		if len(report.Rows) != 1 {
			t.Fatalf("expected 1 patron, got %d", len(report.Rows))
		}
		row := report.Rows[0]
		if row.UnpaidFines != 50 || row.RiskLevel != RiskHigh {
			t.Fatalf("fines %v: expected 50 unpaid and HIGH risk, got %v %s", amounts, row.UnpaidFines, row.RiskLevel)
		}
	}

	if got := RiskScore(0, 0, SumAmount([]circulation.Fine{{Amount: 0.1}, {Amount: 0.2}}, nil)); got != 0.03 {
		t.Fatalf("expected score 0.03, got %v", got)
	}
}

func TestOverdueRiskUsesCalendarDates(t *testing.T) {
	snap := fixtureSnapshot()
	east := time.FixedZone("UTC+5", 5*3600)
	west := time.FixedZone("UTC-5", -5*3600)
	snap.Loans = append(snap.Loans,
		circulation.Loan{LoanID: 20, CopyID: 5, PatronID: 3, LoanTS: day(2026, 3, 1), DueTS: time.Date(2026, 3, 15, 2, 0, 0, 0, east)},
		circulation.Loan{LoanID: 21, CopyID: 6, PatronID: 3, LoanTS: day(2026, 3, 1), DueTS: time.Date(2026, 3, 14, 22, 0, 0, 0, west)},
	)

	report := BuildOverdueRisk(snap, NewPeriod(fixtureToday))
	byLoan := map[int64]OverdueRiskRow{}
	for _, row := range report.Rows {
		byLoan[row.LoanID] = row
	}
	if _, ok := byLoan[20]; ok {
		t.Fatalf("loan due on the as-of date must not be listed, got %+v", report.Rows)
	}
	late, ok := byLoan[21]
	if !ok || late.DaysOverdue != 1 {
		t.Fatalf("expected loan 21 one day overdue, got %+v", report.Rows)
	}

	summary := BuildDashboard(snap, NewPeriod(fixtureToday))
	if summary.OverdueLoans != len(report.Rows) {
		t.Fatalf("expected dashboard overdue count %d, got %d", len(report.Rows), summary.OverdueLoans)
	}
}

func TestCatalogRanking(t *testing.T) {
	report, err := BuildCatalog(fixtureSnapshot(), NewPeriod(fixtureToday), CatalogParams{})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	titles := make([]string, len(report.Rows))
	rows := map[string]CatalogRow{}
	for i, row := range report.Rows {
		titles[i] = row.Title
		rows[row.ISBN] = row
	}
	wantTitles := []string{"Dune", "Emma", "The Dispossessed", "Always Coming Home", "Untitled Notes", "Zenith"}
	for i := range wantTitles {
		if titles[i] != wantTitles[i] {
			t.Fatalf("expected order %v, got %v", wantTitles, titles)
		}
	}

	dune := rows["978-0001"]
	if dune.TimesLoaned != 3 || dune.TotalCopies != 2 || dune.AvailableCopies != 1 {
		t.Fatalf("unexpected dune counts %+v", dune)
	}
	if dune.Authors != "Jane Austen, Frank Herbert" || dune.Subjects != "Classics, Science Fiction" {
		t.Fatalf("unexpected dune joins %q / %q", dune.Authors, dune.Subjects)
	}
	if dune.PrimarySubject == nil || *dune.PrimarySubject != "Science Fiction" || dune.Publisher != "Ace" {
		t.Fatalf("expected primary subject Science Fiction, got %v", dune.PrimarySubject)
	}

	home := rows["978-0004"]
	if home.TimesLoaned != 0 || home.AvailableCopies != 2 || home.TotalCopies != 2 {
		t.Fatalf("unexpected counts for unborrowed book %+v", home)
	}
	zenith := rows["978-0006"]
	if home.SubjectPopularityRank != 3 || zenith.SubjectPopularityRank != 3 {
		t.Fatalf("expected zero-loan books tied at rank 3, got %d and %d", home.SubjectPopularityRank, zenith.SubjectPopularityRank)
	}
	if rows["978-0001"].SubjectPopularityRank != 1 || rows["978-0002"].SubjectPopularityRank != 2 {
		t.Fatalf("unexpected science fiction ranks")
	}
	if rows["978-0003"].SubjectPopularityRank != 1 {
		t.Fatalf("expected Emma to lead Classics")
	}
	notes := rows["978-0005"]
	if notes.PrimarySubject != nil || notes.PrimarySubjectID != nil || notes.SubjectPopularityRank != 1 {
		t.Fatalf("expected subjectless book in its own partition, got %+v", notes)
	}
}

func TestCatalogFilters(t *testing.T) {
	snap := fixtureSnapshot()
	period := NewPeriod(fixtureToday)

	absent, err := BuildCatalog(snap, period, CatalogParams{})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	blank, err := BuildCatalog(snap, period, CatalogParams{Search: ""})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	if len(absent.Rows) != len(blank.Rows) {
		t.Fatalf("expected blank search to match no filter, got %d vs %d", len(blank.Rows), len(absent.Rows))
	}
	for i := range absent.Rows {
		if absent.Rows[i].ISBN != blank.Rows[i].ISBN {
			t.Fatalf("row %d differs: %s vs %s", i, absent.Rows[i].ISBN, blank.Rows[i].ISBN)
		}
	}

	byTitle, _ := BuildCatalog(snap, period, CatalogParams{Search: "dUNE"})
	if len(byTitle.Rows) != 1 || byTitle.Rows[0].ISBN != "978-0001" {
		t.Fatalf("expected case-insensitive title match, got %+v", byTitle.Rows)
	}
	byISBN, _ := BuildCatalog(snap, period, CatalogParams{Search: "0003"})
	if len(byISBN.Rows) != 1 || byISBN.Rows[0].Title != "Emma" {
		t.Fatalf("expected isbn match, got %+v", byISBN.Rows)
	}

	sf := int64(1)
	bySubject, _ := BuildCatalog(snap, period, CatalogParams{SubjectID: &sf})
	if len(bySubject.Rows) != 4 {
		t.Fatalf("expected 4 science fiction books, got %d", len(bySubject.Rows))
	}
	for _, row := range bySubject.Rows {
		if row.PrimarySubjectID == nil || *row.PrimarySubjectID != 1 {
			t.Fatalf("unexpected subject on %s", row.ISBN)
		}
	}

	// Whitespace is searched literally, not treated as a blank search.
	spaced, _ := BuildCatalog(snap, period, CatalogParams{Search: " "})
	if len(spaced.Rows) != 3 {
		t.Fatalf("expected 3 titles containing a space, got %d", len(spaced.Rows))
	}
	wide, _ := BuildCatalog(snap, period, CatalogParams{Search: "   "})
	if len(wide.Rows) != 0 {
		t.Fatalf("expected no titles containing three spaces, got %+v", wide.Rows)
	}

	// Ranks are computed before filtering.
	home, _ := BuildCatalog(snap, period, CatalogParams{Search: "home"})
	if len(home.Rows) != 1 || home.Rows[0].SubjectPopularityRank != 3 {
		t.Fatalf("expected filtered row to keep catalog-wide rank 3, got %+v", home.Rows)
	}
}

func TestCatalogRejectsInvalidParameters(t *testing.T) {
	zero := int64(0)
	bad := []CatalogParams{
		{Search: "line\nbreak"},
		{Search: string([]byte{0xff, 0xfe})},
		{SubjectID: &zero},
	}
	for _, params := range bad {
		if _, err := BuildCatalog(fixtureSnapshot(), NewPeriod(fixtureToday), params); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("expected ErrInvalidParameter for %+v, got %v", params, err)
		}
	}
}

func TestLoanSegments(t *testing.T) {
	snap := fixtureSnapshot()
	period := NewPeriod(fixtureToday)

	all, err := BuildLoanSegments(snap, period, StatusAll)
	if err != nil {
		t.Fatalf("build segments: %v", err)
	}
	wantOrder := []int64{3, 5, 2, 4, 1}
	wantUsual := map[int64]string{
		1: DurationLonger,
		2: DurationShorter,
		3: DurationShorter,
		4: DurationLonger,
		5: DurationTypical,
	}
	for i, row := range all.Rows {
		if row.LoanID != wantOrder[i] {
			t.Fatalf("expected loan order %v, got loan %d at %d", wantOrder, row.LoanID, i)
		}
		if row.DurationVsUsual != wantUsual[row.LoanID] {
			t.Fatalf("loan %d: expected %s, got %s", row.LoanID, wantUsual[row.LoanID], row.DurationVsUsual)
		}
	}
	if all.Rows[2].Status != LoanOverdue || all.Rows[0].Status != LoanCurrent || all.Rows[1].Status != LoanReturned {
		t.Fatalf("unexpected statuses %s %s %s", all.Rows[0].Status, all.Rows[1].Status, all.Rows[2].Status)
	}
	if all.Rows[2].AvgDurationPerPatron == nil || !floatEqual(*all.Rows[2].AvgDurationPerPatron, 18) {
		t.Fatalf("expected patron 1 average 18, got %v", all.Rows[2].AvgDurationPerPatron)
	}
	if all.Rows[2].DurationDays == nil || *all.Rows[2].DurationDays != 17 {
		t.Fatalf("expected open loan duration 17, got %v", all.Rows[2].DurationDays)
	}

	counts := map[StatusFilter]int{StatusCurrent: 1, StatusOverdue: 1, StatusReturned: 3}
	for filter, want := range counts {
		report, err := BuildLoanSegments(snap, period, filter)
		if err != nil {
			t.Fatalf("build %s: %v", filter, err)
		}
		if len(report.Rows) != want {
			t.Fatalf("%s expected %d rows, got %d", filter, want, len(report.Rows))
		}
	}
}

func TestLoanSegmentsRejectUnknownFilter(t *testing.T) {
	if _, err := BuildLoanSegments(fixtureSnapshot(), NewPeriod(fixtureToday), StatusFilter("LOST")); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := ParseStatusFilter("sometimes"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected parse failure, got %v", err)
	}
	filter, err := ParseStatusFilter(" overdue ")
	if err != nil || filter != StatusOverdue {
		t.Fatalf("expected OVERDUE, got %q (%v)", filter, err)
	}
	if filter, _ := ParseStatusFilter(""); filter != StatusAll {
		t.Fatalf("expected blank filter to mean ALL, got %q", filter)
	}
}

func TestMonthlyTrend(t *testing.T) {
	snap := fixtureSnapshot()
	snap.Loans = append(snap.Loans, circulation.Loan{LoanID: 20, CopyID: 7, PatronID: 3})
	report := BuildMonthlyTrend(snap, NewPeriod(fixtureToday))

	if len(report.Rows) != 3 {
		t.Fatalf("expected 3 months, got %d", len(report.Rows))
	}
	want := []MonthlyTrendRow{
		{LoanMonth: "2026-01", StudentLoans: 1, TotalLoans: 1, RunningTotalLoans: 1},
		{LoanMonth: "2026-02", StudentLoans: 1, FacultyLoans: 1, TotalLoans: 2, RunningTotalLoans: 3},
		{LoanMonth: "2026-03", FacultyLoans: 1, OtherLoans: 1, TotalLoans: 2, RunningTotalLoans: 5},
	}
	sum := 0
	for i, row := range report.Rows {
		if row != want[i] {
			t.Fatalf("month %d: expected %+v, got %+v", i, want[i], row)
		}
		if row.StudentLoans+row.FacultyLoans+row.StaffLoans+row.AlumniLoans+row.OtherLoans != row.TotalLoans {
			t.Fatalf("pivot columns do not add up for %s", row.LoanMonth)
		}
		sum += row.TotalLoans
	}
	if last := report.Rows[len(report.Rows)-1]; last.RunningTotalLoans != sum {
		t.Fatalf("expected final running total %d, got %d", sum, last.RunningTotalLoans)
	}
}

func TestClassifyPatronType(t *testing.T) {
	cases := map[string]PatronBucket{
		"Student":  BucketStudent,
		"Faculty":  BucketFaculty,
		"Staff":    BucketStaff,
		"Alumni":   BucketAlumni,
		"":         BucketOther,
		"Visiting": BucketOther,
		"student":  BucketOther,
	}
	for value, want := range cases {
		if got := ClassifyPatronType(value); got != want {
			t.Fatalf("%q: expected bucket %d, got %d", value, want, got)
		}
	}
}
