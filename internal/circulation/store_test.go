package circulation

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStore struct {
	Store
	err error
}

func (f failingStore) Loans(ctx context.Context) ([]Loan, error) {
	return nil, f.err
}

type transactionalStore struct {
	Store
	snapshots int
}

func (s *transactionalStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.snapshots++
	return &Snapshot{Books: []Book{{ISBN: "978-9", Title: "From transaction"}}}, nil
}

func TestLoadPrefersSnapshotter(t *testing.T) {
	store := &transactionalStore{Store: failingStore{Store: NewMemoryStore(nil), err: errors.New("unused")}}
	snap, err := Load(context.Background(), store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.snapshots != 1 || len(snap.Books) != 1 || snap.Books[0].Title != "From transaction" {
		t.Fatalf("expected the transactional snapshot, got %+v after %d calls", snap, store.snapshots)
	}
}

func TestLoadFromMemoryStore(t *testing.T) {
	snap := &Snapshot{
		Books:  []Book{{ISBN: "978-1", Title: "Dune"}},
		Copies: []Copy{{CopyID: 1, ISBN: "978-1", BranchID: 1}},
		Loans:  []Loan{{LoanID: 1, CopyID: 1, PatronID: 1}},
	}

	loaded, err := Load(context.Background(), NewMemoryStore(snap))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Books) != 1 || len(loaded.Copies) != 1 || len(loaded.Loans) != 1 {
		t.Fatalf("expected one book, copy and loan, got %d/%d/%d", len(loaded.Books), len(loaded.Copies), len(loaded.Loans))
	}

	loaded.Books[0].Title = "changed"
	if snap.Books[0].Title != "Dune" {
		t.Fatalf("expected source snapshot to stay untouched, got %q", snap.Books[0].Title)
	}
}

func TestLoadFailsWithoutPartialSnapshot(t *testing.T) {
	boom := errors.New("connection reset")
	store := failingStore{Store: NewMemoryStore(&Snapshot{}), err: boom}

	snap, err := Load(context.Background(), store)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped adapter error, got %v", err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot on failure")
	}
}

func TestLoadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, NewMemoryStore(nil)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoanStatus(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	open := Loan{DueTS: due}
	if !open.Current() || !open.Overdue(today) {
		t.Fatalf("expected open loan past due to be current and overdue")
	}

	dueToday := Loan{DueTS: today.Add(17 * time.Hour)}
	if dueToday.Overdue(today) {
		t.Fatalf("loan due later today must not be overdue")
	}

	late := Loan{DueTS: due, ReturnTS: due.Add(48 * time.Hour)}
	if late.Current() || late.Overdue(today) || !late.ReturnedLate() {
		t.Fatalf("expected returned late loan, got current=%v overdue=%v late=%v", late.Current(), late.Overdue(today), late.ReturnedLate())
	}
}

func TestOverdueComparesCalendarDates(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	// 2026-03-14 21:00 UTC, but due on the 15th by its own calendar.
	dueToday := Loan{DueTS: time.Date(2026, 3, 15, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))}
	if dueToday.Overdue(today) {
		t.Fatalf("loan due on the as-of date must not be overdue")
	}

	// 2026-03-15 03:00 UTC, but due on the 14th by its own calendar.
	dueYesterday := Loan{DueTS: time.Date(2026, 3, 14, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))}
	if !dueYesterday.Overdue(today) {
		t.Fatalf("loan due the day before the as-of date must be overdue")
	}
	if got := DaysBetween(dueYesterday.DueTS, today); got != 1 {
		t.Fatalf("expected 1 day overdue, got %d", got)
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2026, 1, 4, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(start, end); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
}

func TestParseOptionalDate(t *testing.T) {
	for _, value := range []string{"", " ", "NULL", "null"} {
		parsed, err := ParseOptionalDate(value)
		if err != nil || !parsed.IsZero() {
			t.Fatalf("expected zero time for %q, got %v (%v)", value, parsed, err)
		}
	}
	parsed, err := ParseOptionalDate("2026-02-03 10:15:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Day() != 3 || parsed.Hour() != 10 {
		t.Fatalf("unexpected parse result %v", parsed)
	}
	if _, err := ParseOptionalDate("next tuesday"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
