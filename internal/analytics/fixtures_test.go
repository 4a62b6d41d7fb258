package analytics

import (
	"time"

	"circulation-analytics/internal/circulation"
)

var fixtureToday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 10, 30, 0, 0, time.UTC)
}

// fixtureSnapshot is a small library with one patron in trouble (patron 1:
// one loan returned five days late, one loan three days overdue, 60 unpaid).
func fixtureSnapshot() *circulation.Snapshot {
	return &circulation.Snapshot{
		Branches:   []circulation.Branch{{BranchID: 1, Name: "Main"}},
		Publishers: []circulation.Publisher{{PublisherID: 1, Name: "Ace"}},
		Subjects: []circulation.Subject{
			{SubjectID: 1, Name: "Science Fiction"},
			{SubjectID: 2, Name: "Classics"},
			{SubjectID: 3, Name: "History"},
		},
		Authors: []circulation.Author{
			{AuthorID: 1, FirstName: "Frank", LastName: "Herbert"},
			{AuthorID: 2, FirstName: "Ursula", LastName: "Le Guin"},
			{AuthorID: 3, FirstName: "Jane", LastName: "Austen"},
		},
		Books: []circulation.Book{
			{ISBN: "978-0001", Title: "Dune", PubYear: 1965, PublisherID: 1},
			{ISBN: "978-0002", Title: "The Dispossessed", PubYear: 1974, PublisherID: 1},
			{ISBN: "978-0003", Title: "Emma", PubYear: 1815},
			{ISBN: "978-0004", Title: "Always Coming Home", PubYear: 1985, PublisherID: 1},
			{ISBN: "978-0005", Title: "Untitled Notes"},
			{ISBN: "978-0006", Title: "Zenith", PubYear: 2001},
		},
		BookSubjects: []circulation.BookSubject{
			{ISBN: "978-0001", SubjectID: 2},
			{ISBN: "978-0001", SubjectID: 1},
			{ISBN: "978-0002", SubjectID: 1},
			{ISBN: "978-0003", SubjectID: 2},
			{ISBN: "978-0004", SubjectID: 1},
			{ISBN: "978-0006", SubjectID: 1},
		},
		BookAuthors: []circulation.BookAuthor{
			{ISBN: "978-0001", AuthorID: 1},
			{ISBN: "978-0001", AuthorID: 3},
			{ISBN: "978-0001", AuthorID: 1},
			{ISBN: "978-0002", AuthorID: 2},
			{ISBN: "978-0003", AuthorID: 3},
			{ISBN: "978-0004", AuthorID: 2},
		},
		Copies: []circulation.Copy{
			{CopyID: 1, ISBN: "978-0001", BranchID: 1, Barcode: "B-1"},
			{CopyID: 2, ISBN: "978-0001", BranchID: 1, Barcode: "B-2"},
			{CopyID: 3, ISBN: "978-0002", BranchID: 1, Barcode: "B-3"},
			{CopyID: 4, ISBN: "978-0003", BranchID: 1, Barcode: "B-4"},
			{CopyID: 5, ISBN: "978-0004", BranchID: 1, Barcode: "B-5"},
			{CopyID: 6, ISBN: "978-0004", BranchID: 1, Barcode: "B-6"},
			{CopyID: 7, ISBN: "978-0005", BranchID: 1, Barcode: "B-7"},
		},
		Patrons: []circulation.Patron{
			{PatronID: 1, FirstName: "Pat", LastName: "Risk", PatronType: "Student"},
			{PatronID: 2, FirstName: "Sam", LastName: "Reader", PatronType: "Faculty"},
			{PatronID: 3, FirstName: "Alex", LastName: "Quiet", PatronType: "Alumni"},
			{PatronID: 4, FirstName: "Jo", LastName: "Visitor"},
		},
		Loans: []circulation.Loan{
			{LoanID: 1, CopyID: 1, PatronID: 1, LoanTS: day(2026, 1, 10), DueTS: day(2026, 1, 24), ReturnTS: day(2026, 1, 29)},
			{LoanID: 2, CopyID: 3, PatronID: 1, LoanTS: day(2026, 2, 26), DueTS: day(2026, 3, 12)},
			{LoanID: 3, CopyID: 2, PatronID: 2, LoanTS: day(2026, 3, 10), DueTS: day(2026, 3, 24)},
			{LoanID: 4, CopyID: 4, PatronID: 2, LoanTS: day(2026, 2, 1), DueTS: day(2026, 2, 15), ReturnTS: day(2026, 2, 10)},
			{LoanID: 5, CopyID: 1, PatronID: 4, LoanTS: day(2026, 3, 9), DueTS: day(2026, 3, 23), ReturnTS: day(2026, 3, 12)},
		},
		Fines: []circulation.Fine{
			{FineID: 1, PatronID: 1, Amount: 40, Status: "Unpaid"},
			{FineID: 2, PatronID: 1, Amount: 20, Status: "Unpaid"},
			{FineID: 3, PatronID: 1, Amount: 15, Status: "Paid"},
			{FineID: 4, PatronID: 2, Amount: 12, Status: "Unpaid"},
		},
	}
}

func floatEqual(a float64, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.01
}
