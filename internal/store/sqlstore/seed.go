package sqlstore

import (
	"time"

	"circulation-analytics/internal/circulation"
)

// DemoSnapshot is a small branch library whose loan dates are laid out
// relative to today, so every report has something to show.
func DemoSnapshot(today time.Time) *circulation.Snapshot {
	today = circulation.DateOnly(today)
	at := func(daysAgo int) time.Time {
		return today.AddDate(0, 0, -daysAgo).Add(10 * time.Hour)
	}

	return &circulation.Snapshot{
		Branches: []circulation.Branch{
			{BranchID: 1, Name: "Central"},
			{BranchID: 2, Name: "Riverside"},
		},
		Publishers: []circulation.Publisher{
			{PublisherID: 1, Name: "Penguin"},
			{PublisherID: 2, Name: "Ace Books"},
			{PublisherID: 3, Name: "Vintage"},
		},
		Subjects: []circulation.Subject{
			{SubjectID: 1, Name: "Science Fiction"},
			{SubjectID: 2, Name: "Classics"},
			{SubjectID: 3, Name: "History"},
			{SubjectID: 4, Name: "Computing"},
		},
		Authors: []circulation.Author{
			{AuthorID: 1, FirstName: "Frank", LastName: "Herbert"},
			{AuthorID: 2, FirstName: "Ursula", LastName: "Le Guin"},
			{AuthorID: 3, FirstName: "Jane", LastName: "Austen"},
			{AuthorID: 4, FirstName: "Mary", LastName: "Beard"},
			{AuthorID: 5, FirstName: "Brian", LastName: "Kernighan"},
			{AuthorID: 6, FirstName: "Alan", LastName: "Donovan"},
		},
		Books: []circulation.Book{
			{ISBN: "9780441013593", Title: "Dune", PubYear: 1965, PublisherID: 2},
			{ISBN: "9780061054884", Title: "The Dispossessed", PubYear: 1974, PublisherID: 1},
			{ISBN: "9780141439587", Title: "Emma", PubYear: 1815, PublisherID: 1},
			{ISBN: "9781631492228", Title: "SPQR", PubYear: 2015, PublisherID: 3},
			{ISBN: "9780134190440", Title: "The Go Programming Language", PubYear: 2015, PublisherID: 1},
			{ISBN: "9780441478125", Title: "The Left Hand of Darkness", PubYear: 1969, PublisherID: 2},
		},
		BookSubjects: []circulation.BookSubject{
			{ISBN: "9780441013593", SubjectID: 1},
			{ISBN: "9780441013593", SubjectID: 2},
			{ISBN: "9780061054884", SubjectID: 1},
			{ISBN: "9780141439587", SubjectID: 2},
			{ISBN: "9781631492228", SubjectID: 3},
			{ISBN: "9780134190440", SubjectID: 4},
			{ISBN: "9780441478125", SubjectID: 1},
		},
		BookAuthors: []circulation.BookAuthor{
			{ISBN: "9780441013593", AuthorID: 1},
			{ISBN: "9780061054884", AuthorID: 2},
			{ISBN: "9780141439587", AuthorID: 3},
			{ISBN: "9781631492228", AuthorID: 4},
			{ISBN: "9780134190440", AuthorID: 6},
			{ISBN: "9780134190440", AuthorID: 5},
			{ISBN: "9780441478125", AuthorID: 2},
		},
		Copies: []circulation.Copy{
			{CopyID: 1, ISBN: "9780441013593", BranchID: 1, Barcode: "C-0001"},
			{CopyID: 2, ISBN: "9780441013593", BranchID: 2, Barcode: "R-0001"},
			{CopyID: 3, ISBN: "9780061054884", BranchID: 1, Barcode: "C-0002"},
			{CopyID: 4, ISBN: "9780141439587", BranchID: 1, Barcode: "C-0003"},
			{CopyID: 5, ISBN: "9781631492228", BranchID: 2, Barcode: "R-0002"},
			{CopyID: 6, ISBN: "9780134190440", BranchID: 1, Barcode: "C-0004"},
			{CopyID: 7, ISBN: "9780441478125", BranchID: 2, Barcode: "R-0003"},
		},
		Patrons: []circulation.Patron{
			{PatronID: 1, FirstName: "Avery", LastName: "Stone", Email: "avery.stone@example.edu", PatronType: circulation.PatronStudent, Balance: 45},
			{PatronID: 2, FirstName: "Blake", LastName: "Moreno", Email: "blake.moreno@example.edu", PatronType: circulation.PatronFaculty},
			{PatronID: 3, FirstName: "Casey", LastName: "Nguyen", Email: "casey.nguyen@example.edu", PatronType: circulation.PatronStaff, Balance: 12.5},
			{PatronID: 4, FirstName: "Devon", LastName: "Price", Email: "devon.price@example.org", PatronType: circulation.PatronAlumni},
			{PatronID: 5, FirstName: "Emery", LastName: "Walsh", Email: "emery.walsh@example.org", PatronType: "Community"},
		},
		Loans: []circulation.Loan{
			{LoanID: 1, CopyID: 1, PatronID: 1, LoanTS: at(120), DueTS: at(106), ReturnTS: at(95)},
			{LoanID: 2, CopyID: 3, PatronID: 1, LoanTS: at(40), DueTS: at(26)},
			{LoanID: 3, CopyID: 6, PatronID: 1, LoanTS: at(20), DueTS: at(6)},
			{LoanID: 4, CopyID: 2, PatronID: 2, LoanTS: at(75), DueTS: at(61), ReturnTS: at(65)},
			{LoanID: 5, CopyID: 4, PatronID: 2, LoanTS: at(5), DueTS: at(-9)},
			{LoanID: 6, CopyID: 5, PatronID: 3, LoanTS: at(50), DueTS: at(36), ReturnTS: at(33)},
			{LoanID: 7, CopyID: 7, PatronID: 3, LoanTS: at(12), DueTS: at(-2)},
			{LoanID: 8, CopyID: 1, PatronID: 4, LoanTS: at(30), DueTS: at(16), ReturnTS: at(20)},
			{LoanID: 9, CopyID: 2, PatronID: 5, LoanTS: at(3), DueTS: at(-11)},
			{LoanID: 10, CopyID: 6, PatronID: 4, LoanTS: at(200), DueTS: at(186), ReturnTS: at(180)},
		},
		Fines: []circulation.Fine{
			{FineID: 1, PatronID: 1, Amount: 25, Status: circulation.FineStatusUnpaid},
			{FineID: 2, PatronID: 1, Amount: 20, Status: circulation.FineStatusUnpaid},
			{FineID: 3, PatronID: 3, Amount: 12.5, Status: circulation.FineStatusUnpaid},
			{FineID: 4, PatronID: 4, Amount: 5, Status: circulation.FineStatusPaid},
		},
	}
}
