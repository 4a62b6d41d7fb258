package analytics

import "circulation-analytics/internal/circulation"

// index holds the lookup maps every report joins through. Rows whose
// references do not resolve are left out of the maps and counted in invalid.
type index struct {
	books    map[string]circulation.Book
	copies   map[int64]circulation.Copy
	patrons  map[int64]circulation.Patron
	subjects map[int64]circulation.Subject
	authors  map[int64]circulation.Author

	publishers map[int64]circulation.Publisher

	loans        []circulation.Loan
	fines        []circulation.Fine
	bookSubjects []circulation.BookSubject
	bookAuthors  []circulation.BookAuthor

	copiesByISBN  map[string][]circulation.Copy
	loansByCopy   map[int64][]circulation.Loan
	loansByPatron map[int64][]circulation.Loan
	finesByPatron map[int64][]circulation.Fine

	invalid int
}

func newIndex(snap *circulation.Snapshot) *index {
	if snap == nil {
		snap = &circulation.Snapshot{}
	}
	idx := &index{
		books:    make(map[string]circulation.Book, len(snap.Books)),
		copies:   make(map[int64]circulation.Copy, len(snap.Copies)),
		patrons:  make(map[int64]circulation.Patron, len(snap.Patrons)),
		subjects: make(map[int64]circulation.Subject, len(snap.Subjects)),
		authors:  make(map[int64]circulation.Author, len(snap.Authors)),

		publishers: make(map[int64]circulation.Publisher, len(snap.Publishers)),
	}
	for _, publisher := range snap.Publishers {
		idx.publishers[publisher.PublisherID] = publisher
	}
	for _, book := range snap.Books {
		idx.books[book.ISBN] = book
	}
	for _, patron := range snap.Patrons {
		idx.patrons[patron.PatronID] = patron
	}
	for _, subject := range snap.Subjects {
		idx.subjects[subject.SubjectID] = subject
	}
	for _, author := range snap.Authors {
		idx.authors[author.AuthorID] = author
	}
	branches := make(map[int64]struct{}, len(snap.Branches))
	for _, branch := range snap.Branches {
		branches[branch.BranchID] = struct{}{}
	}

	for _, c := range snap.Copies {
		_, bookOK := idx.books[c.ISBN]
		_, branchOK := branches[c.BranchID]
		if !bookOK || !branchOK {
			idx.invalid++
			continue
		}
		idx.copies[c.CopyID] = c
	}
	for _, loan := range snap.Loans {
		_, copyOK := idx.copies[loan.CopyID]
		_, patronOK := idx.patrons[loan.PatronID]
		if !copyOK || !patronOK {
			idx.invalid++
			continue
		}
		idx.loans = append(idx.loans, loan)
	}
	for _, fine := range snap.Fines {
		if _, ok := idx.patrons[fine.PatronID]; !ok {
			idx.invalid++
			continue
		}
		idx.fines = append(idx.fines, fine)
	}
	for _, link := range snap.BookSubjects {
		_, bookOK := idx.books[link.ISBN]
		_, subjectOK := idx.subjects[link.SubjectID]
		if !bookOK || !subjectOK {
			idx.invalid++
			continue
		}
		idx.bookSubjects = append(idx.bookSubjects, link)
	}
	for _, link := range snap.BookAuthors {
		_, bookOK := idx.books[link.ISBN]
		_, authorOK := idx.authors[link.AuthorID]
		if !bookOK || !authorOK {
			idx.invalid++
			continue
		}
		idx.bookAuthors = append(idx.bookAuthors, link)
	}

	validCopies := make([]circulation.Copy, 0, len(idx.copies))
	for _, c := range idx.copies {
		validCopies = append(validCopies, c)
	}
	idx.copiesByISBN = GroupBy(validCopies, func(c circulation.Copy) string { return c.ISBN })
	idx.loansByCopy = GroupBy(idx.loans, func(l circulation.Loan) int64 { return l.CopyID })
	idx.loansByPatron = GroupBy(idx.loans, func(l circulation.Loan) int64 { return l.PatronID })
	idx.finesByPatron = GroupBy(idx.fines, func(f circulation.Fine) int64 { return f.PatronID })
	return idx
}

// bookForLoan resolves loan -> copy -> book; both links are guaranteed for
// loans that passed validation.
func (idx *index) bookForLoan(loan circulation.Loan) circulation.Book {
	return idx.books[idx.copies[loan.CopyID].ISBN]
}

// unpaidFines sums the patron's fines still owed.
func (idx *index) unpaidFines(patronID int64) float64 {
	return SumAmount(idx.finesByPatron[patronID], circulation.Fine.Unpaid)
}
