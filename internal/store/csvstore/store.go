// Package csvstore reads a circulation snapshot from a directory of CSV
// exports, one file per entity kind.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"circulation-analytics/internal/circulation"
)

var errSkipRow = errors.New("skip row")

type column struct {
	name     string
	aliases  []string
	required bool
}

type table struct {
	file    string
	columns []column
}

var (
	booksTable = table{file: "books.csv", columns: []column{
		{name: "isbn", aliases: []string{"isbn13", "book_isbn"}, required: true},
		{name: "title", aliases: []string{"book_title"}},
		{name: "pub_year", aliases: []string{"year", "publication_year"}},
		{name: "publisher_id", aliases: []string{"publisher"}},
	}}
	copiesTable = table{file: "copies.csv", columns: []column{
		{name: "copy_id", aliases: []string{"id"}, required: true},
		{name: "isbn", aliases: []string{"book_isbn"}, required: true},
		{name: "branch_id", aliases: []string{"branch"}, required: true},
		{name: "barcode"},
	}}
	loansTable = table{file: "loans.csv", columns: []column{
		{name: "loan_id", aliases: []string{"id"}, required: true},
		{name: "copy_id", required: true},
		{name: "patron_id", aliases: []string{"member_id"}, required: true},
		{name: "loan_ts", aliases: []string{"loan_date", "checkout_ts", "checked_out_at"}},
		{name: "due_ts", aliases: []string{"due_date"}},
		{name: "return_ts", aliases: []string{"return_date", "returned_at"}},
	}}
	patronsTable = table{file: "patrons.csv", columns: []column{
		{name: "patron_id", aliases: []string{"id", "member_id"}, required: true},
		{name: "first_name", aliases: []string{"firstname", "given_name"}},
		{name: "last_name", aliases: []string{"lastname", "surname"}},
		{name: "email"},
		{name: "patron_type", aliases: []string{"type", "membership_tier"}},
		{name: "balance"},
	}}
	finesTable = table{file: "fines.csv", columns: []column{
		{name: "fine_id", aliases: []string{"id"}, required: true},
		{name: "patron_id", aliases: []string{"member_id"}, required: true},
		{name: "amount", required: true},
		{name: "status"},
	}}
	subjectsTable = table{file: "subjects.csv", columns: []column{
		{name: "subject_id", aliases: []string{"id"}, required: true},
		{name: "name", aliases: []string{"subject", "subject_name"}},
	}}
	authorsTable = table{file: "authors.csv", columns: []column{
		{name: "author_id", aliases: []string{"id"}, required: true},
		{name: "first_name", aliases: []string{"firstname"}},
		{name: "last_name", aliases: []string{"lastname", "surname"}},
	}}
	branchesTable = table{file: "branches.csv", columns: []column{
		{name: "branch_id", aliases: []string{"id"}, required: true},
		{name: "name", aliases: []string{"branch_name"}},
	}}
	publishersTable = table{file: "publishers.csv", columns: []column{
		{name: "publisher_id", aliases: []string{"id"}, required: true},
		{name: "name", aliases: []string{"publisher_name"}},
	}}
	bookSubjectsTable = table{file: "book_subjects.csv", columns: []column{
		{name: "isbn", required: true},
		{name: "subject_id", required: true},
	}}
	bookAuthorsTable = table{file: "book_authors.csv", columns: []column{
		{name: "isbn", required: true},
		{name: "author_id", required: true},
	}}
)

// Store reads CSV files from Dir on every call. A missing file is an empty
// collection; rows whose key columns cannot be parsed are skipped and counted.
type Store struct {
	Dir     string
	skipped atomic.Int64
}

var _ circulation.Store = (*Store)(nil)

func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Store{Dir: dir}, nil
}

// Skipped reports how many unparseable rows have been dropped so far.
func (s *Store) Skipped() int {
	return int(s.skipped.Load())
}

func (s *Store) Books(ctx context.Context) ([]circulation.Book, error) {
	var out []circulation.Book
	err := s.scan(ctx, booksTable, func(r row) error {
		isbn := r.str("isbn")
		if isbn == "" {
			return errSkipRow
		}
		year, err := r.optionalInt("pub_year")
		if err != nil {
			return errSkipRow
		}
		publisher, err := r.optionalInt("publisher_id")
		if err != nil {
			return errSkipRow
		}
		out = append(out, circulation.Book{ISBN: isbn, Title: r.str("title"), PubYear: int(year), PublisherID: publisher})
		return nil
	})
	return out, err
}

func (s *Store) Copies(ctx context.Context) ([]circulation.Copy, error) {
	var out []circulation.Copy
	err := s.scan(ctx, copiesTable, func(r row) error {
		id, err1 := r.id("copy_id")
		branch, err2 := r.id("branch_id")
		if err := errors.Join(err1, err2); err != nil || r.str("isbn") == "" {
			return errSkipRow
		}
		out = append(out, circulation.Copy{CopyID: id, ISBN: r.str("isbn"), BranchID: branch, Barcode: r.str("barcode")})
		return nil
	})
	return out, err
}

func (s *Store) Loans(ctx context.Context) ([]circulation.Loan, error) {
	var out []circulation.Loan
	err := s.scan(ctx, loansTable, func(r row) error {
		id, err1 := r.id("loan_id")
		copyID, err2 := r.id("copy_id")
		patron, err3 := r.id("patron_id")
		loanTS, err4 := circulation.ParseOptionalDate(r.str("loan_ts"))
		dueTS, err5 := circulation.ParseOptionalDate(r.str("due_ts"))
		returnTS, err6 := circulation.ParseOptionalDate(r.str("return_ts"))
		if errors.Join(err1, err2, err3, err4, err5, err6) != nil {
			return errSkipRow
		}
		out = append(out, circulation.Loan{
			LoanID:   id,
			CopyID:   copyID,
			PatronID: patron,
			LoanTS:   loanTS,
			DueTS:    dueTS,
			ReturnTS: returnTS,
		})
		return nil
	})
	return out, err
}

func (s *Store) Patrons(ctx context.Context) ([]circulation.Patron, error) {
	var out []circulation.Patron
	err := s.scan(ctx, patronsTable, func(r row) error {
		id, err1 := r.id("patron_id")
		balance, err2 := r.optionalFloat("balance")
		if errors.Join(err1, err2) != nil {
			return errSkipRow
		}
		out = append(out, circulation.Patron{
			PatronID:   id,
			FirstName:  r.str("first_name"),
			LastName:   r.str("last_name"),
			Email:      r.str("email"),
			PatronType: r.str("patron_type"),
			Balance:    balance,
		})
		return nil
	})
	return out, err
}

func (s *Store) Fines(ctx context.Context) ([]circulation.Fine, error) {
	var out []circulation.Fine
	err := s.scan(ctx, finesTable, func(r row) error {
		id, err1 := r.id("fine_id")
		patron, err2 := r.id("patron_id")
		amount, err3 := r.optionalFloat("amount")
		if errors.Join(err1, err2, err3) != nil {
			return errSkipRow
		}
		out = append(out, circulation.Fine{FineID: id, PatronID: patron, Amount: amount, Status: r.str("status")})
		return nil
	})
	return out, err
}

func (s *Store) Subjects(ctx context.Context) ([]circulation.Subject, error) {
	var out []circulation.Subject
	err := s.scan(ctx, subjectsTable, func(r row) error {
		id, err := r.id("subject_id")
		if err != nil {
			return errSkipRow
		}
		out = append(out, circulation.Subject{SubjectID: id, Name: r.str("name")})
		return nil
	})
	return out, err
}

func (s *Store) Authors(ctx context.Context) ([]circulation.Author, error) {
	var out []circulation.Author
	err := s.scan(ctx, authorsTable, func(r row) error {
		id, err := r.id("author_id")
		if err != nil {
			return errSkipRow
		}
		out = append(out, circulation.Author{AuthorID: id, FirstName: r.str("first_name"), LastName: r.str("last_name")})
		return nil
	})
	return out, err
}

func (s *Store) Branches(ctx context.Context) ([]circulation.Branch, error) {
	var out []circulation.Branch
	err := s.scan(ctx, branchesTable, func(r row) error {
		id, err := r.id("branch_id")
		if err != nil {
			return errSkipRow
		}
		out = append(out, circulation.Branch{BranchID: id, Name: r.str("name")})
		return nil
	})
	return out, err
}

func (s *Store) Publishers(ctx context.Context) ([]circulation.Publisher, error) {
	var out []circulation.Publisher
	err := s.scan(ctx, publishersTable, func(r row) error {
		id, err := r.id("publisher_id")
		if err != nil {
			return errSkipRow
		}
		out = append(out, circulation.Publisher{PublisherID: id, Name: r.str("name")})
		return nil
	})
	return out, err
}

func (s *Store) BookSubjects(ctx context.Context) ([]circulation.BookSubject, error) {
	var out []circulation.BookSubject
	err := s.scan(ctx, bookSubjectsTable, func(r row) error {
		id, err := r.id("subject_id")
		if err != nil || r.str("isbn") == "" {
			return errSkipRow
		}
		out = append(out, circulation.BookSubject{ISBN: r.str("isbn"), SubjectID: id})
		return nil
	})
	return out, err
}

func (s *Store) BookAuthors(ctx context.Context) ([]circulation.BookAuthor, error) {
	var out []circulation.BookAuthor
	err := s.scan(ctx, bookAuthorsTable, func(r row) error {
		id, err := r.id("author_id")
		if err != nil || r.str("isbn") == "" {
			return errSkipRow
		}
		out = append(out, circulation.BookAuthor{ISBN: r.str("isbn"), AuthorID: id})
		return nil
	})
	return out, err
}

type row struct {
	record  []string
	columns map[string]int
}

func (r row) str(name string) string {
	idx, ok := r.columns[name]
	if !ok {
		return ""
	}
	return getValue(r.record, idx)
}

func (r row) id(name string) (int64, error) {
	return strconv.ParseInt(r.str(name), 10, 64)
}

func (r row) optionalInt(name string) (int64, error) {
	value := r.str(name)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func (r row) optionalFloat(name string) (float64, error) {
	value := strings.TrimPrefix(r.str(name), "$")
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

func (s *Store) scan(ctx context.Context, t table, fn func(row) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, t.file)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: unable to read header: %w", t.file, err)
	}

	colMap := normalizeHeaders(headers)
	columns := make(map[string]int, len(t.columns))
	for _, col := range t.columns {
		idx, ok := findColumn(colMap, append([]string{col.name}, col.aliases...))
		if !ok {
			if col.required {
				return fmt.Errorf("%s: missing %s column", t.file, col.name)
			}
			continue
		}
		columns[col.name] = idx
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%s: unable to read CSV: %w", t.file, err)
		}
		if len(record) == 0 {
			continue
		}
		if err := fn(row{record: record, columns: columns}); err != nil {
			if errors.Is(err, errSkipRow) {
				s.skipped.Add(1)
				continue
			}
			return err
		}
	}
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
