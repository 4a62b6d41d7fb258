// Package sqlstore reads circulation snapshots from a relational database.
// SQLite (modernc.org/sqlite) and Postgres (pgx) are supported through
// database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register the pure-Go sqlite driver

	"circulation-analytics/internal/circulation"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store serves the circulation tables of one database. Snapshot reads every
// collection inside a single read transaction.
type Store struct {
	db     *sql.DB
	q      querier
	driver string
	schema string
}

var (
	_ circulation.Store       = (*Store)(nil)
	_ circulation.Snapshotter = (*Store)(nil)
)

// Open recognizes sqlite://path, sqlite:path and postgres:// (or postgresql://) sources.
func Open(ctx context.Context, source string, schema string) (*Store, error) {
	driver, dsn, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, driver, schema)
}

// New wraps an already opened database. schema qualifies table names and is
// only honored for Postgres.
func New(db *sql.DB, driver string, schema string) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}
	switch driver {
	case DriverSQLite:
		schema = ""
	case DriverPostgres:
		schema = strings.TrimSpace(schema)
		if schema != "" && !schemaPattern.MatchString(schema) {
			return nil, fmt.Errorf("invalid schema name: %s", schema)
		}
	default:
		return nil, fmt.Errorf("%w: driver %q", circulation.ErrUnknownSource, driver)
	}
	return &Store{db: db, q: db, driver: driver, schema: schema}, nil
}

func parseSource(source string) (string, string, error) {
	source = strings.TrimSpace(source)
	switch {
	case strings.HasPrefix(source, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(source, "sqlite://"), nil
	case strings.HasPrefix(source, "sqlite:"):
		return DriverSQLite, strings.TrimPrefix(source, "sqlite:"), nil
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		return DriverPostgres, source, nil
	default:
		return "", "", fmt.Errorf("%w: %q", circulation.ErrUnknownSource, source)
	}
}

// IsSQLSource reports whether source names a database this package can open.
func IsSQLSource(source string) bool {
	_, _, err := parseSource(source)
	return err == nil
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot loads every collection from one read transaction, so the report
// sees a single consistent state of the source.
func (s *Store) Snapshot(ctx context.Context) (*circulation.Snapshot, error) {
	opts := &sql.TxOptions{}
	if s.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	view := &Store{db: s.db, q: tx, driver: s.driver, schema: s.schema}
	return circulation.Load(ctx, readOnly{view})
}

// readOnly hides Snapshot so Load reads the transaction view directly.
type readOnly struct {
	circulation.Store
}

func (s *Store) table(name string) string {
	if s.schema == "" {
		return name
	}
	return s.schema + "." + name
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func queryAll[T any](ctx context.Context, s *Store, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) Books(ctx context.Context) ([]circulation.Book, error) {
	query := fmt.Sprintf(`SELECT isbn, title, pub_year, publisher_id FROM %s ORDER BY isbn`, s.table("books"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Book, error) {
		var b circulation.Book
		var title sql.NullString
		var year, publisher sql.NullInt64
		err := rows.Scan(&b.ISBN, &title, &year, &publisher)
		b.Title = title.String
		b.PubYear = int(year.Int64)
		b.PublisherID = publisher.Int64
		return b, err
	})
}

func (s *Store) Copies(ctx context.Context) ([]circulation.Copy, error) {
	query := fmt.Sprintf(`SELECT copy_id, isbn, branch_id, barcode FROM %s ORDER BY copy_id`, s.table("copies"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Copy, error) {
		var c circulation.Copy
		var barcode sql.NullString
		err := rows.Scan(&c.CopyID, &c.ISBN, &c.BranchID, &barcode)
		c.Barcode = barcode.String
		return c, err
	})
}

func (s *Store) Loans(ctx context.Context) ([]circulation.Loan, error) {
	query := fmt.Sprintf(`SELECT loan_id, copy_id, patron_id, loan_ts, due_ts, return_ts FROM %s ORDER BY loan_id`, s.table("loans"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Loan, error) {
		var l circulation.Loan
		var loanTS, dueTS, returnTS sql.NullString
		if err := rows.Scan(&l.LoanID, &l.CopyID, &l.PatronID, &loanTS, &dueTS, &returnTS); err != nil {
			return l, err
		}
		var err error
		if l.LoanTS, err = circulation.ParseOptionalDate(loanTS.String); err != nil {
			return l, fmt.Errorf("loan %d loan_ts: %w", l.LoanID, err)
		}
		if l.DueTS, err = circulation.ParseOptionalDate(dueTS.String); err != nil {
			return l, fmt.Errorf("loan %d due_ts: %w", l.LoanID, err)
		}
		if l.ReturnTS, err = circulation.ParseOptionalDate(returnTS.String); err != nil {
			return l, fmt.Errorf("loan %d return_ts: %w", l.LoanID, err)
		}
		return l, nil
	})
}

func (s *Store) Patrons(ctx context.Context) ([]circulation.Patron, error) {
	query := fmt.Sprintf(`SELECT patron_id, first_name, last_name, email, patron_type, balance FROM %s ORDER BY patron_id`, s.table("patrons"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Patron, error) {
		var p circulation.Patron
		var first, last, email, patronType sql.NullString
		var balance sql.NullFloat64
		err := rows.Scan(&p.PatronID, &first, &last, &email, &patronType, &balance)
		p.FirstName = first.String
		p.LastName = last.String
		p.Email = email.String
		p.PatronType = patronType.String
		p.Balance = balance.Float64
		return p, err
	})
}

func (s *Store) Fines(ctx context.Context) ([]circulation.Fine, error) {
	query := fmt.Sprintf(`SELECT fine_id, patron_id, amount, status FROM %s ORDER BY fine_id`, s.table("fines"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Fine, error) {
		var f circulation.Fine
		var amount sql.NullFloat64
		var status sql.NullString
		err := rows.Scan(&f.FineID, &f.PatronID, &amount, &status)
		f.Amount = amount.Float64
		f.Status = status.String
		return f, err
	})
}

func (s *Store) Subjects(ctx context.Context) ([]circulation.Subject, error) {
	query := fmt.Sprintf(`SELECT subject_id, name FROM %s ORDER BY subject_id`, s.table("subjects"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Subject, error) {
		var sub circulation.Subject
		var name sql.NullString
		err := rows.Scan(&sub.SubjectID, &name)
		sub.Name = name.String
		return sub, err
	})
}

func (s *Store) Authors(ctx context.Context) ([]circulation.Author, error) {
	query := fmt.Sprintf(`SELECT author_id, first_name, last_name FROM %s ORDER BY author_id`, s.table("authors"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Author, error) {
		var a circulation.Author
		var first, last sql.NullString
		err := rows.Scan(&a.AuthorID, &first, &last)
		a.FirstName = first.String
		a.LastName = last.String
		return a, err
	})
}

func (s *Store) Branches(ctx context.Context) ([]circulation.Branch, error) {
	query := fmt.Sprintf(`SELECT branch_id, name FROM %s ORDER BY branch_id`, s.table("branches"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Branch, error) {
		var b circulation.Branch
		var name sql.NullString
		err := rows.Scan(&b.BranchID, &name)
		b.Name = name.String
		return b, err
	})
}

func (s *Store) Publishers(ctx context.Context) ([]circulation.Publisher, error) {
	query := fmt.Sprintf(`SELECT publisher_id, name FROM %s ORDER BY publisher_id`, s.table("publishers"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.Publisher, error) {
		var p circulation.Publisher
		var name sql.NullString
		err := rows.Scan(&p.PublisherID, &name)
		p.Name = name.String
		return p, err
	})
}

func (s *Store) BookSubjects(ctx context.Context) ([]circulation.BookSubject, error) {
	query := fmt.Sprintf(`SELECT isbn, subject_id FROM %s ORDER BY isbn, subject_id`, s.table("book_subjects"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.BookSubject, error) {
		var link circulation.BookSubject
		err := rows.Scan(&link.ISBN, &link.SubjectID)
		return link, err
	})
}

func (s *Store) BookAuthors(ctx context.Context) ([]circulation.BookAuthor, error) {
	query := fmt.Sprintf(`SELECT isbn, author_id FROM %s ORDER BY isbn, author_id`, s.table("book_authors"))
	return queryAll(ctx, s, query, func(rows *sql.Rows) (circulation.BookAuthor, error) {
		var link circulation.BookAuthor
		err := rows.Scan(&link.ISBN, &link.AuthorID)
		return link, err
	})
}
