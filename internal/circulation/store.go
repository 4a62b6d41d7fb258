package circulation

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownSource is returned when a source location names no supported backend.
var ErrUnknownSource = errors.New("unknown circulation source")

// Store is the read-only bulk enumeration contract over the source system.
// Each accessor returns the full collection; implementations are expected to
// serve all calls made by one Load from a consistent view.
type Store interface {
	Books(ctx context.Context) ([]Book, error)
	Copies(ctx context.Context) ([]Copy, error)
	Loans(ctx context.Context) ([]Loan, error)
	Patrons(ctx context.Context) ([]Patron, error)
	Fines(ctx context.Context) ([]Fine, error)
	Subjects(ctx context.Context) ([]Subject, error)
	Authors(ctx context.Context) ([]Author, error)
	Branches(ctx context.Context) ([]Branch, error)
	Publishers(ctx context.Context) ([]Publisher, error)
	BookSubjects(ctx context.Context) ([]BookSubject, error)
	BookAuthors(ctx context.Context) ([]BookAuthor, error)
}

// Snapshot is one immutable read of every collection.
type Snapshot struct {
	Books        []Book
	Copies       []Copy
	Loans        []Loan
	Patrons      []Patron
	Fines        []Fine
	Subjects     []Subject
	Authors      []Author
	Branches     []Branch
	Publishers   []Publisher
	BookSubjects []BookSubject
	BookAuthors  []BookAuthor
}

// Snapshotter is implemented by stores that can read every collection from
// one transaction. Load prefers it over the per-collection accessors.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

var _ Store = memoryStore{}

// Load reads every collection from store. A failure on any collection fails
// the whole load; no partial snapshot is returned.
func Load(ctx context.Context, store Store) (*Snapshot, error) {
	if store == nil {
		return nil, errors.New("circulation store is nil")
	}
	if s, ok := store.(Snapshotter); ok {
		return s.Snapshot(ctx)
	}
	snap := &Snapshot{}
	var err error
	if snap.Books, err = store.Books(ctx); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	if snap.Copies, err = store.Copies(ctx); err != nil {
		return nil, fmt.Errorf("load copies: %w", err)
	}
	if snap.Loans, err = store.Loans(ctx); err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	if snap.Patrons, err = store.Patrons(ctx); err != nil {
		return nil, fmt.Errorf("load patrons: %w", err)
	}
	if snap.Fines, err = store.Fines(ctx); err != nil {
		return nil, fmt.Errorf("load fines: %w", err)
	}
	if snap.Subjects, err = store.Subjects(ctx); err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	if snap.Authors, err = store.Authors(ctx); err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	if snap.Branches, err = store.Branches(ctx); err != nil {
		return nil, fmt.Errorf("load branches: %w", err)
	}
	if snap.Publishers, err = store.Publishers(ctx); err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if snap.BookSubjects, err = store.BookSubjects(ctx); err != nil {
		return nil, fmt.Errorf("load book subjects: %w", err)
	}
	if snap.BookAuthors, err = store.BookAuthors(ctx); err != nil {
		return nil, fmt.Errorf("load book authors: %w", err)
	}
	return snap, nil
}

// memoryStore serves an already loaded snapshot through the Store contract.
type memoryStore struct {
	snap *Snapshot
}

// NewMemoryStore lets a snapshot stand in for a live source. The snapshot's
// slices are copied on every read.
func NewMemoryStore(snap *Snapshot) Store {
	if snap == nil {
		snap = &Snapshot{}
	}
	return memoryStore{snap: snap}
}

func (m memoryStore) Books(ctx context.Context) ([]Book, error) {
	return cloneSlice(ctx, m.snap.Books)
}

func (m memoryStore) Copies(ctx context.Context) ([]Copy, error) {
	return cloneSlice(ctx, m.snap.Copies)
}

func (m memoryStore) Loans(ctx context.Context) ([]Loan, error) {
	return cloneSlice(ctx, m.snap.Loans)
}

func (m memoryStore) Patrons(ctx context.Context) ([]Patron, error) {
	return cloneSlice(ctx, m.snap.Patrons)
}

func (m memoryStore) Fines(ctx context.Context) ([]Fine, error) {
	return cloneSlice(ctx, m.snap.Fines)
}

func (m memoryStore) Subjects(ctx context.Context) ([]Subject, error) {
	return cloneSlice(ctx, m.snap.Subjects)
}

func (m memoryStore) Authors(ctx context.Context) ([]Author, error) {
	return cloneSlice(ctx, m.snap.Authors)
}

func (m memoryStore) Branches(ctx context.Context) ([]Branch, error) {
	return cloneSlice(ctx, m.snap.Branches)
}

func (m memoryStore) Publishers(ctx context.Context) ([]Publisher, error) {
	return cloneSlice(ctx, m.snap.Publishers)
}

func (m memoryStore) BookSubjects(ctx context.Context) ([]BookSubject, error) {
	return cloneSlice(ctx, m.snap.BookSubjects)
}

func (m memoryStore) BookAuthors(ctx context.Context) ([]BookAuthor, error) {
	return cloneSlice(ctx, m.snap.BookAuthors)
}

func cloneSlice[T any](ctx context.Context, values []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]T(nil), values...), nil
}
