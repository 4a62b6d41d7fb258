package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"circulation-analytics/internal/circulation"
)

// CatalogParams narrows the catalog search. An empty Search and a nil
// SubjectID both mean "no filter"; whitespace is matched literally.
type CatalogParams struct {
	Search    string
	SubjectID *int64
}

func (p CatalogParams) Validate() error {
	if err := validateSearch(p.Search); err != nil {
		return err
	}
	if p.SubjectID != nil && *p.SubjectID <= 0 {
		return fmt.Errorf("%w: subject id must be positive, got %d", ErrInvalidParameter, *p.SubjectID)
	}
	return nil
}

type CatalogRow struct {
	ISBN                  string  `json:"isbn"`
	Title                 string  `json:"title"`
	PubYear               int     `json:"pub_year"`
	Publisher             string  `json:"publisher"`
	Authors               string  `json:"authors"`
	Subjects              string  `json:"subjects"`
	TimesLoaned           int     `json:"times_loaned"`
	TotalCopies           int     `json:"total_copies"`
	AvailableCopies       int     `json:"available_copies"`
	PrimarySubjectID      *int64  `json:"primary_subject_id"`
	PrimarySubject        *string `json:"primary_subject"`
	SubjectPopularityRank int     `json:"subject_popularity_rank"`
}

type CatalogReport struct {
	AsOf        string       `json:"as_of"`
	Search      string       `json:"search,omitempty"`
	SubjectID   *int64       `json:"subject_id,omitempty"`
	Rows        []CatalogRow `json:"rows"`
	InvalidRows int          `json:"invalid_rows"`
}

type subjectKey struct {
	id    int64
	valid bool
}

// BuildCatalog describes every book with its circulation figures and ranks it
// by popularity among books sharing its primary subject. The rank is computed
// over the whole catalog, then the search and subject filters apply.
func BuildCatalog(snap *circulation.Snapshot, period Period, params CatalogParams) (CatalogReport, error) {
	if err := params.Validate(); err != nil {
		return CatalogReport{}, err
	}
	idx := newIndex(snap)

	subjectLinks := GroupBy(idx.bookSubjects, func(l circulation.BookSubject) string { return l.ISBN })
	authorLinks := GroupBy(idx.bookAuthors, func(l circulation.BookAuthor) string { return l.ISBN })

	rows := make([]CatalogRow, 0, len(idx.books))
	keys := make([]subjectKey, 0, len(idx.books))
	for _, book := range idx.books {
		row := CatalogRow{
			ISBN:      book.ISBN,
			Title:     book.Title,
			PubYear:   book.PubYear,
			Publisher: idx.publishers[book.PublisherID].Name,
			Authors:   joinAuthors(idx, authorLinks[book.ISBN]),
			Subjects:  joinSubjects(idx, subjectLinks[book.ISBN]),
		}

		copies := idx.copiesByISBN[book.ISBN]
		row.TotalCopies = CountDistinct(copies, func(c circulation.Copy) int64 { return c.CopyID })
		for _, c := range copies {
			loans := idx.loansByCopy[c.CopyID]
			row.TimesLoaned += len(loans)
			if ConditionalCount(loans, circulation.Loan.Current) == 0 {
				row.AvailableCopies++
			}
		}

		key := primarySubject(subjectLinks[book.ISBN])
		if key.valid {
			id := key.id
			name := idx.subjects[id].Name
			row.PrimarySubjectID = &id
			row.PrimarySubject = &name
		}
		rows = append(rows, row)
		keys = append(keys, key)
	}

	ranks := PartitionRank(indexesOf(rows), func(i int) subjectKey { return keys[i] }, func(i int) float64 {
		return float64(rows[i].TimesLoaned)
	})
	for i := range rows {
		rows[i].SubjectPopularityRank = ranks[i]
	}

	search := strings.ToLower(params.Search)
	filtered := rows[:0]
	for _, row := range rows {
		if search != "" && !strings.Contains(strings.ToLower(row.Title), search) && !strings.Contains(strings.ToLower(row.ISBN), search) {
			continue
		}
		if params.SubjectID != nil && (row.PrimarySubjectID == nil || *row.PrimarySubjectID != *params.SubjectID) {
			continue
		}
		filtered = append(filtered, row)
	}

	slices.SortFunc(filtered, func(a, b CatalogRow) int {
		if c := cmp.Compare(b.TimesLoaned, a.TimesLoaned); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ISBN, b.ISBN)
	})

	return CatalogReport{
		AsOf:        circulation.FormatDate(period.Today),
		Search:      params.Search,
		SubjectID:   params.SubjectID,
		Rows:        filtered,
		InvalidRows: idx.invalid,
	}, nil
}

// primarySubject picks the smallest subject id linked to the book.
func primarySubject(links []circulation.BookSubject) subjectKey {
	var key subjectKey
	for _, link := range links {
		if !key.valid || link.SubjectID < key.id {
			key = subjectKey{id: link.SubjectID, valid: true}
		}
	}
	return key
}

func joinAuthors(idx *index, links []circulation.BookAuthor) string {
	seen := make(map[string]struct{}, len(links))
	authors := make([]circulation.Author, 0, len(links))
	for _, link := range links {
		author := idx.authors[link.AuthorID]
		name := author.FullName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		authors = append(authors, author)
	}
	slices.SortFunc(authors, func(a, b circulation.Author) int {
		if c := cmp.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		return cmp.Compare(a.FirstName, b.FirstName)
	})
	names := make([]string, len(authors))
	for i, author := range authors {
		names[i] = author.FullName()
	}
	return strings.Join(names, ", ")
}

func joinSubjects(idx *index, links []circulation.BookSubject) string {
	seen := make(map[string]struct{}, len(links))
	names := make([]string, 0, len(links))
	for _, link := range links {
		name := idx.subjects[link.SubjectID].Name
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func indexesOf[T any](items []T) []int {
	out := make([]int, len(items))
	for i := range items {
		out[i] = i
	}
	return out
}
