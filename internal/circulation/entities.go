// Package circulation defines the library entities the analytics reports read
// and the bulk-read contract a source must satisfy to supply them.
package circulation

import (
	"strings"
	"time"
)

const (
	FineStatusPaid   = "Paid"
	FineStatusUnpaid = "Unpaid"
)

const (
	PatronStudent = "Student"
	PatronFaculty = "Faculty"
	PatronStaff   = "Staff"
	PatronAlumni  = "Alumni"
)

type Book struct {
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	PubYear     int    `json:"pub_year"`
	PublisherID int64  `json:"publisher_id"`
}

type Copy struct {
	CopyID   int64  `json:"copy_id"`
	ISBN     string `json:"isbn"`
	BranchID int64  `json:"branch_id"`
	Barcode  string `json:"barcode"`
}

// Loan timestamps use the zero time for null. A zero ReturnTS means the copy
// is still out.
type Loan struct {
	LoanID   int64     `json:"loan_id"`
	CopyID   int64     `json:"copy_id"`
	PatronID int64     `json:"patron_id"`
	LoanTS   time.Time `json:"loan_ts"`
	DueTS    time.Time `json:"due_ts"`
	ReturnTS time.Time `json:"return_ts"`
}

// Current reports whether the loan has not been returned.
func (l Loan) Current() bool {
	return l.ReturnTS.IsZero()
}

// Overdue reports whether the loan is still out and its due date precedes
// today. Both sides are compared as calendar dates, like DaysBetween.
func (l Loan) Overdue(today time.Time) bool {
	return l.Current() && !l.DueTS.IsZero() && DateOnly(l.DueTS).Before(DateOnly(today))
}

// ReturnedLate reports whether the loan came back after its due timestamp.
func (l Loan) ReturnedLate() bool {
	return !l.Current() && !l.DueTS.IsZero() && l.ReturnTS.After(l.DueTS)
}

type Patron struct {
	PatronID   int64   `json:"patron_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	PatronType string  `json:"patron_type"`
	Balance    float64 `json:"balance"`
}

// FullName joins first and last name, skipping empty parts.
func (p Patron) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

type Fine struct {
	FineID   int64   `json:"fine_id"`
	PatronID int64   `json:"patron_id"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// Unpaid matches the status case-insensitively.
func (f Fine) Unpaid() bool {
	return strings.EqualFold(strings.TrimSpace(f.Status), FineStatusUnpaid)
}

type Subject struct {
	SubjectID int64  `json:"subject_id"`
	Name      string `json:"name"`
}

type Author struct {
	AuthorID  int64  `json:"author_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (a Author) FullName() string {
	return joinName(a.FirstName, a.LastName)
}

type Branch struct {
	BranchID int64  `json:"branch_id"`
	Name     string `json:"name"`
}

type Publisher struct {
	PublisherID int64  `json:"publisher_id"`
	Name        string `json:"name"`
}

type BookSubject struct {
	ISBN      string `json:"isbn"`
	SubjectID int64  `json:"subject_id"`
}

type BookAuthor struct {
	ISBN     string `json:"isbn"`
	AuthorID int64  `json:"author_id"`
}

func joinName(first string, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
