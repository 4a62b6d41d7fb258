package analytics

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidParameter rejects a report request before any computation runs.
var ErrInvalidParameter = errors.New("invalid report parameter")

const maxSearchLength = 256

// StatusFilter narrows the loan segment view.
type StatusFilter string

const (
	StatusAll      StatusFilter = "ALL"
	StatusCurrent  StatusFilter = "CURRENT"
	StatusOverdue  StatusFilter = "OVERDUE"
	StatusReturned StatusFilter = "RETURNED"
)

// ParseStatusFilter is case-insensitive; an empty value means ALL.
func ParseStatusFilter(value string) (StatusFilter, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return StatusAll, nil
	}
	filter := StatusFilter(value)
	if err := filter.Validate(); err != nil {
		return "", err
	}
	return filter, nil
}

// Validate accepts the four filters; the empty filter means ALL.
func (f StatusFilter) Validate() error {
	switch f {
	case "", StatusAll, StatusCurrent, StatusOverdue, StatusReturned:
		return nil
	default:
		return fmt.Errorf("%w: status filter %q (want ALL, CURRENT, OVERDUE or RETURNED)", ErrInvalidParameter, string(f))
	}
}

func validateSearch(search string) error {
	if len(search) > maxSearchLength {
		return fmt.Errorf("%w: search text longer than %d bytes", ErrInvalidParameter, maxSearchLength)
	}
	if !utf8.ValidString(search) {
		return fmt.Errorf("%w: search text is not valid UTF-8", ErrInvalidParameter)
	}
	for _, r := range search {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: search text contains control characters", ErrInvalidParameter)
		}
	}
	return nil
}
