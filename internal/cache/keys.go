package cache

import (
	"fmt"
	"net/url"
	"time"
)

// Cache keys live in one place so they do not drift apart across services.
// Keys are deterministic functions of the query shape, so distinct filters
// never collide.

const (
	PrefixBook      = "book:"
	PrefixBorrower  = "borrower:"
	PrefixBorrowing = "borrowing:"
)

// TTLs holds the per-entity-class lifetimes, reflecting how volatile each
// entity is. Overdue status is time-sensitive and gets the shortest window.
type TTLs struct {
	Books      time.Duration
	Borrowers  time.Duration
	Borrowings time.Duration
	Overdue    time.Duration
}

// DefaultTTLs returns the stock lifetimes: books 5m, borrowers 10m,
// borrowing lists 2m, overdue listing 1m.
func DefaultTTLs() TTLs {
	return TTLs{
		Books:      5 * time.Minute,
		Borrowers:  10 * time.Minute,
		Borrowings: 2 * time.Minute,
		Overdue:    time.Minute,
	}
}

func BookKey(id int64) string { return fmt.Sprintf("%sid:%d", PrefixBook, id) }

// BookListKey encodes the list query shape: free-text search and the
// availability filter.
func BookListKey(search string, availableOnly bool) string {
	switch {
	case search != "":
		return PrefixBook + "list:search:" + url.QueryEscape(search)
	case availableOnly:
		return PrefixBook + "list:available"
	default:
		return PrefixBook + "list:all"
	}
}

func BorrowerKey(id int64) string { return fmt.Sprintf("%sid:%d", PrefixBorrower, id) }

func BorrowerListKey(search string) string {
	if search != "" {
		return PrefixBorrower + "list:search:" + url.QueryEscape(search)
	}
	return PrefixBorrower + "list:all"
}

// BorrowingHistoryKey keys a borrower's borrowing history. It lives under
// the borrowing namespace because its contents change with borrowing
// mutations, which invalidate "borrowing:" rather than "borrower:".
func BorrowingHistoryKey(borrowerID int64) string {
	return fmt.Sprintf("%shistory:%d", PrefixBorrowing, borrowerID)
}

func BorrowingKey(id int64) string { return fmt.Sprintf("%sid:%d", PrefixBorrowing, id) }

// BorrowingListKey encodes the status filter ("", "active" or "overdue").
func BorrowingListKey(status string) string {
	if status == "" {
		status = "all"
	}
	return PrefixBorrowing + "list:" + status
}
