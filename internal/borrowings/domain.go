package borrowings

import "time"

// Borrowing is a single loan record joined with its book and borrower
// summaries. A nil ReturnDate means the borrowing is open; setting it is the
// terminal transition.
type Borrowing struct {
	ID            int64      `db:"id" json:"id"`
	BorrowerID    int64      `db:"borrower_id" json:"borrower_id"`
	BookID        int64      `db:"book_id" json:"book_id"`
	BorrowDate    time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate       time.Time  `db:"due_date" json:"due_date"`
	ReturnDate    *time.Time `db:"return_date" json:"return_date"`
	BookTitle     string     `db:"book_title" json:"book_title"`
	BookAuthor    string     `db:"book_author" json:"book_author"`
	ISBN          string     `db:"isbn" json:"isbn"`
	BorrowerName  string     `db:"borrower_name" json:"borrower_name"`
	BorrowerEmail string     `db:"borrower_email" json:"borrower_email"`

	// DaysOverdue is computed at request time for the overdue listing.
	DaysOverdue int `db:"-" json:"days_overdue,omitempty"`
}

// Open reports whether the borrowing has not been returned yet.
func (b *Borrowing) Open() bool { return b.ReturnDate == nil }

// CreateParams holds the pre-validated fields for a new borrowing.
// BorrowDate defaults to the request-processing instant when nil.
type CreateParams struct {
	BorrowerID int64
	BookID     int64
	BorrowDate *time.Time
	DueDate    time.Time
}

// listFilter selects which projection a list query returns.
type listFilter int

const (
	filterAll listFilter = iota
	filterActive
	filterOverdue
)
