package borrowers

import "time"

// Borrower is a registered library member. Its lifecycle is independent of
// borrowings except that deletion is blocked while open borrowings exist.
type Borrower struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HistoryEntry is one row of a borrower's borrowing history, joined with the
// book summary.
type HistoryEntry struct {
	ID         int64      `db:"id" json:"id"`
	BorrowDate time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date"`
	Title      string     `db:"title" json:"title"`
	Author     string     `db:"author" json:"author"`
	ISBN       string     `db:"isbn" json:"isbn"`
}

type CreateParams struct {
	Name  string
	Email string
	Phone *string
}

// UpdateParams is a partial update: nil means "leave unchanged".
type UpdateParams struct {
	Name  *string
	Email *string
	Phone *string
}

func (p UpdateParams) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}
