package borrowings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shelfwise/internal/apperr"
	"shelfwise/internal/dbx"
	"shelfwise/internal/inventory"
)

// store is the row access the state machine performs inside a transaction.
// The postgres implementation runs every call against the surrounding
// transaction handle; tests swap in an in-memory model with the same
// conditional-update semantics.
type store interface {
	BorrowerExists(ctx context.Context, tx dbx.DBTX, id int64) (bool, error)
	HasOpenLoan(ctx context.Context, tx dbx.DBTX, borrowerID, bookID int64) (bool, error)
	Reserve(ctx context.Context, tx dbx.DBTX, bookID int64) error
	Release(ctx context.Context, tx dbx.DBTX, bookID int64) error
	Insert(ctx context.Context, tx dbx.DBTX, p CreateParams, borrowDate time.Time) (int64, error)
	MarkReturned(ctx context.Context, tx dbx.DBTX, id int64, at time.Time) (bookID int64, err error)
	DeleteRow(ctx context.Context, tx dbx.DBTX, id int64) (bookID int64, wasOpen bool, err error)

	GetDetail(ctx context.Context, q dbx.DBTX, id int64) (*Borrowing, error)
	ListDetail(ctx context.Context, q dbx.DBTX, f listFilter, now time.Time) ([]Borrowing, error)
}

type pgStore struct{}

func (pgStore) BorrowerExists(ctx context.Context, tx dbx.DBTX, id int64) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM borrowers WHERE id = $1)`, id)
	if err != nil {
		return false, apperr.Storage("failed to check borrower", err)
	}
	return exists, nil
}

func (pgStore) HasOpenLoan(ctx context.Context, tx dbx.DBTX, borrowerID, bookID int64) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM borrowings
			WHERE borrower_id = $1 AND book_id = $2 AND return_date IS NULL
		)
	`, borrowerID, bookID)
	if err != nil {
		return false, apperr.Storage("failed to check open borrowings", err)
	}
	return exists, nil
}

func (pgStore) Reserve(ctx context.Context, tx dbx.DBTX, bookID int64) error {
	return inventory.Reserve(ctx, tx, bookID)
}

func (pgStore) Release(ctx context.Context, tx dbx.DBTX, bookID int64) error {
	return inventory.Release(ctx, tx, bookID)
}

func (pgStore) Insert(ctx context.Context, tx dbx.DBTX, p CreateParams, borrowDate time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO borrowings (borrower_id, book_id, borrow_date, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.BorrowerID, p.BookID, borrowDate, p.DueDate).Scan(&id)
	if err != nil {
		// The partial unique index on (borrower_id, book_id) for open rows
		// closes the check-then-insert race between concurrent requests.
		if apperr.IsUniqueViolation(err) {
			return 0, apperr.ErrDuplicateActiveLoan
		}
		return 0, apperr.FromPostgres(err, "failed to create borrowing")
	}
	return id, nil
}

// MarkReturned is the open -> returned transition as one conditional update,
// so a concurrent return of the same borrowing cannot release twice.
func (pgStore) MarkReturned(ctx context.Context, tx dbx.DBTX, id int64, at time.Time) (int64, error) {
	var bookID int64
	err := tx.QueryRowContext(ctx, `
		UPDATE borrowings
		SET return_date = $2, updated_at = NOW()
		WHERE id = $1 AND return_date IS NULL
		RETURNING book_id
	`, id, at).Scan(&bookID)
	if err == nil {
		return bookID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.Storage("failed to return borrowing", err)
	}

	// No row transitioned: either the borrowing is gone or already returned.
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM borrowings WHERE id = $1)`, id); err != nil {
		return 0, apperr.Storage("failed to return borrowing", err)
	}
	if !exists {
		return 0, apperr.NotFound("borrowing record not found")
	}
	return 0, apperr.ErrAlreadyReturned
}

func (pgStore) DeleteRow(ctx context.Context, tx dbx.DBTX, id int64) (int64, bool, error) {
	var (
		bookID     int64
		returnDate sql.NullTime
	)
	err := tx.QueryRowContext(ctx, `
		DELETE FROM borrowings WHERE id = $1
		RETURNING book_id, return_date
	`, id).Scan(&bookID, &returnDate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, apperr.NotFound("borrowing record not found")
	}
	if err != nil {
		return 0, false, apperr.Storage("failed to delete borrowing", err)
	}
	return bookID, !returnDate.Valid, nil
}

const detailColumns = `
	br.id, br.borrower_id, br.book_id, br.borrow_date, br.due_date, br.return_date,
	b.title AS book_title, b.author AS book_author, b.isbn,
	bo.name AS borrower_name, bo.email AS borrower_email`

const detailJoin = `
	FROM borrowings br
	JOIN books b ON br.book_id = b.id
	JOIN borrowers bo ON br.borrower_id = bo.id`

func (pgStore) GetDetail(ctx context.Context, q dbx.DBTX, id int64) (*Borrowing, error) {
	var b Borrowing
	err := q.GetContext(ctx, &b, `SELECT `+detailColumns+detailJoin+` WHERE br.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("borrowing record not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch borrowing", err)
	}
	return &b, nil
}

func (pgStore) ListDetail(ctx context.Context, q dbx.DBTX, f listFilter, now time.Time) ([]Borrowing, error) {
	var (
		out []Borrowing
		err error
	)
	switch f {
	case filterActive:
		err = q.SelectContext(ctx, &out, `
			SELECT `+detailColumns+detailJoin+`
			WHERE br.return_date IS NULL
			ORDER BY br.due_date ASC`)
	case filterOverdue:
		err = q.SelectContext(ctx, &out, `
			SELECT `+detailColumns+detailJoin+`
			WHERE br.return_date IS NULL AND br.due_date < $1
			ORDER BY br.due_date ASC`, now)
	default:
		err = q.SelectContext(ctx, &out, `
			SELECT `+detailColumns+detailJoin+`
			ORDER BY br.borrow_date DESC`)
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch borrowings", err)
	}
	return out, nil
}
