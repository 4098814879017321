// Package inventory owns the book copy-count bookkeeping. It is the only
// code allowed to mutate available_quantity, and every mutation is a single
// guarded UPDATE so concurrent requests cannot lose updates: the check and
// the write are one atomic statement, never a read-then-write pair.
//
// All functions take a dbx.DBTX so they run inside the transaction of the
// borrowing operation that triggered them.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shelfwise/internal/apperr"
	"shelfwise/internal/dbx"
)

// Reserve decrements available_quantity by one iff a copy is available.
// Returns ErrOutOfStock when no copies remain, NotFound when the book is
// absent.
func Reserve(ctx context.Context, tx dbx.DBTX, bookID int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_quantity = available_quantity - 1, updated_at = NOW()
		WHERE id = $1 AND available_quantity > 0
	`, bookID)
	if err != nil {
		return apperr.Storage("failed to reserve book copy", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("failed to reserve book copy", err)
	}
	if n == 1 {
		return nil
	}

	// No row matched: distinguish a missing book from an empty shelf.
	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1`, bookID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("book not found")
	}
	if err != nil {
		return apperr.Storage("failed to reserve book copy", err)
	}
	return apperr.ErrOutOfStock
}

// Release increments available_quantity by one. Releasing past the total
// copy count means the borrowing lifecycle double-counted somewhere; that is
// surfaced as an error instead of being clamped away.
func Release(ctx context.Context, tx dbx.DBTX, bookID int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_quantity = available_quantity + 1, updated_at = NOW()
		WHERE id = $1 AND available_quantity < quantity
	`, bookID)
	if err != nil {
		return apperr.Storage("failed to release book copy", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("failed to release book copy", err)
	}
	if n == 1 {
		return nil
	}

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1`, bookID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("book not found")
	}
	if err != nil {
		return apperr.Storage("failed to release book copy", err)
	}
	return apperr.Storage("release would exceed total copies",
		fmt.Errorf("book %d already has all copies available", bookID))
}

// AdjustTotal sets a new total copy count and re-derives availability from
// the number currently borrowed: available = max(0, newTotal - borrowed).
// The recomputation reads the old counts inside the same statement, so it is
// atomic with respect to concurrent reserves and releases.
func AdjustTotal(ctx context.Context, tx dbx.DBTX, bookID int64, newTotal int) error {
	if newTotal < 0 {
		return apperr.Invalid("total quantity cannot be negative")
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET quantity = $2,
		    available_quantity = GREATEST(0, $2 - (quantity - available_quantity)),
		    updated_at = NOW()
		WHERE id = $1
	`, bookID, newTotal)
	if err != nil {
		return apperr.Storage("failed to adjust book quantity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("failed to adjust book quantity", err)
	}
	if n == 0 {
		return apperr.NotFound("book not found")
	}
	return nil
}
