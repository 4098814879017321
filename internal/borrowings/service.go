package borrowings

import (
	"context"
	"time"
)

// Service is the borrowing state machine: the only writer allowed to move a
// borrowing through its lifecycle and, through the inventory ledger, the
// only path that adjusts book availability.
type Service interface {
	Create(ctx context.Context, p CreateParams) (*Borrowing, error)
	Return(ctx context.Context, id int64, returnDate *time.Time) (*Borrowing, error)
	Delete(ctx context.Context, id int64) error

	Get(ctx context.Context, id int64) (*Borrowing, error)
	List(ctx context.Context) ([]Borrowing, error)
	ListActive(ctx context.Context) ([]Borrowing, error)
	ListOverdue(ctx context.Context) ([]Borrowing, error)
}
