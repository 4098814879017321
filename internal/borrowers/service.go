package borrowers

import "context"

// Service defines the interface for borrower management.
type Service interface {
	List(ctx context.Context, search string) ([]Borrower, error)
	Get(ctx context.Context, id int64) (*Borrower, error)
	Create(ctx context.Context, p CreateParams) (*Borrower, error)
	Update(ctx context.Context, id int64, p UpdateParams) (*Borrower, error)
	Delete(ctx context.Context, id int64) error
	History(ctx context.Context, id int64) ([]HistoryEntry, error)
}
