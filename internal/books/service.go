package books

import "context"

// Service defines the interface for the book catalog.
type Service interface {
	List(ctx context.Context, f ListFilter) ([]Book, error)
	Get(ctx context.Context, id int64) (*Book, error)
	Create(ctx context.Context, p CreateParams) (*Book, error)
	Update(ctx context.Context, id int64, p UpdateParams) (*Book, error)
	Delete(ctx context.Context, id int64) error
}
