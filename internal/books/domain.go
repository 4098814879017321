package books

import "time"

// Book is a catalog entry with its copy counts. available_quantity is only
// ever written by the inventory ledger; 0 <= available_quantity <= quantity
// holds at all times.
type Book struct {
	ID                int64     `db:"id" json:"id"`
	Title             string    `db:"title" json:"title"`
	Author            string    `db:"author" json:"author"`
	ISBN              string    `db:"isbn" json:"isbn"`
	Quantity          int       `db:"quantity" json:"quantity"`
	AvailableQuantity int       `db:"available_quantity" json:"available_quantity"`
	ShelfLocation     *string   `db:"shelf_location" json:"shelf_location,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CreateParams holds the pre-validated fields for a new book. Availability
// starts equal to the total quantity.
type CreateParams struct {
	Title         string
	Author        string
	ISBN          string
	Quantity      int
	ShelfLocation *string
}

// UpdateParams is a partial update: nil means "leave unchanged". A quantity
// change goes through the ledger so availability is re-derived from the
// borrowed count; available_quantity is never caller-settable.
type UpdateParams struct {
	Title         *string
	Author        *string
	ISBN          *string
	Quantity      *int
	ShelfLocation *string
}

// Empty reports whether the update carries no fields at all.
func (p UpdateParams) Empty() bool {
	return p.Title == nil && p.Author == nil && p.ISBN == nil &&
		p.Quantity == nil && p.ShelfLocation == nil
}

// ListFilter selects the list query shape.
type ListFilter struct {
	Search        string
	AvailableOnly bool
}
