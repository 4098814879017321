package reports

import "time"

// Summary aggregates borrowing activity for a reporting period.
type Summary struct {
	TotalBorrowings    int `db:"total_borrowings" json:"total_borrowings"`
	ActiveBorrowings   int `db:"active_borrowings" json:"active_borrowings"`
	ReturnedBorrowings int `db:"-" json:"returned_borrowings"`
	UniqueBorrowers    int `db:"unique_borrowers" json:"unique_borrowers"`

	// AvgBorrowingDuration is the mean borrow-to-return span in whole days,
	// over returned borrowings only.
	AvgBorrowingDuration int `db:"-" json:"avg_borrowing_duration"`
	// ReturnRate is returned/total as a whole percentage.
	ReturnRate int `db:"-" json:"return_rate"`
}

// DetailRow is one borrowing in the detailed export.
type DetailRow struct {
	ID            int64      `db:"id" json:"id"`
	BookTitle     string     `db:"book_title" json:"book_title"`
	BookAuthor    string     `db:"book_author" json:"book_author"`
	ISBN          string     `db:"isbn" json:"isbn"`
	ShelfLocation *string    `db:"shelf_location" json:"shelf_location"`
	BorrowerName  string     `db:"borrower_name" json:"borrower_name"`
	BorrowerEmail string     `db:"borrower_email" json:"borrower_email"`
	BorrowDate    time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate       time.Time  `db:"due_date" json:"due_date"`
	ReturnDate    *time.Time `db:"return_date" json:"return_date"`
	Status        string     `db:"-" json:"status"`
	DaysOverdue   int        `db:"-" json:"days_overdue"`
}

// TopBook is a borrow-count ranking entry.
type TopBook struct {
	Title       string `db:"title" json:"title"`
	Author      string `db:"author" json:"author"`
	ISBN        string `db:"isbn" json:"isbn"`
	BorrowCount int    `db:"borrow_count" json:"borrow_count"`
}

// TopBorrower is a borrow-count ranking entry.
type TopBorrower struct {
	Name        string `db:"name" json:"name"`
	Email       string `db:"email" json:"email"`
	BorrowCount int    `db:"borrow_count" json:"borrow_count"`
}

// OverdueRow is an open borrowing past its due date as of the period end.
type OverdueRow struct {
	BookTitle     string    `db:"book_title" json:"book_title"`
	BookAuthor    string    `db:"book_author" json:"book_author"`
	BorrowerName  string    `db:"borrower_name" json:"borrower_name"`
	BorrowerEmail string    `db:"borrower_email" json:"borrower_email"`
	DueDate       time.Time `db:"due_date" json:"due_date"`
	DaysOverdue   int       `db:"days_overdue" json:"days_overdue"`
}

// MonthlyTrend is the borrowing count for one YYYY-MM bucket.
type MonthlyTrend struct {
	Month      string `db:"month" json:"month"`
	Borrowings int    `db:"borrowings" json:"borrowings"`
}

// AvailabilityRow is the current inventory position of one book.
type AvailabilityRow struct {
	Title           string  `db:"title" json:"title"`
	Author          string  `db:"author" json:"author"`
	ISBN            string  `db:"isbn" json:"isbn"`
	TotalCopies     int     `db:"quantity" json:"total_copies"`
	AvailableCopies int     `db:"available_quantity" json:"available_copies"`
	BorrowedCopies  int     `db:"-" json:"borrowed_copies"`
	UtilizationRate int     `db:"-" json:"utilization_rate"`
	ShelfLocation   *string `db:"shelf_location" json:"shelf_location"`
}

// Analytics is the full report produced for one period.
type Analytics struct {
	Summary          Summary           `json:"summary"`
	Detailed         []DetailRow       `json:"detailed_borrowings"`
	TopBooks         []TopBook         `json:"top_books"`
	TopBorrowers     []TopBorrower     `json:"top_borrowers"`
	OverdueBooks     []OverdueRow      `json:"overdue_books"`
	MonthlyTrends    []MonthlyTrend    `json:"monthly_trends"`
	BookAvailability []AvailabilityRow `json:"book_availability"`
}

// Result is the handler-facing response: the period, headline numbers, and
// the name of the CSV file written for the report.
type Result struct {
	FileName string `json:"file_name"`
	Period   Period `json:"period"`

	TotalBorrowings    int    `json:"total_borrowings"`
	ActiveBorrowings   int    `json:"active_borrowings"`
	ReturnedBorrowings int    `json:"returned_borrowings"`
	OverdueCount       int    `json:"overdue_count"`
	UniqueBorrowers    int    `json:"unique_borrowers"`
	TopBook            string `json:"top_book"`
	TopBorrower        string `json:"top_borrower"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
