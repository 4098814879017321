// Package reports builds borrowing analytics for a date range and exports
// them as CSV files on disk. Report queries run directly against the
// database; nothing here touches the response cache.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shelfwise/internal/apperr"
	"shelfwise/internal/logging"
)

type Service interface {
	BorrowingAnalytics(ctx context.Context, start, end time.Time) (*Result, error)
}

type service struct {
	db         *sqlx.DB
	log        logging.Logger
	reportsDir string

	now func() time.Time
}

func NewService(db *sqlx.DB, log logging.Logger, reportsDir string) Service {
	return &service{db: db, log: log, reportsDir: reportsDir, now: time.Now}
}

func (s *service) BorrowingAnalytics(ctx context.Context, start, end time.Time) (*Result, error) {
	if start.After(end) {
		return nil, apperr.Invalid("start date cannot be after end date")
	}

	a := &Analytics{}
	var err error
	if a.Summary, err = s.summary(ctx, start, end); err != nil {
		return nil, err
	}
	if a.Detailed, err = s.detailed(ctx, start, end); err != nil {
		return nil, err
	}
	if a.TopBooks, err = s.topBooks(ctx, start, end); err != nil {
		return nil, err
	}
	if a.TopBorrowers, err = s.topBorrowers(ctx, start, end); err != nil {
		return nil, err
	}
	if a.OverdueBooks, err = s.overdue(ctx, end); err != nil {
		return nil, err
	}
	if a.MonthlyTrends, err = s.monthlyTrends(ctx, start, end); err != nil {
		return nil, err
	}
	if a.BookAvailability, err = s.availability(ctx); err != nil {
		return nil, err
	}

	fileName, err := s.exportCSV(a, start, end)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "report generated", "file", fileName,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	res := &Result{
		FileName: fileName,
		Period: Period{
			Start: start.Format("2006-01-02"),
			End:   end.Format("2006-01-02"),
		},
		TotalBorrowings:    a.Summary.TotalBorrowings,
		ActiveBorrowings:   a.Summary.ActiveBorrowings,
		ReturnedBorrowings: a.Summary.ReturnedBorrowings,
		OverdueCount:       len(a.OverdueBooks),
		UniqueBorrowers:    a.Summary.UniqueBorrowers,
		TopBook:            "N/A",
		TopBorrower:        "N/A",
	}
	if len(a.TopBooks) > 0 {
		res.TopBook = a.TopBooks[0].Title
	}
	if len(a.TopBorrowers) > 0 {
		res.TopBorrower = a.TopBorrowers[0].Name
	}
	return res, nil
}

func (s *service) summary(ctx context.Context, start, end time.Time) (Summary, error) {
	var row struct {
		Total   int             `db:"total_borrowings"`
		Active  int             `db:"active_borrowings"`
		Unique  int             `db:"unique_borrowers"`
		AvgDays sql.NullFloat64 `db:"avg_days"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total_borrowings,
			COUNT(*) FILTER (WHERE return_date IS NULL) AS active_borrowings,
			COUNT(DISTINCT borrower_id) AS unique_borrowers,
			AVG(EXTRACT(EPOCH FROM (return_date - borrow_date)) / 86400)
				FILTER (WHERE return_date IS NOT NULL) AS avg_days
		FROM borrowings
		WHERE borrow_date BETWEEN $1 AND $2
	`, start, end)
	if err != nil {
		return Summary{}, apperr.Storage("failed to compute report summary", err)
	}

	sum := Summary{
		TotalBorrowings:    row.Total,
		ActiveBorrowings:   row.Active,
		ReturnedBorrowings: row.Total - row.Active,
		UniqueBorrowers:    row.Unique,
	}
	if row.AvgDays.Valid {
		sum.AvgBorrowingDuration = int(row.AvgDays.Float64 + 0.5)
	}
	if sum.TotalBorrowings > 0 {
		sum.ReturnRate = int(float64(sum.ReturnedBorrowings)/float64(sum.TotalBorrowings)*100 + 0.5)
	}
	return sum, nil
}

func (s *service) detailed(ctx context.Context, start, end time.Time) ([]DetailRow, error) {
	var rows []DetailRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT br.id, b.title AS book_title, b.author AS book_author, b.isbn,
			b.shelf_location,
			bo.name AS borrower_name, bo.email AS borrower_email,
			br.borrow_date, br.due_date, br.return_date
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN borrowers bo ON br.borrower_id = bo.id
		WHERE br.borrow_date BETWEEN $1 AND $2
		ORDER BY br.borrow_date DESC
	`, start, end)
	if err != nil {
		return nil, apperr.Storage("failed to fetch report borrowings", err)
	}

	now := s.now()
	for i := range rows {
		if rows[i].ReturnDate != nil {
			rows[i].Status = "Returned"
			continue
		}
		rows[i].Status = "Active"
		if overdue := int(now.Sub(rows[i].DueDate) / (24 * time.Hour)); overdue > 0 {
			rows[i].DaysOverdue = overdue
		}
	}
	return rows, nil
}

func (s *service) topBooks(ctx context.Context, start, end time.Time) ([]TopBook, error) {
	var rows []TopBook
	err := s.db.SelectContext(ctx, &rows, `
		SELECT b.title, b.author, b.isbn, COUNT(*) AS borrow_count
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		WHERE br.borrow_date BETWEEN $1 AND $2
		GROUP BY b.id, b.title, b.author, b.isbn
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`, start, end)
	if err != nil {
		return nil, apperr.Storage("failed to fetch top books", err)
	}
	return rows, nil
}

func (s *service) topBorrowers(ctx context.Context, start, end time.Time) ([]TopBorrower, error) {
	var rows []TopBorrower
	err := s.db.SelectContext(ctx, &rows, `
		SELECT bo.name, bo.email, COUNT(*) AS borrow_count
		FROM borrowings br
		JOIN borrowers bo ON br.borrower_id = bo.id
		WHERE br.borrow_date BETWEEN $1 AND $2
		GROUP BY bo.id, bo.name, bo.email
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`, start, end)
	if err != nil {
		return nil, apperr.Storage("failed to fetch top borrowers", err)
	}
	return rows, nil
}

func (s *service) overdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error) {
	var rows []OverdueRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT b.title AS book_title, b.author AS book_author,
			bo.name AS borrower_name, bo.email AS borrower_email,
			br.due_date,
			FLOOR(EXTRACT(EPOCH FROM ($1 - br.due_date)) / 86400)::int AS days_overdue
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		JOIN borrowers bo ON br.borrower_id = bo.id
		WHERE br.return_date IS NULL AND br.due_date < $1
		ORDER BY br.due_date ASC
	`, asOf)
	if err != nil {
		return nil, apperr.Storage("failed to fetch overdue borrowings", err)
	}
	return rows, nil
}

func (s *service) monthlyTrends(ctx context.Context, start, end time.Time) ([]MonthlyTrend, error) {
	var rows []MonthlyTrend
	err := s.db.SelectContext(ctx, &rows, `
		SELECT TO_CHAR(borrow_date, 'YYYY-MM') AS month, COUNT(*) AS borrowings
		FROM borrowings
		WHERE borrow_date BETWEEN $1 AND $2
		GROUP BY TO_CHAR(borrow_date, 'YYYY-MM')
		ORDER BY month ASC
	`, start, end)
	if err != nil {
		return nil, apperr.Storage("failed to fetch monthly trends", err)
	}
	return rows, nil
}

func (s *service) availability(ctx context.Context) ([]AvailabilityRow, error) {
	var rows []AvailabilityRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT title, author, isbn, quantity, available_quantity, shelf_location
		FROM books
		ORDER BY title ASC
	`)
	if err != nil {
		return nil, apperr.Storage("failed to fetch book availability", err)
	}
	for i := range rows {
		rows[i].BorrowedCopies = rows[i].TotalCopies - rows[i].AvailableCopies
		if rows[i].TotalCopies > 0 {
			rows[i].UtilizationRate = int(float64(rows[i].BorrowedCopies)/float64(rows[i].TotalCopies)*100 + 0.5)
		}
	}
	return rows, nil
}

// exportCSV writes the report file and returns its bare file name. The uuid
// suffix keeps repeated exports for the same period from clobbering each
// other.
func (s *service) exportCSV(a *Analytics, start, end time.Time) (string, error) {
	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return "", apperr.Storage("failed to create reports directory", err)
	}

	fileName := fmt.Sprintf("borrowing-analytics-%s-to-%s-%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"), uuid.NewString())

	f, err := os.Create(filepath.Join(s.reportsDir, fileName))
	if err != nil {
		return "", apperr.Storage("failed to create report file", err)
	}
	defer f.Close()

	if err := WriteCSV(f, a); err != nil {
		return "", apperr.Storage("failed to write report file", err)
	}
	return fileName, nil
}
