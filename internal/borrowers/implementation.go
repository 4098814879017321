package borrowers

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"

	"shelfwise/internal/apperr"
	"shelfwise/internal/cache"
	"shelfwise/internal/dbx"
	"shelfwise/internal/logging"
)

const borrowerColumns = `id, name, email, phone, created_at, updated_at`

type service struct {
	db    *sqlx.DB
	cache *cache.Cache
	ttl   time.Duration
	log   logging.Logger
}

func NewService(db *sqlx.DB, c *cache.Cache, ttl time.Duration, log logging.Logger) Service {
	return &service{db: db, cache: c, ttl: ttl, log: log}
}

func (s *service) List(ctx context.Context, search string) ([]Borrower, error) {
	key := cache.BorrowerListKey(search)
	var out []Borrower
	if s.cache.GetJSON(key, &out) {
		return out, nil
	}

	var err error
	if search != "" {
		err = s.db.SelectContext(ctx, &out, `
			SELECT `+borrowerColumns+` FROM borrowers
			WHERE name ILIKE $1 OR email ILIKE $1
			ORDER BY name ASC
		`, "%"+search+"%")
	} else {
		err = s.db.SelectContext(ctx, &out, `SELECT `+borrowerColumns+` FROM borrowers ORDER BY name ASC`)
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch borrowers", err)
	}
	if out == nil {
		out = []Borrower{}
	}

	s.cache.SetJSON(key, out, s.ttl)
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Borrower, error) {
	key := cache.BorrowerKey(id)
	var b Borrower
	if s.cache.GetJSON(key, &b) {
		return &b, nil
	}

	err := s.db.GetContext(ctx, &b, `SELECT `+borrowerColumns+` FROM borrowers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("borrower not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch borrower", err)
	}

	s.cache.SetJSON(key, b, s.ttl)
	return &b, nil
}

func (s *service) Create(ctx context.Context, p CreateParams) (*Borrower, error) {
	var b Borrower
	err := s.db.GetContext(ctx, &b, `
		INSERT INTO borrowers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING `+borrowerColumns, p.Name, p.Email, p.Phone)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("borrower with this email already exists")
		}
		return nil, apperr.FromPostgres(err, "failed to create borrower")
	}

	s.cache.InvalidatePrefix(cache.PrefixBorrower)
	s.log.Info(ctx, "borrower created", "borrower_id", b.ID)
	return &b, nil
}

func (s *service) Update(ctx context.Context, id int64, p UpdateParams) (*Borrower, error) {
	if p.Empty() {
		return nil, apperr.Invalid("no valid fields to update")
	}

	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if p.Name != nil {
		rec["name"] = *p.Name
	}
	if p.Email != nil {
		rec["email"] = *p.Email
	}
	if p.Phone != nil {
		rec["phone"] = *p.Phone
	}

	query, args, err := goqu.Dialect("postgres").
		Update("borrowers").
		Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(borrowerColumns)).
		ToSQL()
	if err != nil {
		return nil, apperr.Storage("failed to build borrower update", err)
	}

	var b Borrower
	err = s.db.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("borrower not found")
	}
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("borrower with this email already exists")
		}
		return nil, apperr.FromPostgres(err, "failed to update borrower")
	}

	s.cache.InvalidatePrefix(cache.PrefixBorrower)
	return &b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var active int
		if err := tx.GetContext(ctx, &active, `
			SELECT COUNT(*) FROM borrowings WHERE borrower_id = $1 AND return_date IS NULL
		`, id); err != nil {
			return apperr.Storage("failed to check active borrowings", err)
		}
		if active > 0 {
			return apperr.ErrBorrowerHasActiveLoan
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM borrowers WHERE id = $1`, id)
		if err != nil {
			if apperr.IsForeignKeyViolation(err) {
				return apperr.Conflict("cannot delete borrower with borrowing records")
			}
			return apperr.FromPostgres(err, "failed to delete borrower")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.NotFound("borrower not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.InvalidatePrefix(cache.PrefixBorrower)
	s.log.Info(ctx, "borrower deleted", "borrower_id", id)
	return nil
}

func (s *service) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	key := cache.BorrowingHistoryKey(id)
	var out []HistoryEntry
	if s.cache.GetJSON(key, &out) {
		return out, nil
	}

	// Existence check first so an unknown borrower is a 404, not an empty list.
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM borrowers WHERE id = $1)`, id); err != nil {
		return nil, apperr.Storage("failed to fetch borrower", err)
	}
	if !exists {
		return nil, apperr.NotFound("borrower not found")
	}

	err := s.db.SelectContext(ctx, &out, `
		SELECT br.id, br.borrow_date, br.due_date, br.return_date, b.title, b.author, b.isbn
		FROM borrowings br
		JOIN books b ON br.book_id = b.id
		WHERE br.borrower_id = $1
		ORDER BY br.borrow_date DESC
	`, id)
	if err != nil {
		return nil, apperr.Storage("failed to fetch borrower history", err)
	}
	if out == nil {
		out = []HistoryEntry{}
	}

	s.cache.SetJSON(key, out, s.ttl)
	return out, nil
}
