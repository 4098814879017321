package books

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
	"shelfwise/internal/inventory"
	"shelfwise/internal/logging"
)

const bookColumns = `id, title, author, isbn, quantity, available_quantity, shelf_location, created_at, updated_at`

// service implements the Service interface with read-through caching over
// the books table.
type service struct {
	db    *sqlx.DB
	cache *cache.Cache
	ttl   time.Duration
	log   logging.Logger
}

func NewService(db *sqlx.DB, c *cache.Cache, ttl time.Duration, log logging.Logger) Service {
	return &service{db: db, cache: c, ttl: ttl, log: log}
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Book, error) {
	key := cache.BookListKey(f.Search, f.AvailableOnly)
	var out []Book
	if s.cache.GetJSON(key, &out) {
		return out, nil
	}

	var err error
	switch {
	case f.Search != "":
		err = s.db.SelectContext(ctx, &out, `
			SELECT `+bookColumns+` FROM books
			WHERE title ILIKE $1 OR author ILIKE $1 OR isbn ILIKE $1
			ORDER BY title ASC
		`, "%"+f.Search+"%")
	case f.AvailableOnly:
		err = s.db.SelectContext(ctx, &out, `
			SELECT `+bookColumns+` FROM books
			WHERE available_quantity > 0
			ORDER BY title ASC
		`)
	default:
		err = s.db.SelectContext(ctx, &out, `SELECT `+bookColumns+` FROM books ORDER BY title ASC`)
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch books", err)
	}
	if out == nil {
		out = []Book{}
	}

	s.cache.SetJSON(key, out, s.ttl)
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Book, error) {
	key := cache.BookKey(id)
	var b Book
	if s.cache.GetJSON(key, &b) {
		return &b, nil
	}

	err := s.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("book not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to fetch book", err)
	}

	s.cache.SetJSON(key, b, s.ttl)
	return &b, nil
}

func (s *service) Create(ctx context.Context, p CreateParams) (*Book, error) {
	var b Book
	err := s.db.GetContext(ctx, &b, `
		INSERT INTO books (title, author, isbn, quantity, available_quantity, shelf_location)
		VALUES ($1, $2, $3, $4, $4, $5)
		RETURNING `+bookColumns, p.Title, p.Author, p.ISBN, p.Quantity, p.ShelfLocation)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("book with this ISBN already exists")
		}
		return nil, apperr.FromPostgres(err, "failed to create book")
	}

	s.cache.InvalidatePrefix(cache.PrefixBook)
	s.log.Info(ctx, "book created", "book_id", b.ID, "isbn", b.ISBN)
	return &b, nil
}

func (s *service) Update(ctx context.Context, id int64, p UpdateParams) (*Book, error) {
	if p.Empty() {
		return nil, apperr.Invalid("no valid fields to update")
	}

	var b Book
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if p.Quantity != nil {
			if err := inventory.AdjustTotal(ctx, tx, id, *p.Quantity); err != nil {
				return err
			}
		}

		rec := goqu.Record{}
		if p.Title != nil {
			rec["title"] = *p.Title
		}
		if p.Author != nil {
			rec["author"] = *p.Author
		}
		if p.ISBN != nil {
			rec["isbn"] = *p.ISBN
		}
		if p.ShelfLocation != nil {
			rec["shelf_location"] = *p.ShelfLocation
		}
		if len(rec) > 0 {
			rec["updated_at"] = goqu.L("NOW()")
			query, args, err := goqu.Dialect("postgres").
				Update("books").
				Prepared(true).
				Set(rec).
				Where(goqu.C("id").Eq(id)).
				ToSQL()
			if err != nil {
				return apperr.Storage("failed to build book update", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				if apperr.IsUniqueViolation(err) {
					return apperr.Conflict("book with this ISBN already exists")
				}
				return apperr.FromPostgres(err, "failed to update book")
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return apperr.NotFound("book not found")
			}
		}

		err := tx.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("book not found")
		}
		if err != nil {
			return apperr.Storage("failed to fetch book", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(cache.PrefixBook)
	return &b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var active int
		if err := tx.GetContext(ctx, &active, `
			SELECT COUNT(*) FROM borrowings WHERE book_id = $1 AND return_date IS NULL
		`, id); err != nil {
			return apperr.Storage("failed to check active borrowings", err)
		}
		if active > 0 {
			return apperr.ErrBookHasActiveLoan
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			if apperr.IsForeignKeyViolation(err) {
				return apperr.Conflict("cannot delete book with borrowing records")
			}
			return apperr.FromPostgres(err, "failed to delete book")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.NotFound("book not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.InvalidatePrefix(cache.PrefixBook)
	s.log.Info(ctx, "book deleted", "book_id", id)
	return nil
}
