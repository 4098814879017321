package borrowings

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shelfwise/internal/apperr"
	"shelfwise/internal/cache"
	"shelfwise/internal/dbx"
	"shelfwise/internal/logging"
)

// service implements the Service interface. Every mutating operation runs
// inside one transaction covering the borrowing row and the ledger update;
// cache invalidation happens synchronously after a successful commit.
type service struct {
	db    *sqlx.DB
	store store
	cache *cache.Cache
	ttls  cache.TTLs
	log   logging.Logger

	tracer trace.Tracer
	now    func() time.Time
	inTx   func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

func NewService(db *sqlx.DB, c *cache.Cache, ttls cache.TTLs, log logging.Logger) Service {
	s := &service{
		db:     db,
		store:  pgStore{},
		cache:  c,
		ttls:   ttls,
		log:    log,
		tracer: otel.Tracer("shelfwise/borrowings"),
		now:    time.Now,
	}
	s.inTx = func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
		return dbx.WithTx(ctx, db, fn)
	}
	return s
}

func (s *service) Create(ctx context.Context, p CreateParams) (*Borrowing, error) {
	ctx, span := s.tracer.Start(ctx, "borrowings.Create", trace.WithAttributes(
		attribute.Int64("borrower_id", p.BorrowerID),
		attribute.Int64("book_id", p.BookID),
	))
	defer span.End()

	borrowDate := s.now()
	if p.BorrowDate != nil {
		borrowDate = *p.BorrowDate
	}
	if !p.DueDate.After(borrowDate) {
		return nil, apperr.Invalid("due date must be after borrow date")
	}

	var id int64
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		exists, err := s.store.BorrowerExists(ctx, tx, p.BorrowerID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("borrower not found")
		}

		open, err := s.store.HasOpenLoan(ctx, tx, p.BorrowerID, p.BookID)
		if err != nil {
			return err
		}
		if open {
			return apperr.ErrDuplicateActiveLoan
		}

		// The conditional decrement is both the availability check and the
		// reservation; two concurrent creates cannot both pass it once the
		// last copy is gone.
		if err := s.store.Reserve(ctx, tx, p.BookID); err != nil {
			return err
		}

		id, err = s.store.Insert(ctx, tx, p, borrowDate)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidateAfterMutation()
	s.log.Info(ctx, "borrowing created", "borrowing_id", id,
		"borrower_id", p.BorrowerID, "book_id", p.BookID)
	return s.Get(ctx, id)
}

func (s *service) Return(ctx context.Context, id int64, returnDate *time.Time) (*Borrowing, error) {
	ctx, span := s.tracer.Start(ctx, "borrowings.Return", trace.WithAttributes(
		attribute.Int64("borrowing_id", id),
	))
	defer span.End()

	at := s.now()
	if returnDate != nil {
		at = *returnDate
	}

	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		bookID, err := s.store.MarkReturned(ctx, tx, id, at)
		if err != nil {
			return err
		}
		return s.store.Release(ctx, tx, bookID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidateAfterMutation()
	s.log.Info(ctx, "borrowing returned", "borrowing_id", id)
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "borrowings.Delete", trace.WithAttributes(
		attribute.Int64("borrowing_id", id),
	))
	defer span.End()

	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		bookID, wasOpen, err := s.store.DeleteRow(ctx, tx, id)
		if err != nil {
			return err
		}
		if wasOpen {
			// Deleting an open borrowing hands the copy back.
			return s.store.Release(ctx, tx, bookID)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidateAfterMutation()
	s.log.Info(ctx, "borrowing deleted", "borrowing_id", id)
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*Borrowing, error) {
	key := cache.BorrowingKey(id)
	var b Borrowing
	if s.cache.GetJSON(key, &b) {
		return &b, nil
	}

	got, err := s.store.GetDetail(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(key, got, s.ttls.Borrowings)
	return got, nil
}

func (s *service) List(ctx context.Context) ([]Borrowing, error) {
	return s.list(ctx, cache.BorrowingListKey(""), filterAll, s.ttls.Borrowings)
}

func (s *service) ListActive(ctx context.Context) ([]Borrowing, error) {
	return s.list(ctx, cache.BorrowingListKey("active"), filterActive, s.ttls.Borrowings)
}

func (s *service) ListOverdue(ctx context.Context) ([]Borrowing, error) {
	return s.list(ctx, cache.BorrowingListKey("overdue"), filterOverdue, s.ttls.Overdue)
}

func (s *service) list(ctx context.Context, key string, f listFilter, ttl time.Duration) ([]Borrowing, error) {
	var out []Borrowing
	if s.cache.GetJSON(key, &out) {
		return out, nil
	}

	// Overdue comparisons use the request-processing instant, never a
	// cached one; the short TTL on the overdue key bounds how long the
	// annotation can be served.
	now := s.now()
	out, err := s.store.ListDetail(ctx, s.db, f, now)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Borrowing{}
	}
	if f == filterOverdue {
		for i := range out {
			out[i].DaysOverdue = int(now.Sub(out[i].DueDate) / (24 * time.Hour))
		}
	}

	s.cache.SetJSON(key, out, ttl)
	return out, nil
}

// invalidateAfterMutation evicts every borrowing key and, because each
// lifecycle transition changes availability, every book key as well.
func (s *service) invalidateAfterMutation() {
	s.cache.InvalidatePrefix(cache.PrefixBorrowing)
	s.cache.InvalidatePrefix(cache.PrefixBook)
}
