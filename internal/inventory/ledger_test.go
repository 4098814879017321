package inventory

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfwise/internal/apperr"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var (
	reserveSQL = regexp.QuoteMeta(`
			UPDATE books
			SET available_quantity = available_quantity - 1, updated_at = NOW()
			WHERE id = $1 AND available_quantity > 0
		`)
	releaseSQL = regexp.QuoteMeta(`
			UPDATE books
			SET available_quantity = available_quantity + 1, updated_at = NOW()
			WHERE id = $1 AND available_quantity < quantity
		`)
	probeSQL = regexp.QuoteMeta(`SELECT id FROM books WHERE id = $1`)
)

func TestReserve(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(reserveSQL).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Reserve(context.Background(), db, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveOutOfStock(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(reserveSQL).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(probeSQL).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	err := Reserve(context.Background(), db, 7)
	assert.ErrorIs(t, err, apperr.ErrOutOfStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveBookNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(reserveSQL).WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(probeSQL).WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := Reserve(context.Background(), db, 99)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveStorageFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(reserveSQL).WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))

	err := Reserve(context.Background(), db, 7)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(releaseSQL).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Release(context.Background(), db, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseBeyondTotalIsAnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(releaseSQL).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(probeSQL).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	err := Release(context.Background(), db, 7)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustTotal(t *testing.T) {
	db, mock := newMockDB(t)

	adjustSQL := regexp.QuoteMeta(`
			UPDATE books
			SET quantity = $2,
			    available_quantity = GREATEST(0, $2 - (quantity - available_quantity)),
			    updated_at = NOW()
			WHERE id = $1
		`)
	mock.ExpectExec(adjustSQL).WithArgs(int64(7), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, AdjustTotal(context.Background(), db, 7, 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustTotalRejectsNegative(t *testing.T) {
	db, _ := newMockDB(t)

	err := AdjustTotal(context.Background(), db, 7, -1)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestAdjustTotalBookNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE books").WithArgs(int64(99), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := AdjustTotal(context.Background(), db, 99, 3)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
