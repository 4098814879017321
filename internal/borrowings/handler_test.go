package borrowings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"shelfwise/internal/apperr"
)

// stubService records calls and returns canned results.
type stubService struct {
	createErr error
	returnErr error
	deleteErr error
	borrowing Borrowing

	lastCreate  CreateParams
	listedWith  string
	returnedAt  *time.Time
	returnedID  int64
	deleteCalls int
}

func (s *stubService) Create(_ context.Context, p CreateParams) (*Borrowing, error) {
	s.lastCreate = p
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &s.borrowing, nil
}

func (s *stubService) Return(_ context.Context, id int64, at *time.Time) (*Borrowing, error) {
	s.returnedID = id
	s.returnedAt = at
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	return &s.borrowing, nil
}

func (s *stubService) Delete(_ context.Context, id int64) error {
	s.deleteCalls++
	return s.deleteErr
}

func (s *stubService) Get(_ context.Context, id int64) (*Borrowing, error) {
	return &s.borrowing, nil
}

func (s *stubService) List(_ context.Context) ([]Borrowing, error) {
	s.listedWith = "all"
	return []Borrowing{s.borrowing}, nil
}

func (s *stubService) ListActive(_ context.Context) ([]Borrowing, error) {
	s.listedWith = "active"
	return []Borrowing{}, nil
}

func (s *stubService) ListOverdue(_ context.Context) ([]Borrowing, error) {
	s.listedWith = "overdue"
	return []Borrowing{}, nil
}

func newTestHandler(svc Service) http.Handler {
	limiter := rate.NewLimiter(rate.Inf, 0)
	return NewHandler(svc, testLog, limiter).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestCreateHandler(t *testing.T) {
	svc := &stubService{borrowing: Borrowing{ID: 1, BorrowerID: 2, BookID: 3}}
	h := newTestHandler(svc)

	rec := doJSON(t, h, http.MethodPost, "/",
		`{"borrower_id":2,"book_id":3,"due_date":"2025-06-15"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), svc.lastCreate.BorrowerID)
	assert.Equal(t, int64(3), svc.lastCreate.BookID)
	assert.Nil(t, svc.lastCreate.BorrowDate)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Book borrowed successfully", body["message"])
}

func TestCreateHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing borrower", `{"book_id":3,"due_date":"2025-06-15"}`},
		{"zero borrower", `{"borrower_id":0,"book_id":3,"due_date":"2025-06-15"}`},
		{"negative book", `{"borrower_id":2,"book_id":-1,"due_date":"2025-06-15"}`},
		{"missing due date", `{"borrower_id":2,"book_id":3}`},
		{"bad due date", `{"borrower_id":2,"book_id":3,"due_date":"soon"}`},
		{"unknown field", `{"borrower_id":2,"book_id":3,"due_date":"2025-06-15","priority":"high"}`},
		{"not json", `borrow please`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			rec := doJSON(t, newTestHandler(svc), http.MethodPost, "/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, svc.lastCreate.BorrowerID, "service must not be reached")
		})
	}
}

func TestCreateHandlerConflictStatuses(t *testing.T) {
	for _, sentinel := range []error{apperr.ErrOutOfStock, apperr.ErrDuplicateActiveLoan} {
		svc := &stubService{createErr: sentinel}
		rec := doJSON(t, newTestHandler(svc), http.MethodPost, "/",
			`{"borrower_id":2,"book_id":3,"due_date":"2025-06-15"}`)
		assert.Equal(t, http.StatusConflict, rec.Code, "error: %v", sentinel)
	}
}

func TestListStatusDispatch(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "all"},
		{"/?status=active", "active"},
		{"/?status=overdue", "overdue"},
		{"/?status=bogus", "all"},
	}
	for _, tt := range tests {
		svc := &stubService{}
		rec := doJSON(t, newTestHandler(svc), http.MethodGet, tt.path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, svc.listedWith, "path %s", tt.path)
	}
}

func TestReturnHandler(t *testing.T) {
	svc := &stubService{borrowing: Borrowing{ID: 5}}
	rec := doJSON(t, newTestHandler(svc), http.MethodPut, "/5/return", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.returnedID)
	assert.Nil(t, svc.returnedAt, "no body means the service picks the instant")
}

func TestReturnHandlerWithExplicitDate(t *testing.T) {
	svc := &stubService{borrowing: Borrowing{ID: 5}}
	rec := doJSON(t, newTestHandler(svc), http.MethodPut, "/5/return",
		`{"return_date":"2025-06-10"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.returnedAt)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), *svc.returnedAt)
}

func TestReturnHandlerAlreadyReturned(t *testing.T) {
	svc := &stubService{returnErr: apperr.ErrAlreadyReturned}
	rec := doJSON(t, newTestHandler(svc), http.MethodPut, "/5/return", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteHandler(t *testing.T) {
	svc := &stubService{}
	rec := doJSON(t, newTestHandler(svc), http.MethodDelete, "/5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.deleteCalls)
}

func TestDeleteHandlerUnknownID(t *testing.T) {
	svc := &stubService{deleteErr: apperr.NotFound("borrowing record not found")}
	rec := doJSON(t, newTestHandler(svc), http.MethodDelete, "/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitedCreate(t *testing.T) {
	svc := &stubService{borrowing: Borrowing{ID: 1}}
	limiter := rate.NewLimiter(rate.Every(5*time.Minute/3), 3)
	h := NewHandler(svc, testLog, limiter).Routes()

	body := `{"borrower_id":2,"book_id":3,"due_date":"2025-06-15"}`
	for i := 0; i < 3; i++ {
		rec := doJSON(t, h, http.MethodPost, "/", body)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
