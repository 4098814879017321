package books

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"shelfwise/internal/apperr"
)

type stubService struct {
	book       Book
	createErr  error
	lastCreate CreateParams
	lastFilter ListFilter
}

func (s *stubService) List(_ context.Context, f ListFilter) ([]Book, error) {
	s.lastFilter = f
	return []Book{s.book}, nil
}

func (s *stubService) Get(_ context.Context, id int64) (*Book, error) {
	return &s.book, nil
}

func (s *stubService) Create(_ context.Context, p CreateParams) (*Book, error) {
	s.lastCreate = p
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &s.book, nil
}

func (s *stubService) Update(_ context.Context, id int64, p UpdateParams) (*Book, error) {
	return &s.book, nil
}

func (s *stubService) Delete(_ context.Context, id int64) error { return nil }

func newTestHandler(svc Service) http.Handler {
	return NewHandler(svc, testLog, rate.NewLimiter(rate.Inf, 0)).Routes()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
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
	svc := &stubService{book: Book{ID: 1, Title: "Dune"}}
	rec := do(newTestHandler(svc), http.MethodPost, "/",
		`{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","quantity":3}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, svc.lastCreate.Quantity)
}

func TestCreateHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"author":"a","isbn":"9780441013593","quantity":1}`},
		{"missing author", `{"title":"t","isbn":"9780441013593","quantity":1}`},
		{"isbn wrong length", `{"title":"t","author":"a","isbn":"12345","quantity":1}`},
		{"isbn not digits", `{"title":"t","author":"a","isbn":"978044101359X","quantity":1}`},
		{"missing quantity", `{"title":"t","author":"a","isbn":"9780441013593"}`},
		{"negative quantity", `{"title":"t","author":"a","isbn":"9780441013593","quantity":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			rec := do(newTestHandler(svc), http.MethodPost, "/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.lastCreate.Title, "service must not be reached")
		})
	}
}

func TestCreateHandlerTenDigitISBN(t *testing.T) {
	svc := &stubService{}
	rec := do(newTestHandler(svc), http.MethodPost, "/",
		`{"title":"t","author":"a","isbn":"0441013597","quantity":1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateHandlerDuplicateISBN(t *testing.T) {
	svc := &stubService{createErr: apperr.Conflict("book with this ISBN already exists")}
	rec := do(newTestHandler(svc), http.MethodPost, "/",
		`{"title":"t","author":"a","isbn":"9780441013593","quantity":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListHandlerFilters(t *testing.T) {
	svc := &stubService{}
	rec := do(newTestHandler(svc), http.MethodGet, "/?search=dune&available=true", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dune", svc.lastFilter.Search)
	assert.True(t, svc.lastFilter.AvailableOnly)
}

func TestUpdateHandlerRejectsBadPatch(t *testing.T) {
	svc := &stubService{}
	rec := do(newTestHandler(svc), http.MethodPut, "/1", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHandlerRejectsBadID(t *testing.T) {
	svc := &stubService{}
	rec := do(newTestHandler(svc), http.MethodGet, "/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
