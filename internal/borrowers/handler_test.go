package borrowers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"shelfwise/internal/apperr"
)

type stubService struct {
	borrower   Borrower
	deleteErr  error
	historyErr error
	history    []HistoryEntry
	lastCreate CreateParams
}

func (s *stubService) List(_ context.Context, search string) ([]Borrower, error) {
	return []Borrower{s.borrower}, nil
}

func (s *stubService) Get(_ context.Context, id int64) (*Borrower, error) {
	return &s.borrower, nil
}

func (s *stubService) Create(_ context.Context, p CreateParams) (*Borrower, error) {
	s.lastCreate = p
	return &s.borrower, nil
}

func (s *stubService) Update(_ context.Context, id int64, p UpdateParams) (*Borrower, error) {
	return &s.borrower, nil
}

func (s *stubService) Delete(_ context.Context, id int64) error { return s.deleteErr }

func (s *stubService) History(_ context.Context, id int64) ([]HistoryEntry, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
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
	svc := &stubService{borrower: Borrower{ID: 1}}
	rec := do(NewHandler(svc, testLog).Routes(), http.MethodPost, "/",
		`{"name":"Ada Lovelace","email":"ada@example.com"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ada@example.com", svc.lastCreate.Email)
}

func TestCreateHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"ada@example.com"}`},
		{"missing email", `{"name":"Ada"}`},
		{"bad email", `{"name":"Ada","email":"not-an-email"}`},
		{"email without tld", `{"name":"Ada","email":"ada@example"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			rec := do(NewHandler(svc, testLog).Routes(), http.MethodPost, "/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.lastCreate.Name, "service must not be reached")
		})
	}
}

func TestDeleteHandlerBlockedByOpenBorrowing(t *testing.T) {
	svc := &stubService{deleteErr: apperr.ErrBorrowerHasActiveLoan}
	rec := do(NewHandler(svc, testLog).Routes(), http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHistoryHandler(t *testing.T) {
	svc := &stubService{history: []HistoryEntry{{ID: 5, Title: "Dune"}}}
	rec := do(NewHandler(svc, testLog).Routes(), http.MethodGet, "/1/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestHistoryHandlerUnknownBorrower(t *testing.T) {
	svc := &stubService{historyErr: apperr.NotFound("borrower not found")}
	rec := do(NewHandler(svc, testLog).Routes(), http.MethodGet, "/404/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
