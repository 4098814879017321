package borrowings

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"shelfwise/internal/apperr"
	"shelfwise/internal/httpapi"
	"shelfwise/internal/logging"
)

type Handler struct {
	svc           Service
	log           logging.Logger
	borrowLimiter *rate.Limiter
}

func NewHandler(svc Service, log logging.Logger, borrowLimiter *rate.Limiter) *Handler {
	return &Handler{svc: svc, log: log, borrowLimiter: borrowLimiter}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.With(httpapi.RateLimit(h.borrowLimiter,
		"Too many borrowing attempts. You can only borrow 3 books per 5 minutes.")).
		Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}/return", h.returnBook)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		items []Borrowing
		err   error
	)
	switch r.URL.Query().Get("status") {
	case "active":
		items, err = h.svc.ListActive(r.Context())
	case "overdue":
		items, err = h.svc.ListOverdue(r.Context())
	default:
		items, err = h.svc.List(r.Context())
	}
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OKList(w, items, len(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.ID(r, "id")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, b, "")
}

type createRequest struct {
	BorrowerID *int64 `json:"borrower_id"`
	BookID     *int64 `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	if req.BorrowerID == nil || *req.BorrowerID <= 0 {
		httpapi.Error(r.Context(), w, h.log, apperr.Invalid("borrower_id must be a positive integer"))
		return
	}
	if req.BookID == nil || *req.BookID <= 0 {
		httpapi.Error(r.Context(), w, h.log, apperr.Invalid("book_id must be a positive integer"))
		return
	}
	borrowDate, err := httpapi.ParseOptionalDate(req.BorrowDate, "borrow_date")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	dueDate, err := httpapi.ParseDate(req.DueDate, "due_date")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}

	b, err := h.svc.Create(r.Context(), CreateParams{
		BorrowerID: *req.BorrowerID,
		BookID:     *req.BookID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	})
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusCreated, b, "Book borrowed successfully")
}

type returnRequest struct {
	ReturnDate string `json:"return_date"`
}

func (h *Handler) returnBook(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.ID(r, "id")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	var req returnRequest
	if r.ContentLength > 0 {
		if err := httpapi.Decode(r, &req); err != nil {
			httpapi.Error(r.Context(), w, h.log, err)
			return
		}
	}
	returnDate, err := httpapi.ParseOptionalDate(req.ReturnDate, "return_date")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}

	b, err := h.svc.Return(r.Context(), id, returnDate)
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, b, "Book returned successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.ID(r, "id")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OKMessage(w, "Borrowing record deleted successfully")
}
