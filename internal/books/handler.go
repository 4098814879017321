package books

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"shelfwise/internal/apperr"
	"shelfwise/internal/httpapi"
	"shelfwise/internal/logging"
)

var isbnPattern = regexp.MustCompile(`^[0-9]{10}$|^[0-9]{13}$`)

type Handler struct {
	svc           Service
	log           logging.Logger
	createLimiter *rate.Limiter
}

func NewHandler(svc Service, log logging.Logger, createLimiter *rate.Limiter) *Handler {
	return &Handler{svc: svc, log: log, createLimiter: createLimiter}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.With(httpapi.RateLimit(h.createLimiter,
		"Too many book creation attempts. You can only create 5 books per 10 minutes.")).
		Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := ListFilter{
		Search:        r.URL.Query().Get("search"),
		AvailableOnly: r.URL.Query().Get("available") == "true",
	}
	items, err := h.svc.List(r.Context(), f)
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
	book, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, book, "")
}

type createRequest struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          string  `json:"isbn"`
	Quantity      *int    `json:"quantity"`
	ShelfLocation *string `json:"shelf_location"`
}

func (req *createRequest) validate() error {
	if req.Title == "" || len(req.Title) > 255 {
		return apperr.Invalid("title is required and must be at most 255 characters")
	}
	if req.Author == "" || len(req.Author) > 255 {
		return apperr.Invalid("author is required and must be at most 255 characters")
	}
	if !isbnPattern.MatchString(req.ISBN) {
		return apperr.Invalid("isbn must be 10 or 13 digits")
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return apperr.Invalid("quantity must be a non-negative integer")
	}
	if req.ShelfLocation != nil && len(*req.ShelfLocation) > 100 {
		return apperr.Invalid("shelf location must be at most 100 characters")
	}
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}

	book, err := h.svc.Create(r.Context(), CreateParams{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Quantity:      *req.Quantity,
		ShelfLocation: req.ShelfLocation,
	})
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusCreated, book, "Book created successfully")
}

type updateRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	Quantity      *int    `json:"quantity"`
	ShelfLocation *string `json:"shelf_location"`
}

func (req *updateRequest) validate() error {
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > 255) {
		return apperr.Invalid("title must be between 1 and 255 characters")
	}
	if req.Author != nil && (*req.Author == "" || len(*req.Author) > 255) {
		return apperr.Invalid("author must be between 1 and 255 characters")
	}
	if req.ISBN != nil && !isbnPattern.MatchString(*req.ISBN) {
		return apperr.Invalid("isbn must be 10 or 13 digits")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return apperr.Invalid("quantity must be a non-negative integer")
	}
	if req.ShelfLocation != nil && len(*req.ShelfLocation) > 100 {
		return apperr.Invalid("shelf location must be at most 100 characters")
	}
	return nil
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.ID(r, "id")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}

	book, err := h.svc.Update(r.Context(), id, UpdateParams{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Quantity:      req.Quantity,
		ShelfLocation: req.ShelfLocation,
	})
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, book, "Book updated successfully")
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
	httpapi.OKMessage(w, "Book deleted successfully")
}
