package borrowers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"shelfwise/internal/apperr"
	"shelfwise/internal/httpapi"
	"shelfwise/internal/logging"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Handler struct {
	svc Service
	log logging.Logger
}

func NewHandler(svc Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/history", h.history)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
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
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

func (req *createRequest) validate() error {
	if req.Name == "" || len(req.Name) > 255 {
		return apperr.Invalid("name is required and must be at most 255 characters")
	}
	if !emailPattern.MatchString(req.Email) || len(req.Email) > 255 {
		return apperr.Invalid("email must be a valid email address")
	}
	if req.Phone != nil && len(*req.Phone) > 20 {
		return apperr.Invalid("phone must be at most 20 characters")
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

	b, err := h.svc.Create(r.Context(), CreateParams{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusCreated, b, "Borrower created successfully")
}

type updateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (req *updateRequest) validate() error {
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > 255) {
		return apperr.Invalid("name must be between 1 and 255 characters")
	}
	if req.Email != nil && (!emailPattern.MatchString(*req.Email) || len(*req.Email) > 255) {
		return apperr.Invalid("email must be a valid email address")
	}
	if req.Phone != nil && len(*req.Phone) > 20 {
		return apperr.Invalid("phone must be at most 20 characters")
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

	b, err := h.svc.Update(r.Context(), id, UpdateParams{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, b, "Borrower updated successfully")
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
	httpapi.OKMessage(w, "Borrower deleted successfully")
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.ID(r, "id")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OKList(w, entries, len(entries))
}
