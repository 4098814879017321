package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shelfwise/internal/apperr"
	"shelfwise/internal/httpapi"
	"shelfwise/internal/logging"
)

type Handler struct {
	svc Service
	log logging.Logger
}

func NewHandler(svc Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/borrowings", h.borrowings)
	return r
}

func (h *Handler) borrowings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		httpapi.Error(r.Context(), w, h.log, apperr.Invalid("start and end dates are required"))
		return
	}
	start, err := httpapi.ParseDate(q.Get("start"), "start")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	end, err := httpapi.ParseDate(q.Get("end"), "end")
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}

	res, err := h.svc.BorrowingAnalytics(r.Context(), start, end)
	if err != nil {
		httpapi.Error(r.Context(), w, h.log, err)
		return
	}
	httpapi.OK(w, http.StatusOK, res, "Report generated successfully")
}
