package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shelfwise/internal/apperr"
	"shelfwise/internal/cache"
	"shelfwise/internal/logging"
)

// CacheHandler exposes the cache-control operations: scoped invalidation,
// counters, and a full clear.
type CacheHandler struct {
	cache *cache.Cache
	log   logging.Logger
}

func NewCacheHandler(c *cache.Cache, log logging.Logger) *CacheHandler {
	return &CacheHandler{cache: c, log: log}
}

func (h *CacheHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/invalidate", h.invalidate)
	r.Get("/stats", h.stats)
	r.Post("/clear", h.clear)
	return r
}

type invalidateRequest struct {
	Scope string `json:"scope"`
	ID    *int64 `json:"id"`
}

func (h *CacheHandler) invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := Decode(r, &req); err != nil {
		Error(r.Context(), w, h.log, err)
		return
	}

	var evicted int
	switch req.Scope {
	case "books":
		if req.ID != nil {
			evicted = h.cache.Invalidate(cache.BookKey(*req.ID))
		} else {
			evicted = h.cache.InvalidatePrefix(cache.PrefixBook)
		}
	case "borrowers":
		if req.ID != nil {
			evicted = h.cache.Invalidate(cache.BorrowerKey(*req.ID))
		} else {
			evicted = h.cache.InvalidatePrefix(cache.PrefixBorrower)
		}
	case "borrowings":
		if req.ID != nil {
			evicted = h.cache.Invalidate(cache.BorrowingKey(*req.ID))
		} else {
			evicted = h.cache.InvalidatePrefix(cache.PrefixBorrowing)
		}
	default:
		Error(r.Context(), w, h.log, apperr.Invalid("scope must be one of books, borrowers, borrowings"))
		return
	}

	OK(w, http.StatusOK, map[string]int{"evicted": evicted}, "cache invalidated")
}

func (h *CacheHandler) stats(w http.ResponseWriter, r *http.Request) {
	OK(w, http.StatusOK, h.cache.Stats(), "")
}

func (h *CacheHandler) clear(w http.ResponseWriter, r *http.Request) {
	n := h.cache.Clear()
	OKMessage(w, fmt.Sprintf("cache cleared, %d entries removed", n))
}
