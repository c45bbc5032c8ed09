package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/garnizeh/snaglist/internal/core"
)

// pathID pulls a positive integer path variable out of the route.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// pagination reads limit/offset query params with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	q := r.URL.Query()
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become 500 without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, core.ErrForbidden), errors.Is(err, core.ErrNotAssignee):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrUnknownStatus),
		errors.Is(err, core.ErrInvalidAssignee),
		errors.Is(err, core.ErrLastManager):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrStoreFailure):
		logger.Error("store failure", slog.Any("err", err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		logger.Error("unhandled error", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
