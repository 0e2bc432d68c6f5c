package api

import (
	"errors"
	"log"
	"net/http"

	"wheels/directions"
	"wheels/models"
)

// writeError maps service errors onto HTTP statuses. Anything unexpected
// is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case models.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrTripNotFound),
		errors.Is(err, models.ErrPointNotFound),
		errors.Is(err, models.ErrProfileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNoSeatsAvailable),
		errors.Is(err, models.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, directions.ErrDisabled):
		http.Error(w, "maps are not configured", http.StatusServiceUnavailable)
	default:
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
