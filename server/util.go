package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"digitrec/nn"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func JsonResponse(w http.ResponseWriter, x interface{}) {
	bytes, err := json.Marshal(x)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(bytes)
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nn.ErrNotBound):
		return http.StatusServiceUnavailable
	case errors.Is(err, nn.ErrPrecondition), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, nn.ErrUndefinedDistribution):
		// input values large enough to overflow the logits
		return http.StatusUnprocessableEntity
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := w.Header().Get(requestIDHeader)
	if status >= 500 {
		log.Printf("[%s] %s %s: %v", id, r.Method, r.URL.Path, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), RequestID: id})
}
