package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dennisdiepolder/monti/opsdash/internal/cache"
	"github.com/dennisdiepolder/monti/opsdash/internal/upstream"
)

const maxPageSize = 100

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFailure maps err to a status code and a single line message
func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), upstream.UserMessage(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, cache.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, cache.ErrMutationInFlight):
		return http.StatusConflict
	}

	var uerr *upstream.Error
	if errors.As(err, &uerr) {
		if uerr.Kind == upstream.KindStatus && uerr.StatusCode >= 400 && uerr.StatusCode < 500 {
			return uerr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// listQuery is the scoped list state a request carries
type listQuery struct {
	Term    string
	Status  string
	Page    int
	Size    int
	Refresh bool
}

func parseListQuery(r *http.Request, defaultSize int) listQuery {
	q := r.URL.Query()
	lq := listQuery{
		Term:    q.Get("q"),
		Status:  q.Get("status"),
		Page:    1,
		Size:    defaultSize,
		Refresh: q.Get("refresh") == "1" || q.Get("refresh") == "true",
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		lq.Page = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		lq.Size = n
	}
	if lq.Size > maxPageSize {
		lq.Size = maxPageSize
	}
	return lq
}
