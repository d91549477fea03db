package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/pkg/validate"
)

var validator = validate.New()

// DecodeJSON reads the request body into v and validates it. On failure the
// error response is already written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validator.Struct(v); err != nil {
		RespondWithServiceError(w, err)
		return false
	}
	return true
}

// DecodeMap reads a free-form JSON object.
func DecodeMap(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return payload, true
}

// URLID parses the named chi URL parameter as a UUID.
func URLID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query parameter. A malformed value is
// treated as absent.
func QueryID(r *http.Request, name string) *uuid.UUID {
	id, err := uuid.Parse(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &id
}

func Page(r *http.Request) domain.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return domain.Page{Limit: limit, Offset: offset}.Normalize()
}
