package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		ok       bool
		wantCode int
		wantErr  string
	}{
		{name: "Valid body", body: `{"email":"a@b.rw","password":"secret"}`, ok: true},
		{name: "Broken JSON", body: `{`, wantCode: http.StatusBadRequest, wantErr: "Invalid request body"},
		{name: "Missing fields", body: `{}`, wantCode: http.StatusBadRequest, wantErr: "Missing required fields: email, password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var body loginBody
			ok := DecodeJSON(rec, req, &body)

			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, tt.wantCode, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.wantErr)
			}
		})
	}
}

func TestURLID(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, ok := URLID(httptest.NewRecorder(), req, "id")
	require.True(t, ok)
	assert.Equal(t, id, got)

	rec := httptest.NewRecorder()
	_, ok = URLID(rec, httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	assert.Equal(t, domain.Page{Limit: domain.MaxLimit, Offset: 20}, Page(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, domain.Page{Limit: domain.DefaultLimit}, Page(req))
}
