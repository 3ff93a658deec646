package token

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doAuthMe(t *testing.T, h *Handler, auth, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/authMe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.AuthMe(rec, req)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec.Code, rec.Body.String()
}

func TestAuthMe(t *testing.T) {
	svc := newTestService(&memStore{})
	tok, _, err := svc.Sign("a@x.com")
	require.NoError(t, err)
	h := NewHandler(svc, nil)

	code, out := doAuthMe(t, h, "Bearer "+tok, `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Token is valid for provided email address.", out)

	code, out = doAuthMe(t, h, "", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not Authorization Header provided.", out)

	code, out = doAuthMe(t, h, "Bearer "+tok, `{"email":"b@x.com"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token is invalid for provided email address.", out)

	code, _ = doAuthMe(t, h, "Bearer garbage", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doAuthMe(t, h, "Basic dXNlcjpwYXNz", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doAuthMe(t, h, "Bearer "+tok, `not json`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer abc.def")
	tok, ok := BearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)
}
