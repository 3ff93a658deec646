package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseValue(t *testing.T) {
	cases := map[string]string{
		`{"code":"1234"}`: "1234",
		`{"code":1234}`:   "1234",
		`{"code":null}`:   "",
		`{}`:              "",
	}
	for in, want := range cases {
		var req CodeRequest
		require.NoError(t, json.Unmarshal([]byte(in), &req), in)
		assert.Equal(t, want, string(req.Code), in)
	}

	var req CodeRequest
	assert.Error(t, json.Unmarshal([]byte(`{"code":true}`), &req))
}

func TestHandler_StatusMirrorsBody(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() (int, error) { return 1234, nil }
	h := NewHandler(f.svc, f.svc.logger)

	do := func(fn http.HandlerFunc, body string) (int, StatusResponse) {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		var out StatusResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		return rec.Code, out
	}

	code, out := do(h.PostEmail, `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusResponse{Message: "Code send to user email", StatusCode: 200}, out)

	code, out = do(h.PostCode, `{"email":"a@x.com","code":"9999"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 401, out.StatusCode)

	code, out = do(h.PostCode, `{"email":"","code":"1234"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Email and code are required.", out.Message)

	rec := httptest.NewRecorder()
	h.PostCode(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","code":1234}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var tok TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tok))
	assert.Equal(t, "header.payload.sig", tok.Token)
}
