package token

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

type authRequest struct {
	Email string `json:"email"`
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. ok is false when the header is absent.
func BearerToken(r *http.Request) (token string, ok bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:]), true
	}
	return "", true
}

// AuthMe checks the bearer token against the email in the body.
func (h *Handler) AuthMe(w http.ResponseWriter, r *http.Request) {
	raw, ok := BearerToken(r)
	if !ok {
		h.writeText(w, http.StatusForbidden, "Not Authorization Header provided.")
		return
	}
	var req authRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		// a missing, oversized or malformed body leaves email empty, which never matches
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if _, err := h.svc.Validate(raw, strings.TrimSpace(req.Email)); err != nil {
		h.logger.Debugw("token rejected", "email", req.Email, "err", err)
		h.writeText(w, http.StatusUnauthorized, "Token is invalid for provided email address.")
		return
	}
	h.writeText(w, http.StatusOK, "Token is valid for provided email address.")
}

// writeText answers with a bare message, as the browser client expects.
func (h *Handler) writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
