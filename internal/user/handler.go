package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; real payloads are a few dozen bytes.
const maxBodyBytes = 16 << 10

// Handler exposes the emailed-code sign-in endpoints.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// StatusResponse mirrors the HTTP status in the body for the browser client.
type StatusResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// EmailRequest is the body of POST /postEmail.
type EmailRequest struct {
	Email string `json:"email"`
}

// CodeRequest is the body of POST /postCode. The code input posts either a
// string or a number.
type CodeRequest struct {
	Email string     `json:"email"`
	Code  LooseValue `json:"code"`
}

// TokenResponse is returned once a code is exchanged.
type TokenResponse struct {
	Token string `json:"token"`
}

// LooseValue accepts a JSON string or number and keeps its text.
type LooseValue string

func (v *LooseValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = LooseValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = LooseValue(n.String())
	return nil
}

func (h *Handler) PostEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid postEmail payload", "err", err)
		h.writeStatus(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	err := h.svc.IssueCode(r.Context(), req.Email)
	switch {
	case err == nil:
		h.writeStatus(w, http.StatusOK, "Code send to user email")
	case errors.Is(err, ErrEmailRequired):
		h.writeStatus(w, http.StatusForbidden, "No valid email provided")
	case errors.Is(err, ErrDeliveryFailed):
		h.writeStatus(w, http.StatusInternalServerError, "Error sending email.")
	default:
		h.logger.Errorw("issue code failed", "email", req.Email, "err", err)
		h.writeStatus(w, http.StatusInternalServerError, "Error storing access code.")
	}
}

func (h *Handler) PostCode(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid postCode payload", "err", err)
		h.writeStatus(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	token, err := h.svc.ExchangeCode(r.Context(), req.Email, string(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrCodeRequired):
			h.writeStatus(w, http.StatusForbidden, "Email and code are required.")
		case errors.Is(err, ErrCodeMismatch), errors.Is(err, ErrUserNotFound):
			h.writeStatus(w, http.StatusUnauthorized, "Invalid code for provided email address.")
		default:
			h.logger.Errorw("exchange code failed", "email", req.Email, "err", err)
			h.writeStatus(w, http.StatusInternalServerError, "Error issuing token.")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, StatusResponse{Message: msg, StatusCode: status})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
