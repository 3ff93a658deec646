package spot

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	aentity "github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/analytics/entity"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/spot/entity"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-spotmaps-go/internal/view"
)

const (
	failedCredentials = "You entered invalid credentials!"
	maxBodyBytes      = 16 << 10
)

type Handler struct {
	svc    *Service
	view   *view.Renderer
	seo    config.SEO
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, renderer *view.Renderer, seo config.SEO, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, view: renderer, seo: seo, logger: logger}
}

// HomeParams is rendered by the index page.
type HomeParams struct {
	SEO     *config.SEO     `json:"seo,omitempty"`
	Results []aentity.Total `json:"results"`
}

// LogParams is rendered by the admin page.
type LogParams struct {
	SEO           *config.SEO    `json:"seo,omitempty"`
	OptionHistory []*entity.Vote `json:"optionHistory"`
	Error         *string        `json:"error"`
	Failed        string         `json:"failed,omitempty"`
}

type VoteRequest struct {
	Email  string `json:"email"`
	Choice string `json:"choice"`
}

type VoteResponse struct {
	Vote *entity.Vote `json:"vote"`
}

type statusResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// seoFor omits the page metadata from raw responses.
func (h *Handler) seoFor(r *http.Request) *config.SEO {
	if view.WantsRaw(r) {
		return nil
	}
	seo := h.seo
	return &seo
}

func errorFlag() *string {
	s := "Error"
	return &s
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	params := HomeParams{SEO: h.seoFor(r), Results: []aentity.Total{}}
	totals, err := h.svc.Totals(r.Context())
	if err != nil {
		h.logger.Errorw("load vote totals failed", "err", err)
	} else {
		params.Results = totals
	}
	h.view.Page(w, r, http.StatusOK, view.PageIndex, params)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	raw, ok := token.BearerToken(r)
	if !ok {
		h.writeStatus(w, http.StatusForbidden, "Not Authorization Header provided.")
		return
	}
	var req VoteRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeStatus(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	v, err := h.svc.CastVote(r.Context(), raw, req.Email, req.Choice)
	switch {
	case err == nil:
		view.JSON(w, http.StatusCreated, VoteResponse{Vote: v})
	case errors.Is(err, token.ErrMissingToken), errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrTokenMismatch):
		h.writeStatus(w, http.StatusUnauthorized, "Token is invalid for provided email address.")
	case errors.Is(err, ErrChoiceRequired):
		h.writeStatus(w, http.StatusBadRequest, "A spot choice is required.")
	case errors.Is(err, ErrChoiceTooLong):
		h.writeStatus(w, http.StatusBadRequest, "Spot choice is too long.")
	default:
		h.logger.Errorw("record vote failed", "email", req.Email, "err", err)
		h.writeStatus(w, http.StatusInternalServerError, "Error recording vote.")
	}
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	params := LogParams{SEO: h.seoFor(r)}
	history, err := h.svc.History(r.Context())
	if err != nil {
		h.logger.Errorw("load vote log failed", "err", err)
		params.Error = errorFlag()
	} else {
		params.OptionHistory = history
	}
	h.view.Page(w, r, http.StatusOK, view.PageAdmin, params)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	params := LogParams{SEO: h.seoFor(r)}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := h.svc.Reset(r.Context(), adminKey(r))
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.logger.Warnw("admin reset rejected", "remote", r.RemoteAddr)
		params.Failed = failedCredentials
		if history, herr := h.svc.History(r.Context()); herr == nil {
			params.OptionHistory = history
		} else {
			params.Error = errorFlag()
		}
		h.view.Page(w, r, http.StatusUnauthorized, view.PageAdmin, params)
		return
	case err != nil:
		h.logger.Errorw("clear vote log failed", "err", err)
		params.Error = errorFlag()
	default:
		params.OptionHistory = []*entity.Vote{}
	}
	h.view.Page(w, r, http.StatusOK, view.PageAdmin, params)
}

// adminKey reads the key field from a JSON body or a form.
func adminKey(r *http.Request) string {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Key
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostForm.Get("key")
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, msg string) {
	view.JSON(w, status, statusResponse{Message: msg, StatusCode: status})
}
