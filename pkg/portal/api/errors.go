package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/portal-content/pkg/portal"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeNotFound            = "not_found"
	CodeValidation          = "validation"
	CodeSlugConflict        = "slug_conflict"
	CodeProviderAuth        = "provider_auth"
	CodeProviderTransport   = "provider_transport"
	CodeProviderUnavailable = "provider_unavailable"
	CodeUnknownProvider     = "unknown_provider"
	CodeInternal            = "internal"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP statuses
func statusFor(err error) (int, string) {
	switch {
	case portal.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, portal.ErrSlugConflict):
		return http.StatusConflict, CodeSlugConflict
	case errors.Is(err, portal.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, portal.ErrUnknownProvider):
		return http.StatusBadRequest, CodeUnknownProvider
	case portal.IsAuthError(err):
		return http.StatusBadGateway, CodeProviderAuth
	case errors.Is(err, portal.ErrTransport):
		return http.StatusBadGateway, CodeProviderTransport
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}
	var verr *portal.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Warn("Request rejected", "op", op, "path", r.URL.Path, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, what, key string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, ErrorResponse{Error: what + " not found: " + key, Code: CodeNotFound})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.fail(w, r, "decode request", &portal.ValidationError{Field: "body", Reason: err.Error()})
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request, family string, err error) {
	h.logger.Error("Provider unavailable", "family", family, "error", err)
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), Code: CodeProviderUnavailable})
}
