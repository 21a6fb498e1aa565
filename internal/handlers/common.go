package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/validation"
	"github.com/dealflow/dealflow/internal/view"
	"go.uber.org/zap"
)

// Middleware wraps a handler, typically auth.Manager.RequireAuth.
type Middleware func(http.Handler) http.Handler

func render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		logger.FromContext(r.Context()).Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "template render error", http.StatusInternalServerError)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	render(w, r, http.StatusNotFound, "not_found.html", nil)
}

func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.FromContext(r.Context()).Error(msg, zap.Error(err))
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// fail maps a service error to a 404 or a 500.
func fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	serverError(w, r, msg, err)
}

// invalidInput answers 400 with the violations for API clients, or flashes
// the first one and redirects back for browsers.
func invalidInput(w http.ResponseWriter, r *http.Request, v validation.Violations, back string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	view.SetFlash(w, v.First())
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// done answers a successful mutation: payload as JSON, or flash + redirect.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, flash, location string) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	if flash != "" {
		view.SetFlash(w, flash)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
