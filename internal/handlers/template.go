package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
	"github.com/dealflow/dealflow/internal/validation"
	"go.uber.org/zap"
)

const maxLogoSize = 2 << 20

type TemplateHandler struct {
	templates *services.TemplateService
	store     storage.ObjectStore
}

func NewTemplateHandler(templates *services.TemplateService, store storage.ObjectStore) *TemplateHandler {
	return &TemplateHandler{templates: templates, store: store}
}

func (h *TemplateHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /templates", protect(http.HandlerFunc(h.List)))
	mux.Handle("GET /templates/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /templates", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /templates/{id}", protect(http.HandlerFunc(h.View)))
	mux.Handle("POST /templates/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /templates/{id}/delete", protect(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /templates/{id}/logo", protect(http.HandlerFunc(h.UploadLogo)))
	mux.Handle("GET /templates/{id}/logo", protect(http.HandlerFunc(h.Logo)))
}

func templateURL(id uint) string { return fmt.Sprintf("/templates/%d", id) }

type templateInput struct {
	Name                string `json:"name"`
	DefaultTitle        string `json:"default_title"`
	DefaultResponsible  string `json:"default_responsible"`
	DefaultPaymentTerms string `json:"default_payment_terms"`
	IntroText           string `json:"intro_text"`
	TermsText           string `json:"terms_text"`
	FooterText          string `json:"footer_text"`
	PrimaryColor        string `json:"primary_color"`
}

func readTemplateInput(r *http.Request) (templateInput, error) {
	var in templateInput
	if isJSONBody(r) {
		err := decodeJSON(r, &in)
		return in, err
	}
	in.Name = r.FormValue("name")
	in.DefaultTitle = r.FormValue("default_title")
	in.DefaultResponsible = r.FormValue("default_responsible")
	in.DefaultPaymentTerms = r.FormValue("default_payment_terms")
	in.IntroText = r.FormValue("intro_text")
	in.TermsText = r.FormValue("terms_text")
	in.FooterText = r.FormValue("footer_text")
	in.PrimaryColor = r.FormValue("primary_color")
	return in, nil
}

func (in templateInput) apply(t *models.Template) validation.Violations {
	t.Name = strings.TrimSpace(in.Name)
	t.DefaultTitle = strings.TrimSpace(in.DefaultTitle)
	t.DefaultResponsible = strings.TrimSpace(in.DefaultResponsible)
	t.DefaultPaymentTerms = strings.TrimSpace(in.DefaultPaymentTerms)
	t.IntroText = strings.TrimSpace(in.IntroText)
	t.TermsText = strings.TrimSpace(in.TermsText)
	t.FooterText = strings.TrimSpace(in.FooterText)
	t.PrimaryColor = strings.ToUpper(strings.TrimSpace(in.PrimaryColor))

	v := validation.Violations{}
	validation.Required("name", t.Name, v)
	validation.MaxLen("name", t.Name, 100, v)
	validation.HexColor("primary_color", t.PrimaryColor, v)
	return v
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.templates.List(r.Context())
	if err != nil {
		serverError(w, r, "list templates", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	render(w, r, http.StatusOK, "templates.html", map[string]any{"Templates": list})
}

func (h *TemplateHandler) New(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "template_form.html", map[string]any{
		"Template": &models.Template{PrimaryColor: models.DefaultPrimaryColor},
	})
}

func (h *TemplateHandler) formError(w http.ResponseWriter, r *http.Request, t *models.Template, v validation.Violations) {
	if httpx.WantsJSON(r) {
		status := http.StatusBadRequest
		if v["name"] == "taken" {
			status = http.StatusConflict
		}
		httpx.JSONError(w, status, "validation_failed", v)
		return
	}
	render(w, r, http.StatusBadRequest, "template_form.html", map[string]any{"Template": t, "Errors": v})
}

// save runs create or update and maps the known failures to violations.
func (h *TemplateHandler) save(w http.ResponseWriter, r *http.Request, t *models.Template, op func() error) bool {
	err := op()
	if err == nil {
		return true
	}
	v := validation.Violations{}
	switch {
	case errors.Is(err, services.ErrTemplateExists):
		v["name"] = "taken"
	case validation.FromError(err, v):
	default:
		fail(w, r, "save template", err)
		return false
	}
	h.formError(w, r, t, v)
	return false
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readTemplateInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	t := &models.Template{}
	if v := in.apply(t); !v.Empty() {
		h.formError(w, r, t, v)
		return
	}
	if !h.save(w, r, t, func() error { return h.templates.Create(r.Context(), t) }) {
		return
	}
	done(w, r, http.StatusCreated, t, "Template criado.", templateURL(t.ID))
}

func (h *TemplateHandler) load(w http.ResponseWriter, r *http.Request) (*models.Template, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return nil, false
	}
	t, err := h.templates.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "get template", err)
		return nil, false
	}
	return t, true
}

func (h *TemplateHandler) View(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, t)
		return
	}
	render(w, r, http.StatusOK, "template_form.html", map[string]any{"Template": t})
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	in, err := readTemplateInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := in.apply(t); !v.Empty() {
		h.formError(w, r, t, v)
		return
	}
	if t.PrimaryColor == "" {
		t.PrimaryColor = models.DefaultPrimaryColor
	}
	if !h.save(w, r, t, func() error { return h.templates.Update(r.Context(), t) }) {
		return
	}
	done(w, r, http.StatusOK, t, "Template atualizado.", templateURL(t.ID))
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), t.ID); err != nil {
		fail(w, r, "delete template", err)
		return
	}
	if t.HasLogo() {
		if err := h.store.Delete(r.Context(), t.LogoRef); err != nil {
			logger.FromContext(r.Context()).Warn("delete logo", zap.String("ref", t.LogoRef), zap.Error(err))
		}
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": t.ID}, "Template removido.", "/templates")
}

// UploadLogo stores a PNG or JPEG from the multipart field "logo" and
// replaces the previous one.
func (h *TemplateHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	back := templateURL(t.ID)
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoSize+1<<16)
	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		invalidInput(w, r, validation.Violations{"logo": "too_long"}, back)
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		invalidInput(w, r, validation.Violations{"logo": "required"}, back)
		return
	}
	defer file.Close()
	contentType, err := storage.ContentType(header.Filename)
	if err != nil {
		invalidInput(w, r, validation.Violations{"logo": "unsupported_type"}, back)
		return
	}
	key := storage.LogoKey(t.ID, header.Filename)
	if err := h.store.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		serverError(w, r, "store logo", err)
		return
	}
	if err := h.templates.SetLogo(r.Context(), t.ID, key); err != nil {
		fail(w, r, "set logo", err)
		return
	}
	if t.HasLogo() {
		if err := h.store.Delete(r.Context(), t.LogoRef); err != nil {
			logger.FromContext(r.Context()).Warn("delete previous logo", zap.String("ref", t.LogoRef), zap.Error(err))
		}
	}
	t.LogoRef = key
	done(w, r, http.StatusOK, t, "Logo enviado.", back)
}

func (h *TemplateHandler) Logo(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if !t.HasLogo() {
		notFound(w, r)
		return
	}
	b, err := h.store.Get(r.Context(), t.LogoRef)
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "load logo", err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(b))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(b)
}
