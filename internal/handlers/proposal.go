package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealflow/dealflow/internal/export"
	"github.com/dealflow/dealflow/internal/forms"
	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
	"github.com/dealflow/dealflow/internal/validation"
	"github.com/dealflow/dealflow/internal/view"
	"go.uber.org/zap"
)

// newItemRows is the number of blank item rows on the creation form.
const newItemRows = 5

type ProposalHandler struct {
	proposals *services.ProposalService
	clients   *services.ClientService
	templates *services.TemplateService
	store     storage.ObjectStore
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewProposalHandler(proposals *services.ProposalService, clients *services.ClientService, templates *services.TemplateService, store storage.ObjectStore, m *metrics.Metrics) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, clients: clients, templates: templates, store: store, metrics: m, now: time.Now}
}

func (h *ProposalHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /proposals", protect(http.HandlerFunc(h.List)))
	mux.Handle("GET /proposals/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /proposals", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /proposals/{id}", protect(http.HandlerFunc(h.View)))
	mux.Handle("POST /proposals/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /proposals/{id}/status", protect(http.HandlerFunc(h.ChangeStatus)))
	mux.Handle("POST /proposals/{id}/discount", protect(http.HandlerFunc(h.ApplyDiscount)))
	mux.Handle("POST /proposals/{id}/items", protect(http.HandlerFunc(h.AddItem)))
	mux.Handle("POST /proposals/{id}/items/{item_id}/delete", protect(http.HandlerFunc(h.RemoveItem)))
	mux.Handle("POST /proposals/{id}/delete", protect(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /proposals/{id}/pdf", protect(http.HandlerFunc(h.PDF)))
}

func proposalURL(id uint) string { return fmt.Sprintf("/proposals/%d", id) }

func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.ProposalFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			v := validation.Violations{}
			validation.FromError(err, v)
			invalidInput(w, r, v, "/proposals")
			return
		}
		f.Status = st
	}
	list, err := h.proposals.List(r.Context(), f)
	if err != nil {
		serverError(w, r, "list proposals", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	render(w, r, http.StatusOK, "proposals.html", map[string]any{
		"Proposals": list,
		"Query":     f.Query,
		"Status":    string(f.Status),
	})
}

func (h *ProposalHandler) New(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context(), "")
	if err != nil {
		serverError(w, r, "list clients", err)
		return
	}
	if len(clients) == 0 {
		view.SetFlash(w, "Cadastre um cliente antes de criar propostas.")
		http.Redirect(w, r, "/clients/new", http.StatusSeeOther)
		return
	}
	templates, err := h.templates.List(r.Context())
	if err != nil {
		serverError(w, r, "list templates", err)
		return
	}
	selected, _ := strconv.ParseUint(r.URL.Query().Get("client_id"), 10, 64)
	render(w, r, http.StatusOK, "proposal_new.html", map[string]any{
		"Clients":        clients,
		"Templates":      templates,
		"SelectedClient": uint(selected),
		"DefaultTitle":   models.DefaultTitle(h.now()),
		"ItemRows":       make([]int, newItemRows),
	})
}

type itemInput struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type discountInput struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type proposalInput struct {
	ClientID     uint           `json:"client_id"`
	Title        string         `json:"title"`
	TemplateID   *uint          `json:"template_id"`
	Responsible  string         `json:"responsible"`
	PaymentTerms string         `json:"payment_terms"`
	ValidUntil   string         `json:"valid_until"`
	Items        []itemInput    `json:"items"`
	Discount     *discountInput `json:"discount"`
}

// readProposalInput reads a JSON body or the proposal form. Malformed item
// rows in forms are skipped.
func readProposalInput(r *http.Request, v validation.Violations) proposalInput {
	var in proposalInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			v["body"] = "invalid_json"
		}
		return in
	}
	if err := r.ParseForm(); err != nil {
		v["body"] = "invalid_form"
		return in
	}
	if id, err := strconv.ParseUint(r.FormValue("client_id"), 10, 64); err == nil {
		in.ClientID = uint(id)
	}
	if id, err := strconv.ParseUint(r.FormValue("template_id"), 10, 64); err == nil && id > 0 {
		tid := uint(id)
		in.TemplateID = &tid
	}
	in.Title = r.FormValue("title")
	in.Responsible = strings.TrimSpace(r.FormValue("responsible"))
	in.PaymentTerms = strings.TrimSpace(r.FormValue("payment_terms"))
	in.ValidUntil = r.FormValue("valid_until")
	for _, it := range forms.ParseLineItems(r.Form["description"], r.Form["quantity"], r.Form["unit_price"]) {
		in.Items = append(in.Items, itemInput{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	if kind := r.FormValue("tipo"); kind != "" {
		val, err := forms.ParseAmount(r.FormValue("valor"))
		if err != nil {
			v["valor"] = "invalid_amount"
		}
		in.Discount = &discountInput{Kind: kind, Value: val}
	}
	return in
}

func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	v := validation.Violations{}
	in := readProposalInput(r, v)
	validUntil, err := forms.ParseDate(in.ValidUntil)
	if err != nil {
		v["valid_until"] = "invalid_date"
	}
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !v.Empty() {
		invalidInput(w, r, v, "/proposals/new")
		return
	}
	ctx := r.Context()
	client, err := h.clients.Get(ctx, in.ClientID)
	if errors.Is(err, services.ErrNotFound) {
		invalidInput(w, r, validation.Violations{"client_id": "required"}, "/proposals/new")
		return
	}
	if err != nil {
		serverError(w, r, "get client", err)
		return
	}
	p, err := models.NewProposal(client, in.Title, h.now())
	if err != nil {
		validation.FromError(err, v)
		invalidInput(w, r, v, "/proposals/new")
		return
	}
	if !h.checkTemplate(w, r, in.TemplateID, "/proposals/new") {
		return
	}
	p.TemplateID = in.TemplateID
	p.Responsible = strings.TrimSpace(in.Responsible)
	p.PaymentTerms = strings.TrimSpace(in.PaymentTerms)
	p.SetValidUntil(validUntil)
	for _, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" || it.Quantity <= 0 {
			continue
		}
		p.AddItem(strings.TrimSpace(it.Description), it.Quantity, it.UnitPrice)
	}
	if in.Discount != nil {
		if err := p.ApplyDiscount(in.Discount.Kind, in.Discount.Value); err != nil {
			validation.FromError(err, v)
			invalidInput(w, r, v, "/proposals/new")
			return
		}
	}
	if err := h.proposals.Create(ctx, p); err != nil {
		serverError(w, r, "create proposal", err)
		return
	}
	logger.FromContext(ctx).Info("proposal created", zap.Uint("proposal_id", p.ID), zap.Uint("client_id", p.ClientID))
	done(w, r, http.StatusCreated, p, "Proposta criada.", proposalURL(p.ID))
}

// checkTemplate rejects a template id that does not exist.
func (h *ProposalHandler) checkTemplate(w http.ResponseWriter, r *http.Request, id *uint, back string) bool {
	if id == nil {
		return true
	}
	_, err := h.templates.Get(r.Context(), *id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, services.ErrNotFound):
		invalidInput(w, r, validation.Violations{"template_id": "not_found"}, back)
	default:
		serverError(w, r, "get template", err)
	}
	return false
}

func (h *ProposalHandler) load(w http.ResponseWriter, r *http.Request) (*models.Proposal, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return nil, false
	}
	p, err := h.proposals.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "get proposal", err)
		return nil, false
	}
	return p, true
}

func (h *ProposalHandler) View(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, proposalView(p))
		return
	}
	templates, err := h.templates.List(r.Context())
	if err != nil {
		serverError(w, r, "list templates", err)
		return
	}
	render(w, r, http.StatusOK, "proposal_detail.html", map[string]any{
		"Proposal":  p,
		"Templates": templates,
	})
}

// proposalView adds the computed amounts to the JSON representation.
func proposalView(p *models.Proposal) map[string]any {
	return map[string]any{
		"proposal":        p,
		"subtotal":        p.Subtotal(),
		"discount_amount": p.DiscountAmount(),
		"discount_label":  p.Discount.Label(),
		"total":           p.Total(),
	}
}

// Update edits the plain fields: title, responsible, validity, payment
// terms and template.
func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	v := validation.Violations{}
	in := readProposalInput(r, v)
	validUntil, err := forms.ParseDate(in.ValidUntil)
	if err != nil {
		v["valid_until"] = "invalid_date"
	}
	if !v.Empty() {
		invalidInput(w, r, v, proposalURL(p.ID))
		return
	}
	if !h.checkTemplate(w, r, in.TemplateID, proposalURL(p.ID)) {
		return
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		p.Title = title
	}
	p.Responsible = strings.TrimSpace(in.Responsible)
	p.PaymentTerms = strings.TrimSpace(in.PaymentTerms)
	p.SetValidUntil(validUntil)
	p.TemplateID = in.TemplateID
	p.Template = nil
	if err := h.proposals.Save(r.Context(), p); err != nil {
		serverError(w, r, "save proposal", err)
		return
	}
	done(w, r, http.StatusOK, proposalView(p), "Proposta atualizada.", proposalURL(p.ID))
}

func (h *ProposalHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	status := r.FormValue("status")
	if isJSONBody(r) {
		var in struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		status = in.Status
	}
	p, err := h.proposals.ChangeStatus(r.Context(), id, status)
	if err != nil {
		v := validation.Violations{}
		if validation.FromError(err, v) {
			invalidInput(w, r, v, proposalURL(id))
			return
		}
		fail(w, r, "change status", err)
		return
	}
	h.metrics.StatusChanged(string(p.Status))
	logger.FromContext(r.Context()).Info("proposal status changed", zap.Uint("proposal_id", id), zap.String("status", string(p.Status)))
	done(w, r, http.StatusOK, proposalView(p), "Status alterado para "+p.Status.Label()+".", proposalURL(id))
}

func (h *ProposalHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	var in discountInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	} else {
		in.Kind = r.FormValue("tipo")
		val, err := forms.ParseAmount(r.FormValue("valor"))
		if err != nil {
			invalidInput(w, r, validation.Violations{"valor": "invalid_amount"}, proposalURL(id))
			return
		}
		in.Value = val
	}
	p, err := h.proposals.ApplyDiscount(r.Context(), id, in.Kind, in.Value)
	if err != nil {
		v := validation.Violations{}
		if validation.FromError(err, v) {
			invalidInput(w, r, v, proposalURL(id))
			return
		}
		fail(w, r, "apply discount", err)
		return
	}
	done(w, r, http.StatusOK, proposalView(p), "Desconto aplicado.", proposalURL(id))
}

func (h *ProposalHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	var in itemInput
	v := validation.Violations{}
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		if in.Quantity <= 0 {
			v["quantity"] = "invalid_quantity"
		}
	} else {
		in.Description = r.FormValue("description")
		qty, err := forms.ParseQuantity(r.FormValue("quantity"))
		if err != nil {
			v["quantity"] = "invalid_quantity"
		}
		price, err := forms.ParseAmount(r.FormValue("unit_price"))
		if err != nil {
			v["unit_price"] = "invalid_amount"
		}
		in.Quantity, in.UnitPrice = qty, price
	}
	in.Description = strings.TrimSpace(in.Description)
	validation.Required("description", in.Description, v)
	if _, bad := v["unit_price"]; !bad {
		validation.NonNegativeFloat("unit_price", in.UnitPrice, v)
	}
	if !v.Empty() {
		invalidInput(w, r, v, proposalURL(id))
		return
	}
	p, item, err := h.proposals.AddItem(r.Context(), id, in.Description, in.Quantity, in.UnitPrice)
	if err != nil {
		fail(w, r, "add item", err)
		return
	}
	if httpx.WantsJSON(r) {
		out := proposalView(p)
		out["item"] = item
		httpx.JSON(w, http.StatusCreated, out)
		return
	}
	done(w, r, http.StatusCreated, nil, "Item adicionado.", proposalURL(id))
}

func (h *ProposalHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	itemID, ok2 := httpx.PathID(r, "item_id")
	if !ok || !ok2 {
		notFound(w, r)
		return
	}
	if err := h.proposals.RemoveItem(r.Context(), id, itemID); err != nil {
		fail(w, r, "remove item", err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": itemID}, "Item removido.", proposalURL(id))
}

func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	if err := h.proposals.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete proposal", err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "Proposta removida.", "/proposals")
}

// PDF renders the proposal with its template. A logo that cannot be read
// is logged and left out.
func (h *ProposalHandler) PDF(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	var logo []byte
	if p.Template != nil && p.Template.HasLogo() && h.store != nil {
		b, err := h.store.Get(r.Context(), p.Template.LogoRef)
		if err != nil {
			logger.FromContext(r.Context()).Warn("load template logo", zap.String("ref", p.Template.LogoRef), zap.Error(err))
		} else {
			logo = b
		}
	}
	out, err := export.ProposalPDF(p, p.Template, logo)
	if err != nil && logo != nil {
		logger.FromContext(r.Context()).Warn("render pdf with logo", zap.Error(err))
		out, err = export.ProposalPDF(p, p.Template, nil)
	}
	if err != nil {
		serverError(w, r, "render pdf", err)
		return
	}
	h.metrics.Exported("pdf")
	httpx.Attachment(w, "application/pdf", export.PDFFilename(p.ID), out)
}
