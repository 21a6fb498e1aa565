package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/validation"
)

type ClientHandler struct {
	clients   *services.ClientService
	proposals *services.ProposalService
}

func NewClientHandler(clients *services.ClientService, proposals *services.ProposalService) *ClientHandler {
	return &ClientHandler{clients: clients, proposals: proposals}
}

func (h *ClientHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /clients", protect(http.HandlerFunc(h.List)))
	mux.Handle("GET /clients/new", protect(http.HandlerFunc(h.New)))
	mux.Handle("POST /clients", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /clients/{id}", protect(http.HandlerFunc(h.View)))
	mux.Handle("POST /clients/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("POST /clients/{id}/delete", protect(http.HandlerFunc(h.Delete)))
}

type clientInput struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Contact  string `json:"contact"`
}

func readClientInput(r *http.Request) (clientInput, error) {
	var in clientInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			return in, err
		}
		return in, nil
	}
	in.Name = r.FormValue("name")
	in.Document = r.FormValue("document")
	in.Contact = r.FormValue("contact")
	return in, nil
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	clients, err := h.clients.List(r.Context(), query)
	if err != nil {
		serverError(w, r, "list clients", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, clients)
		return
	}
	render(w, r, http.StatusOK, "clients.html", map[string]any{"Clients": clients, "Query": query})
}

func (h *ClientHandler) New(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "client_form.html", map[string]any{"Client": &models.Client{}})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readClientInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	c, err := models.NewClient(in.Name, in.Document, in.Contact)
	if err == nil {
		err = h.clients.Create(r.Context(), c)
	}
	if err != nil {
		v := validation.Violations{}
		if !validation.FromError(err, v) {
			serverError(w, r, "create client", err)
			return
		}
		h.formError(w, r, &models.Client{Name: in.Name, Document: in.Document, Contact: in.Contact}, v)
		return
	}
	done(w, r, http.StatusCreated, c, "Cliente cadastrado.", fmt.Sprintf("/clients/%d", c.ID))
}

func (h *ClientHandler) formError(w http.ResponseWriter, r *http.Request, c *models.Client, v validation.Violations) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	render(w, r, http.StatusBadRequest, "client_form.html", map[string]any{"Client": c, "Errors": v})
}

func (h *ClientHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "get client", err)
		return
	}
	proposals, err := h.proposals.List(r.Context(), services.ProposalFilter{ClientID: id})
	if err != nil {
		serverError(w, r, "list client proposals", err)
		return
	}
	if httpx.WantsJSON(r) {
		c.Proposals = proposals
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	render(w, r, http.StatusOK, "client_detail.html", map[string]any{"Client": c, "Proposals": proposals})
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "get client", err)
		return
	}
	in, err := readClientInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Document = strings.TrimSpace(in.Document)
	c.Contact = strings.TrimSpace(in.Contact)
	if err := h.clients.Update(r.Context(), c); err != nil {
		v := validation.Violations{}
		if validation.FromError(err, v) {
			invalidInput(w, r, v, fmt.Sprintf("/clients/%d", id))
			return
		}
		fail(w, r, "update client", err)
		return
	}
	done(w, r, http.StatusOK, c, "Cliente atualizado.", fmt.Sprintf("/clients/%d", id))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		notFound(w, r)
		return
	}
	if err := h.clients.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete client", err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, "Cliente removido.", "/clients")
}
