package handlers

import (
	"net/http"

	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
)

const recentProposals = 5

type DashboardHandler struct {
	clients   *services.ClientService
	proposals *services.ProposalService
}

func NewDashboardHandler(clients *services.ClientService, proposals *services.ProposalService) *DashboardHandler {
	return &DashboardHandler{clients: clients, proposals: proposals}
}

func (h *DashboardHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /{$}", protect(http.HandlerFunc(h.Show)))
}

type statusCount struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int64         `json:"count"`
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientCount, err := h.clients.Count(ctx)
	if err != nil {
		serverError(w, r, "count clients", err)
		return
	}
	proposalCount, err := h.proposals.Count(ctx)
	if err != nil {
		serverError(w, r, "count proposals", err)
		return
	}
	recent, err := h.proposals.Recent(ctx, recentProposals)
	if err != nil {
		serverError(w, r, "recent proposals", err)
		return
	}
	byStatus, err := h.proposals.CountByStatus(ctx)
	if err != nil {
		serverError(w, r, "count by status", err)
		return
	}
	counts := make([]statusCount, 0, len(models.Statuses))
	for _, st := range models.Statuses {
		counts = append(counts, statusCount{Status: st, Label: st.Label(), Count: byStatus[st]})
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"clients":   clientCount,
			"proposals": proposalCount,
			"recent":    recent,
			"by_status": counts,
		})
		return
	}
	render(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"ClientCount":   clientCount,
		"ProposalCount": proposalCount,
		"Recent":        recent,
		"StatusCounts":  counts,
	})
}
