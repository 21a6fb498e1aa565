package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dealflow/dealflow/internal/export"
	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	proposals *services.ProposalService
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewReportHandler(proposals *services.ProposalService, m *metrics.Metrics) *ReportHandler {
	return &ReportHandler{proposals: proposals, metrics: m, now: time.Now}
}

func (h *ReportHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /reports/proposals.xlsx", protect(http.HandlerFunc(h.ProposalsXLSX)))
}

// ProposalsXLSX downloads every proposal as a workbook.
func (h *ReportHandler) ProposalsXLSX(w http.ResponseWriter, r *http.Request) {
	all, err := h.proposals.All(r.Context())
	if err != nil {
		serverError(w, r, "load proposals", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, all); err != nil {
		serverError(w, r, "write xlsx", err)
		return
	}
	h.metrics.Exported("xlsx")
	httpx.Attachment(w, xlsxContentType, filepath.Base(export.DefaultXLSXPath("", h.now())), buf.Bytes())
}
