// Package export renders proposals as XLSX workbooks and PDF documents.
// Exporters only read the entities they are given.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/money"
	"github.com/xuri/excelize/v2"
)

const (
	SheetProposals = "Propostas"
	SheetItems     = "Itens"

	minColWidth = 12
	maxColWidth = 40
)

var (
	ProposalHeaders = []string{
		"ID", "Título", "Cliente", "Documento", "Contato", "Status",
		"Data Criação", "Validade", "Responsável", "Condições Pagamento",
		"Subtotal", "Desconto", "Total",
	}
	ItemHeaders = []string{
		"ID Proposta", "Título Proposta", "Cliente", "Descrição Item",
		"Quantidade", "Valor Unitário", "Total Item",
	}
)

// DefaultXLSXPath returns dir/propostas_YYYYMMDD_HHMMSS.xlsx.
func DefaultXLSXPath(dir string, now time.Time) string {
	return filepath.Join(dir, "propostas_"+now.Format("20060102_150405")+".xlsx")
}

// WriteXLSX writes the proposals workbook to w. Proposals must have their
// client and items loaded.
func WriteXLSX(w io.Writer, proposals []models.Proposal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetProposals); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetItems); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	var proposalRows, itemRows [][]any
	for i := range proposals {
		p := &proposals[i]
		doc, contact := "", ""
		if p.Client != nil {
			doc, contact = p.Client.Document, p.Client.Contact
		}
		proposalRows = append(proposalRows, []any{
			p.ID,
			p.Title,
			p.ClientName(),
			doc,
			contact,
			string(p.Status),
			formatTime(p.CreatedAt, "2006-01-02 15:04"),
			p.FormatValidUntil("2006-01-02"),
			p.Responsible,
			p.PaymentTerms,
			money.Round(p.Subtotal()),
			p.Discount.Label(),
			money.Round(p.Total()),
		})
		for j := range p.Items {
			it := &p.Items[j]
			itemRows = append(itemRows, []any{
				p.ID,
				p.Title,
				p.ClientName(),
				it.Description,
				it.Quantity,
				money.Round(it.UnitPrice),
				money.Round(it.Total()),
			})
		}
	}

	if err := writeSheet(f, SheetProposals, ProposalHeaders, proposalRows, header); err != nil {
		return err
	}
	if err := writeSheet(f, SheetItems, ItemHeaders, itemRows, header); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path, creating parent directories.
func SaveXLSX(path string, proposals []models.Proposal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteXLSX(out, proposals); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	widths := make([]int, len(headers))
	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
		}
		for c, v := range row {
			if n := utf8.RuneCountInString(cellText(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}
	for c, w := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, ColumnWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidth is the longest cell length plus 2, clamped to [12, 40].
func ColumnWidth(longest int) float64 {
	w := longest + 2
	if w < minColWidth {
		w = minColWidth
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return float64(w)
}

func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
