package export

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/money"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const maxDescriptionRunes = 60

// PDFFilename is the download name of a proposal document.
func PDFFilename(id uint) string {
	return "proposta_" + strconv.FormatUint(uint64(id), 10) + ".pdf"
}

// ProposalPDF renders a single proposal on A4 pages. tpl and logo are
// optional; the logo must be a PNG or JPEG image.
func ProposalPDF(p *models.Proposal, tpl *models.Template, logo []byte) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(20).
		WithRightMargin(20).
		WithTopMargin(20).
		Build()
	m := maroto.New(cfg)

	if tpl == nil {
		tpl = &models.Template{}
	}
	r, g, b := tpl.RGB()
	primary := &props.Color{Red: r, Green: g, Blue: b}
	title, responsible, terms := tpl.Resolve(p)

	if tpl.FooterText != "" {
		if err := m.RegisterFooter(text.NewRow(8, tpl.FooterText, props.Text{Size: 8, Align: align.Center})); err != nil {
			return nil, fmt.Errorf("register footer: %w", err)
		}
	}

	heading := text.NewCol(9, fmt.Sprintf("Proposta #%d", p.ID), props.Text{Size: 14, Style: fontstyle.Bold, Color: primary})
	if len(logo) > 0 {
		ext, err := imageExtension(logo)
		if err != nil {
			return nil, err
		}
		m.AddRow(20, heading, image.NewFromBytesCol(3, logo, ext, props.Rect{Center: true, Percent: 90}))
	} else {
		m.AddRow(12, heading)
	}

	field := func(label, value string) {
		if value == "" {
			return
		}
		m.AddRow(6,
			text.NewCol(4, label+":", props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewCol(8, value, props.Text{Size: 10}),
		)
	}
	doc, contact := "", ""
	if p.Client != nil {
		doc, contact = p.Client.Document, p.Client.Contact
	}
	field("Título", title)
	field("Cliente", p.ClientName())
	field("Documento", doc)
	field("Contato", contact)
	field("Status", p.Status.Label())
	field("Data de criação", formatTime(p.CreatedAt, "02/01/2006 15:04"))
	field("Validade", p.FormatValidUntil("02/01/2006"))
	field("Responsável", responsible)
	field("Condições de pagamento", terms)

	if tpl.IntroText != "" {
		m.AddRow(4)
		m.AddAutoRow(text.NewCol(12, tpl.IntroText, props.Text{Size: 10}))
	}

	section := func(name string) {
		m.AddRow(4)
		m.AddRows(text.NewRow(8, name, props.Text{Size: 11, Style: fontstyle.Bold, Color: primary}))
	}

	section("Resumo financeiro")
	field("Subtotal", money.Format(p.Subtotal()))
	m.AddRow(6,
		text.NewCol(4, "Desconto:", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(8, money.Format(p.DiscountAmount())+discountSuffix(p.Discount), props.Text{Size: 10}),
	)
	field("Total", money.Format(p.Total()))

	section("Itens da proposta")
	if len(p.Items) == 0 {
		m.AddRows(text.NewRow(6, "Nenhum item cadastrado.", props.Text{Size: 10}))
	} else {
		m.AddRows(itemRow(true, "Descrição", "Qtd", "Unitário", "Total").
			WithStyle(&props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}}))
		for i := range p.Items {
			it := &p.Items[i]
			m.AddRows(itemRow(false,
				truncate(it.Description, maxDescriptionRunes),
				strconv.Itoa(it.Quantity),
				money.Format(it.UnitPrice),
				money.Format(it.Total()),
			))
		}
	}

	if tpl.TermsText != "" {
		section("Termos e condições")
		m.AddAutoRow(text.NewCol(12, tpl.TermsText, props.Text{Size: 9}))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func itemRow(header bool, desc, qty, unit, total string) core.Row {
	style := fontstyle.Normal
	if header {
		style = fontstyle.Bold
	}
	left := props.Text{Size: 9, Style: style, Top: 1}
	right := props.Text{Size: 9, Style: style, Top: 1, Align: align.Right}
	return row.New(6).Add(
		text.NewCol(6, desc, left),
		text.NewCol(1, qty, right),
		col.New(1),
		text.NewCol(2, unit, right),
		text.NewCol(2, total, right),
	)
}

func discountSuffix(d models.Discount) string {
	if d.Kind == models.DiscountPercentage {
		return " (" + d.Label() + ")"
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func imageExtension(b []byte) (extension.Type, error) {
	switch http.DetectContentType(b) {
	case "image/png":
		return extension.Png, nil
	case "image/jpeg":
		return extension.Jpg, nil
	}
	return "", fmt.Errorf("unsupported logo format %q", http.DetectContentType(b))
}
