// Package report renders the downloadable PDF reports.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

// compressStreams is switched off by tests so page text can be inspected.
var compressStreams = true

const (
	pageWidth   = 190.0
	colDate     = 35.0
	colAmount   = 45.0
	colMember   = pageWidth - colDate - colAmount
	lineHeight  = 7.0
	emptyNotice = "Nenhum pagamento registrado."
)

type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string, generatedAt time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compressStreams)
	pdf.SetTitle(title, true)
	pdf.SetCreator("academy", true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, d.tr("Página "+strconv.Itoa(pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, d.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, d.tr("Gerado em "+generatedAt.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return d
}

func (d *document) heading(text string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.CellFormat(0, 8, d.tr(text), "B", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

func (d *document) line(text string) {
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.CellFormat(0, lineHeight, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *document) payments(payments []model.Payment) {
	if len(payments) == 0 {
		d.pdf.SetFont("Helvetica", "I", 10)
		d.pdf.CellFormat(0, lineHeight, d.tr(emptyNotice), "", 1, "L", false, 0, "")
		return
	}

	header := func() {
		d.pdf.SetFont("Helvetica", "B", 10)
		d.pdf.SetFillColor(230, 230, 230)
		d.pdf.CellFormat(colDate, lineHeight, "Data", "1", 0, "L", true, 0, "")
		d.pdf.CellFormat(colMember, lineHeight, "Aluno", "1", 0, "L", true, 0, "")
		d.pdf.CellFormat(colAmount, lineHeight, "Valor", "1", 1, "R", true, 0, "")
	}
	header()

	_, pageHeight := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	d.pdf.SetFont("Helvetica", "", 10)
	for _, p := range payments {
		if d.pdf.GetY()+lineHeight > pageHeight-bottom {
			d.pdf.AddPage()
			header()
			d.pdf.SetFont("Helvetica", "", 10)
		}
		d.pdf.CellFormat(colDate, lineHeight, p.PaymentDate.Format("02/01/2006"), "1", 0, "L", false, 0, "")
		d.pdf.CellFormat(colMember, lineHeight, d.tr(p.PayerLabel()), "1", 0, "L", false, 0, "")
		d.pdf.CellFormat(colAmount, lineHeight, d.tr(p.Amount.String()), "1", 1, "R", false, 0, "")
	}
}

func (d *document) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// WriteGeneral renders the general report: member counts, total revenue and
// every payment on record.
func WriteGeneral(w io.Writer, g *General) error {
	d := newDocument("Relatório Geral da Academia", g.GeneratedAt)

	d.heading("Resumo de Alunos")
	d.line(fmt.Sprintf("Alunos Ativos: %d", g.ActiveMembers))
	d.line(fmt.Sprintf("Alunos Pendentes: %d", g.PendingMembers))
	d.line(fmt.Sprintf("Total de Alunos: %d", g.ActiveMembers+g.PendingMembers))

	d.heading("Resumo da Receita")
	d.line("Receita Total: " + g.TotalRevenue.String())
	d.line(fmt.Sprintf("Pagamentos Registrados: %d", len(g.Payments)))

	d.heading("Detalhes dos Pagamentos")
	d.payments(g.Payments)

	return d.output(w)
}

// WriteDaily renders the report of a single day.
func WriteDaily(w io.Writer, r *Daily) error {
	d := newDocument("Relatório do Dia", r.GeneratedAt)

	d.heading("Resumo do Dia " + r.Date.Format("02/01/2006"))
	d.line(fmt.Sprintf("Novos Alunos: %d", r.NewMembers))
	d.line(fmt.Sprintf("Pagamentos do Dia: %d", len(r.Payments)))
	d.line("Lucro do Dia: " + r.Profit.String())

	d.heading("Situação dos Alunos")
	d.line(fmt.Sprintf("Alunos Ativos: %d", r.ActiveMembers))
	d.line(fmt.Sprintf("Alunos Pendentes: %d", r.PendingMembers))

	d.heading("Pagamentos do Dia")
	d.payments(r.Payments)

	return d.output(w)
}
