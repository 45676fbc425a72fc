package report

import (
	"fmt"
	"io"

	"fjacquet/bwa-report/internal/models"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer writes one A4 page per period with plain tables.
type PDFRenderer struct{}

const (
	pdfGroupWidth  = 55.0
	pdfCatWidth    = 70.0
	pdfCountWidth  = 20.0
	pdfAmountWidth = 35.0
	pdfLineHeight  = 7.0
)

func (r *PDFRenderer) Render(w io.Writer, rep Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	if !rep.GeneratedAt.IsZero() {
		pdf.SetCreationDate(rep.GeneratedAt)
		pdf.SetModificationDate(rep.GeneratedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(rep.Heading()), false)
	if rep.Organization != "" {
		pdf.SetAuthor(tr(rep.Organization), false)
	}

	if len(rep.Periods) == 0 {
		pdf.AddPage()
		r.heading(pdf, tr, rep, "")
	}
	for _, s := range rep.Periods {
		pdf.AddPage()
		r.heading(pdf, tr, rep, s.Label())

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(pdfGroupWidth, pdfLineHeight, tr("Super-group"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfCatWidth, pdfLineHeight, tr("Category"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfCountWidth, pdfLineHeight, tr("Count"), "1", 0, "R", true, 0, "")
		pdf.CellFormat(pdfAmountWidth, pdfLineHeight, tr("Amount"), "1", 1, "R", true, 0, "")

		for _, group := range s.SuperGroups() {
			pdf.SetFont("Helvetica", "", 10)
			for _, category := range s.CategoriesOf(group) {
				pdf.CellFormat(pdfGroupWidth, pdfLineHeight, tr(group), "1", 0, "L", false, 0, "")
				pdf.CellFormat(pdfCatWidth, pdfLineHeight, tr(category), "1", 0, "L", false, 0, "")
				pdf.CellFormat(pdfCountWidth, pdfLineHeight, fmt.Sprint(s.CategoryCounts[category]), "1", 0, "R", false, 0, "")
				pdf.CellFormat(pdfAmountWidth, pdfLineHeight, rep.amount(s.CategoryTotal(category)), "1", 1, "R", false, 0, "")
			}
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(pdfGroupWidth+pdfCatWidth+pdfCountWidth, pdfLineHeight, tr(group+" subtotal"), "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfAmountWidth, pdfLineHeight, rep.amount(s.SuperGroupTotal(group)), "1", 1, "R", false, 0, "")
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pdfGroupWidth+pdfCatWidth, pdfLineHeight, "Total", "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfCountWidth, pdfLineHeight, fmt.Sprint(s.Included), "1", 0, "R", true, 0, "")
		pdf.CellFormat(pdfAmountWidth, pdfLineHeight, rep.amount(s.Total), "1", 1, "R", true, 0, "")

		if s.Undated > 0 {
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(0, pdfLineHeight, fmt.Sprintf("%d undated transactions excluded", s.Undated), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

func (r *PDFRenderer) heading(pdf *fpdf.Fpdf, tr func(string) string, rep Report, period string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(rep.Heading()), "", 1, "L", false, 0, "")
	if rep.Organization != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 6, tr(rep.Organization), "", 1, "L", false, 0, "")
	}
	if period != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(period), "", 1, "L", false, 0, "")
	}
	if !rep.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, rep.GeneratedAt.Format(models.DateLayoutGerman), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}
