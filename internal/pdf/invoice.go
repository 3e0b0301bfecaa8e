// Package pdf renders the documents that accompany a paid booking:
// the invoice for bank-transfer customers and the printable gift
// voucher. Renderers are pure functions from data to bytes so they can
// be exercised without a database or broker.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// InvoiceNumber derives a stable, human-readable invoice number from
// the booking id, so re-rendering the same booking always yields the
// same number.
func InvoiceNumber(bookingID string, issued time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(bookingID, "-", ""))
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("INV-%d-%s", issued.Year(), short)
}

// InvoiceLine is one billed position on an invoice.
type InvoiceLine struct {
	Description string // what is billed
	Quantity    int    // number of units
	UnitCHF     int64  // price per unit in whole francs
	TotalCHF    int64  // line total in whole francs
}

// InvoiceData carries everything printed on an invoice.
type InvoiceData struct {
	Number       string    // invoice number, e.g. INV-2026-4F2A9C
	IssuedAt     time.Time // issue date
	DueAt        time.Time // payment deadline
	CustomerName string
	CustomerMail string
	Lines        []InvoiceLine
	TotalCHF     int64  // invoice total in whole francs
	IBAN         string // account to transfer to
	SchoolName   string
	SchoolAddr   string
}

// RenderInvoice produces the invoice as a PDF document.
func RenderInvoice(d InvoiceData) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice "+d.Number, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, d.SchoolName)
	doc.Ln(7)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, d.SchoolAddr)
	doc.Ln(14)

	doc.SetFont("Helvetica", "B", 14)
	doc.Cell(0, 8, "Invoice "+d.Number)
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, "Billed to: "+d.CustomerName+" <"+d.CustomerMail+">")
	doc.Ln(6)
	doc.Cell(0, 6, "Issued: "+d.IssuedAt.Format("02.01.2006"))
	doc.Ln(6)
	doc.Cell(0, 6, "Payable until: "+d.DueAt.Format("02.01.2006"))
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(100, 7, "Description", "B", 0, "L", false, 0, "")
	doc.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, "Unit (CHF)", "B", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, "Total (CHF)", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, line := range d.Lines {
		doc.CellFormat(100, 7, line.Description, "", 0, "L", false, 0, "")
		doc.CellFormat(20, 7, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, fmt.Sprintf("%d.00", line.UnitCHF), "", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, fmt.Sprintf("%d.00", line.TotalCHF), "", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(155, 8, "Total", "T", 0, "R", false, 0, "")
	doc.CellFormat(35, 8, fmt.Sprintf("CHF %d.00", d.TotalCHF), "T", 1, "R", false, 0, "")

	doc.Ln(12)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, "Please transfer the amount to:")
	doc.Ln(6)
	doc.SetFont("Helvetica", "B", 10)
	doc.Cell(0, 6, "IBAN "+d.IBAN)
	doc.Ln(6)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, "Reference: "+d.Number)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
