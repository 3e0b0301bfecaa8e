package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// VoucherData carries everything printed on a gift voucher.
type VoucherData struct {
	Code       string    // redemption code
	ValueCHF   int64     // face value in whole francs
	Recipient  string    // who the voucher is for
	Message    string    // optional personal message from the buyer
	IssuedAt   time.Time // issue date
	SchoolName string
	SchoolAddr string
}

// RenderVoucher produces the printable gift voucher as a PDF document.
// Landscape layout so it prints like a certificate.
func RenderVoucher(d VoucherData) ([]byte, error) {
	doc := fpdf.New("L", "mm", "A5", "")
	doc.SetTitle("Gift voucher "+d.Code, false)
	doc.AddPage()

	w, h := doc.GetPageSize()
	doc.SetLineWidth(0.8)
	doc.Rect(8, 8, w-16, h-16, "D")

	doc.SetY(22)
	doc.SetFont("Helvetica", "B", 22)
	doc.CellFormat(0, 12, "Gift Voucher", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, d.SchoolName, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 28)
	doc.CellFormat(0, 14, fmt.Sprintf("CHF %d.-", d.ValueCHF), "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, "For "+d.Recipient, "", 1, "C", false, 0, "")

	if d.Message != "" {
		doc.Ln(2)
		doc.SetFont("Helvetica", "I", 11)
		doc.MultiCell(0, 6, `"`+d.Message+`"`, "", "C", false)
	}

	doc.Ln(4)
	doc.SetFont("Courier", "B", 16)
	doc.CellFormat(0, 10, d.Code, "", 1, "C", false, 0, "")

	doc.SetY(h - 24)
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 5, "Issued "+d.IssuedAt.Format("02.01.2006")+" by "+d.SchoolName+", "+d.SchoolAddr, "", 1, "C", false, 0, "")
	doc.CellFormat(0, 5, "Redeemable for any course or lesson. Quote the code when booking.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render voucher: %w", err)
	}
	return buf.Bytes(), nil
}
