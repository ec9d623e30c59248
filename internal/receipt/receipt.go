// Package receipt renders subscription payment receipts as PDF,
// entirely client-side with no network round-trip.
package receipt

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/rishta-app/rishta-client/internal/model"
)

// Data is everything a receipt shows.
type Data struct {
	UserName  string
	Order     model.Order
	Plan      string
	PaidAt    time.Time
	PaymentID string
}

// Write renders the receipt PDF to w.
func Write(w io.Writer, d Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Rishta - Payment Receipt")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Billed to", d.UserName},
		{"Order ID", d.Order.ID},
		{"Plan", d.Plan},
		{"Amount", formatAmount(d.Order.AmountPaise, d.Order.Currency)},
		{"Payment ID", d.PaymentID},
		{"Paid at", d.PaidAt.Format("02 Jan 2006 15:04")},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "This is a computer-generated receipt and does not require a signature.")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}
	return nil
}

// formatAmount renders a paise amount as a currency string, e.g.
// "INR 4999.00".
func formatAmount(paise int64, currency string) string {
	if currency == "" {
		currency = "INR"
	}
	return fmt.Sprintf("%s %d.%02d", currency, paise/100, paise%100)
}
