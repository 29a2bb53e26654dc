package infra

// pdf.go — Transfer-note generation using go-pdf/fpdf.
// Every fulfilled restock request gets an A5 delivery slip that travels with
// the physical shipment: request id, product, quantity, origin/destination
// and the resulting stock levels on both sides.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

// TransferNote carries everything the delivery slip prints. The worker builds
// it from the fulfillment event rather than re-reading the database.
type TransferNote struct {
	RequestID          string
	ProductName        string
	SKU                string
	LocationName       string
	Amount             int
	FactoryStockAfter  int
	LocationStockAfter int
	CommittedAt        time.Time
}

// GenerateTransferNotePDF writes the delivery slip for one committed transfer.
// storagePath is created if needed; returns the absolute path of the file.
func GenerateTransferNotePDF(note TransferNote, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("transfer_%s.pdf", note.RequestID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "Stockroom", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Stock Transfer Note", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Transfer details ─────────────────────────────────────────────────────
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.4, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.6, 6, value, "", 1, "L", false, 0, "")
	}

	row("Request", note.RequestID)
	row("Date", note.CommittedAt.Format("02/01/2006 15:04"))
	row("Product", note.ProductName)
	row("SKU", note.SKU)
	row("Destination", note.LocationName)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, fmt.Sprintf("Quantity: %d units", note.Amount), "1", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Factory stock after transfer: %d", note.FactoryStockAfter), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Location stock after transfer: %d", note.LocationStockAfter), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// ── Signatures ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 8)
	half := contentW / 2
	pdf.CellFormat(half, 5, "Dispatched by: ____________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 5, "Received by: ____________________", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
