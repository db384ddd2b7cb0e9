package infra

// pdf.go: consolidation report of one agency for one day (go-pdf/fpdf).
// Sections: summary of the reconciliation, denominations, operations with
// commissions, per-agent results and data warnings.
//
// The output file is saved to storagePath/pv_{agence}_{date}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateConsolidationPDF writes the report and returns the file path.
func GenerateConsolidationPDF(c *dto.ConsolidationResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	fileName := fmt.Sprintf("pv_%s_%s.pdf", c.AgenceID, c.Date)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("PV de Caisse"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Agence %s — %s", c.Agence, dateFr(c.Date))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Summary ──────────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Synthèse")
	r := c.Resultat
	lines := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Solde de départ", r.SoldeDepart, false},
		{"Total opérations", r.TotalOperations, false},
		{"Total versements", r.TotalVersements, false},
		{"Total retraits", r.TotalRetraits, false},
		{"Solde final", r.SoldeFinal, true},
		{"Total caisse", r.TotalCaisse, false},
		{"Total coffre", r.TotalCoffre, false},
		{"Total espèces", r.TotalCash, true},
		{"Écart de caisse", r.EcartCaisse, true},
	}
	for _, l := range lines {
		style := ""
		if l.bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(contentW*0.6, 5, tr(l.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, tr(caisse.FormatMontant(l.value)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// ── Denominations ────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Coupures")
	cols := []float64{contentW * 0.25, contentW * 0.25, contentW * 0.25, contentW * 0.25}
	header(pdf, tr, cols, "Valeur", "Caisse", "Coffre", "Nombre")
	pdf.SetFont("Helvetica", "", 8)
	for _, d := range c.Coupures {
		pdf.CellFormat(cols[0], 5, tr(caisse.FormatMontant(d.Value)), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 5, tr(caisse.FormatMontant(d.CaisseQty)), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], 5, tr(caisse.FormatMontant(d.CoffreQty)), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], 5, d.Count().StringFixed(0), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// ── Operations ───────────────────────────────────────────────────────────
	if len(c.Operations) > 0 {
		section(pdf, tr, contentW, "Opérations")
		cols = []float64{contentW * 0.40, contentW * 0.10, contentW * 0.10, contentW * 0.20, contentW * 0.20}
		header(pdf, tr, cols, "Opération", "Sens", "Nombre", "Montant", "Commission")
		pdf.SetFont("Helvetica", "", 8)
		for _, op := range c.Operations {
			pdf.CellFormat(cols[0], 5, tr(tronquer(op.Nom, 40)), "", 0, "L", false, 0, "")
			pdf.CellFormat(cols[1], 5, string(op.Sens), "", 0, "C", false, 0, "")
			pdf.CellFormat(cols[2], 5, fmt.Sprintf("%d", op.Nombre), "", 0, "R", false, 0, "")
			pdf.CellFormat(cols[3], 5, tr(caisse.FormatMontant(op.Montant)), "", 0, "R", false, 0, "")
			pdf.CellFormat(cols[4], 5, tr(caisse.FormatMontant(op.Commission)), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	// ── Agents ───────────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Agents")
	cols = []float64{contentW * 0.40, contentW * 0.30, contentW * 0.30}
	header(pdf, tr, cols, "Agent", "Solde final", "Écart")
	pdf.SetFont("Helvetica", "", 8)
	for _, a := range c.Agents {
		pdf.CellFormat(cols[0], 5, a.UtilisateurID, "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 5, tr(caisse.FormatMontant(a.Resultat.SoldeFinal)), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2], 5, tr(caisse.FormatMontant(a.Resultat.EcartCaisse)), "", 1, "R", false, 0, "")
	}

	// ── Warnings ─────────────────────────────────────────────────────────────
	if len(c.Avertissements) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		for _, w := range c.Avertissements {
			pdf.MultiCell(contentW, 4, tr(fmt.Sprintf("PV %s ignoré : %s", w.RecordID, w.Detail)), "", "L", false)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Édité le "+time.Now().Format("02/01/2006 15:04")), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, w float64, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(w, 7, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func header(pdf *fpdf.Fpdf, tr func(string) string, cols []float64, labels ...string) {
	pdf.SetFont("Helvetica", "B", 8)
	for i, l := range labels {
		align := "R"
		if i == 0 {
			align = "L"
		}
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(cols[i], 5, tr(l), "B", ln, align, false, 0, "")
	}
}

func tronquer(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dateFr(iso string) string {
	d, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return d.Format("02/01/2006")
}
