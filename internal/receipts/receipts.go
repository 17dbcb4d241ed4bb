// Package receipts renders payment receipts as PDF files with an embedded
// QR code, and an HTML variant for in-browser viewing.
package receipts

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

// Renderer writes receipt files under a base directory.
type Renderer struct {
	dir string
	log *logger.Logger
}

// NewRenderer creates a Renderer writing into dir, creating it if needed.
func NewRenderer(dir string, log *logger.Logger) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipts directory %s: %w", dir, err)
	}
	return &Renderer{dir: dir, log: log}, nil
}

// FileName returns the receipt file name for a payment reference.
func FileName(reference string) string {
	return fmt.Sprintf("recu_%s.pdf", reference)
}

// Path returns the absolute path of the receipt for a payment reference.
func (r *Renderer) Path(reference string) string {
	return filepath.Join(r.dir, FileName(reference))
}

// qrPayload builds the text encoded in the receipt QR code: the payment
// reference plus the taxpayer's contact details so a scan identifies who
// paid without a database lookup.
func qrPayload(p *models.Payment, tp *models.Taxpayer) string {
	payload := fmt.Sprintf("RETAM|%s|%s|%s|%s|%s",
		p.Reference, tp.Reference, tp.Name, tp.Phone, tp.Address)
	if tp.Email != nil {
		payload += "|" + *tp.Email
	}
	return payload
}

// Render writes the payment's PDF receipt and returns its file name.
func (r *Renderer) Render(p *models.Payment, tp *models.Taxpayer) (string, error) {
	qrPNG, err := qrcode.Encode(qrPayload(p, tp), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Recu de paiement", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Regie des taxes municipales", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Reference: %s", p.Reference), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)

	rows := [][2]string{
		{"Contribuable", fmt.Sprintf("%s (%s)", tp.Name, tp.Reference)},
		{"Adresse", tp.Address},
		{"Telephone", tp.Phone},
		{"Montant", fmt.Sprintf("%s FCFA", p.Amount.StringFixed(0))},
		{"Mode", string(p.Mode)},
		{"Date de paiement", p.PaymentDate.Format("02/01/2006")},
		{"Date d'echeance", p.DueDate.Format("02/01/2006")},
	}
	if p.TaxCategory != nil {
		rows = append(rows, [2]string{"Type de taxe", string(*p.TaxCategory)})
	}
	if p.Agent != nil {
		rows = append(rows, [2]string{"Agent", *p.Agent})
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 7, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, row[1], "B", 1, "L", false, 0, "")
	}

	if p.Late() {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(180, 30, 30)
		pdf.CellFormat(0, 7, "Paiement effectue apres la date d'echeance", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("receipt-qr", imgOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("receipt-qr", 160, 240, 35, 35, false, imgOpts, 0, "")

	name := FileName(p.Reference)
	path := filepath.Join(r.dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write receipt %s: %w", path, err)
	}

	r.log.Debug("Receipt rendered", map[string]interface{}{
		"reference": p.Reference,
		"path":      path,
	})
	return name, nil
}

var htmlTemplate = template.Must(template.New("receipt").Parse(`<!doctype html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Recu {{.Payment.Reference}}</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; color: #222; }
h1 { font-size: 1.4rem; border-bottom: 2px solid #0a384f; padding-bottom: .5rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
td { padding: .4rem .2rem; border-bottom: 1px solid #ddd; }
td:first-child { font-weight: bold; width: 35%; }
.late { color: #b41e1e; font-weight: bold; margin-top: 1rem; }
</style>
</head>
<body>
<h1>Recu de paiement {{.Payment.Reference}}</h1>
<table>
<tr><td>Contribuable</td><td>{{.Taxpayer.Name}} ({{.Taxpayer.Reference}})</td></tr>
<tr><td>Adresse</td><td>{{.Taxpayer.Address}}</td></tr>
<tr><td>Montant</td><td>{{.Amount}} FCFA</td></tr>
<tr><td>Mode</td><td>{{.Payment.Mode}}</td></tr>
<tr><td>Date de paiement</td><td>{{.Payment.PaymentDate.Format "02/01/2006"}}</td></tr>
<tr><td>Date d'&eacute;ch&eacute;ance</td><td>{{.Payment.DueDate.Format "02/01/2006"}}</td></tr>
</table>
{{if .Payment.Late}}<p class="late">Paiement effectu&eacute; apr&egrave;s la date d'&eacute;ch&eacute;ance</p>{{end}}
</body>
</html>
`))

// RenderHTML returns the receipt as a standalone HTML page.
func RenderHTML(p *models.Payment, tp *models.Taxpayer) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Payment  *models.Payment
		Taxpayer *models.Taxpayer
		Amount   string
	}{
		Payment:  p,
		Taxpayer: tp,
		Amount:   p.Amount.StringFixed(0),
	}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML receipt: %w", err)
	}
	return buf.Bytes(), nil
}
