package receipts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayment() (*models.Payment, *models.Taxpayer) {
	email := "a.diop@example.sn"
	agent := "M. Ndiaye"
	category := models.TaxBusinessLicense
	p := &models.Payment{
		ID:          1,
		TaxpayerID:  7,
		Reference:   "PAY-20260901-AB12CD",
		Amount:      decimal.NewFromInt(25000),
		Mode:        models.ModeOrangeMoney,
		PaymentDate: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		TaxCategory: &category,
		Agent:       &agent,
	}
	tp := &models.Taxpayer{
		ID:        7,
		Reference: "CONTRIB-2026-A3F9",
		Kind:      models.KindIndividual,
		Name:      "Awa Diop",
		Address:   "Rue 12, Medina, Dakar",
		Phone:     "+221771234567",
		Email:     &email,
	}
	return p, tp
}

func TestRender_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, logger.New("test"))
	require.NoError(t, err)

	p, tp := testPayment()
	name, err := r.Render(p, tp)
	require.NoError(t, err)
	assert.Equal(t, "recu_PAY-20260901-AB12CD.pdf", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestNewRenderer_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "receipts")
	_, err := NewRenderer(dir, logger.New("test"))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRenderHTML(t *testing.T) {
	p, tp := testPayment()

	html, err := RenderHTML(p, tp)
	require.NoError(t, err)
	assert.Contains(t, string(html), "PAY-20260901-AB12CD")
	assert.Contains(t, string(html), "Awa Diop")
	assert.Contains(t, string(html), "25000")
	assert.NotContains(t, string(html), "apr&egrave;s la date", "on-time payment must not carry the late banner")
}

func TestRenderHTML_LateBanner(t *testing.T) {
	p, tp := testPayment()
	p.PaymentDate = p.DueDate.AddDate(0, 0, 5)

	html, err := RenderHTML(p, tp)
	require.NoError(t, err)
	assert.Contains(t, string(html), "apr&egrave;s la date")
}

func TestQRPayload_IncludesContactInfo(t *testing.T) {
	p, tp := testPayment()

	payload := qrPayload(p, tp)
	assert.Contains(t, payload, p.Reference)
	assert.Contains(t, payload, tp.Name)
	assert.Contains(t, payload, tp.Phone)
	assert.Contains(t, payload, *tp.Email)
}
