package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/receipts"
	"github.com/mbodj/retam/internal/services"
	"github.com/mbodj/retam/internal/sharelink"
)

// SharedHandler serves receipts through signed links without
// authentication. Expired and tampered tokens are reported distinctly so
// recipients know whether to ask for a fresh link.
type SharedHandler struct {
	signer   *sharelink.Signer
	payments services.PaymentService
	renderer *receipts.Renderer
}

// NewSharedHandler creates a new SharedHandler instance.
func NewSharedHandler(signer *sharelink.Signer, payments services.PaymentService, renderer *receipts.Renderer) *SharedHandler {
	return &SharedHandler{
		signer:   signer,
		payments: payments,
		renderer: renderer,
	}
}

// verifyToken checks the token query parameter and resolves the payment it
// grants. It writes the error response itself and reports success.
func (h *SharedHandler) verifyToken(c *gin.Context) (string, bool) {
	token := c.Query("token")
	if token == "" {
		apierrors.BadRequest(c, "Missing token parameter", nil)
		return "", false
	}

	reference, err := h.signer.Verify(token)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Rejected share token", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		if errors.Is(err, sharelink.ErrLinkExpired) {
			apierrors.Forbidden(c, "This share link has expired")
			return "", false
		}
		apierrors.Forbidden(c, "Invalid share link")
		return "", false
	}

	return reference, true
}

// Receipt handles GET /api/v1/shared/receipt?token=.
// Streams the receipt PDF when the token checks out.
func (h *SharedHandler) Receipt(c *gin.Context) {
	reference, ok := h.verifyToken(c)
	if !ok {
		return
	}

	p, _, err := h.payments.GetPaymentByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			apierrors.NotFound(c, "Payment not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load payment", err)
		return
	}

	path := h.renderer.Path(p.Reference)
	if _, err := os.Stat(path); err != nil {
		apierrors.NotFound(c, "Receipt file not found")
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+receipts.FileName(p.Reference)+`"`)
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// ReceiptHTML handles GET /api/v1/shared/receipt/html?token=.
// Renders the receipt as an HTML page for recipients without a PDF viewer.
func (h *SharedHandler) ReceiptHTML(c *gin.Context) {
	reference, ok := h.verifyToken(c)
	if !ok {
		return
	}

	p, taxpayer, err := h.payments.GetPaymentByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			apierrors.NotFound(c, "Payment not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to load payment", err)
		return
	}

	page, err := receipts.RenderHTML(p, taxpayer)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to render receipt", err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
