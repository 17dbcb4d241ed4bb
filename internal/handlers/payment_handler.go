package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/services"
	"github.com/mbodj/retam/internal/sharelink"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	service services.PaymentService
	signer  *sharelink.Signer
	baseURL string
}

// NewPaymentHandler creates a new PaymentHandler instance. baseURL is the
// public prefix used when building shareable receipt links.
func NewPaymentHandler(service services.PaymentService, signer *sharelink.Signer, baseURL string) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		signer:  signer,
		baseURL: baseURL,
	}
}

// PaymentRequest is the payload for recording a payment.
type PaymentRequest struct {
	TaxpayerID  int64   `json:"taxpayerId" binding:"required"`
	Amount      string  `json:"amount" binding:"required"`
	Mode        string  `json:"mode" binding:"required"`
	PaymentDate *string `json:"paymentDate"`
	DueDate     *string `json:"dueDate"`
	TaxCategory *string `json:"taxCategory"`
	Agent       *string `json:"agent"`
	Notes       *string `json:"notes"`
}

// PaymentListResponse wraps a payment collection.
type PaymentListResponse struct {
	Payments []models.Payment `json:"payments"`
	Count    int              `json:"count"`
}

// ShareLinkResponse carries a signed receipt link and its expiry.
type ShareLinkResponse struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (req *PaymentRequest) toModel() (*models.Payment, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errors.New("amount must be a decimal number")
	}

	p := &models.Payment{
		TaxpayerID: req.TaxpayerID,
		Amount:     amount,
		Mode:       models.PaymentMode(req.Mode),
		Agent:      req.Agent,
		Notes:      req.Notes,
	}
	if req.TaxCategory != nil {
		category := models.TaxCategory(*req.TaxCategory)
		p.TaxCategory = &category
	}
	if req.PaymentDate != nil {
		d, err := time.Parse("2006-01-02", *req.PaymentDate)
		if err != nil {
			return nil, errors.New("paymentDate must be formatted as YYYY-MM-DD")
		}
		p.PaymentDate = d
	}
	if req.DueDate != nil {
		d, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, errors.New("dueDate must be formatted as YYYY-MM-DD")
		}
		p.DueDate = d
	}
	return p, nil
}

// Create handles POST /api/v1/payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := req.toModel()
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if err := h.service.RecordPayment(c.Request.Context(), p, requestUser(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount),
			errors.Is(err, services.ErrInvalidPaymentMode):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrTaxpayerNotFound):
			apierrors.NotFound(c, "Taxpayer not found")
		default:
			apierrors.InternalServerError(c, "Failed to record payment", err)
		}
		return
	}

	if log != nil {
		log.Info("Payment recorded via API", map[string]interface{}{
			"payment_id": p.ID,
			"reference":  p.Reference,
		})
	}

	c.JSON(http.StatusCreated, p)
}

// Get handles GET /api/v1/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			apierrors.NotFound(c, "Payment not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get payment", err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListByTaxpayer handles GET /api/v1/taxpayers/:id/payments.
func (h *PaymentHandler) ListByTaxpayer(c *gin.Context) {
	taxpayerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), taxpayerID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list payments", err)
		return
	}

	c.JSON(http.StatusOK, PaymentListResponse{Payments: payments, Count: len(payments)})
}

// ShareLink handles POST /api/v1/payments/:id/share-link.
// Issues a signed link granting anonymous access to the payment's receipt.
func (h *PaymentHandler) ShareLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			apierrors.NotFound(c, "Payment not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get payment", err)
		return
	}

	token, err := h.signer.Issue(p.Reference)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to issue share link", err)
		return
	}

	c.JSON(http.StatusOK, ShareLinkResponse{
		URL:       fmt.Sprintf("%s/api/v1/shared/receipt?token=%s", h.baseURL, token),
		Token:     token,
		ExpiresAt: time.Now().Add(h.signer.TTL()),
	})
}
