package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/services"
	"github.com/shopspring/decimal"
)

// TaxpayerHandler handles taxpayer-related HTTP requests.
type TaxpayerHandler struct {
	service services.TaxpayerService
}

// NewTaxpayerHandler creates a new TaxpayerHandler instance.
func NewTaxpayerHandler(service services.TaxpayerService) *TaxpayerHandler {
	return &TaxpayerHandler{service: service}
}

// TaxpayerRequest is the payload for creating or updating a taxpayer.
type TaxpayerRequest struct {
	FiscalID    *string `json:"fiscalId"`
	Kind        string  `json:"kind" binding:"required,oneof=individual company"`
	Name        string  `json:"name" binding:"required,max=200"`
	Address     string  `json:"address" binding:"required"`
	Phone       string  `json:"phone" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	TaxCategory *string `json:"taxCategory"`
	DueDate     *string `json:"dueDate"`
	AmountDue   string  `json:"amountDue"`
	Active      *bool   `json:"active"`
	NotifyLate  bool    `json:"notifyLate"`
}

// TaxpayerListResponse wraps a taxpayer collection.
type TaxpayerListResponse struct {
	Taxpayers []models.Taxpayer `json:"taxpayers"`
	Count     int               `json:"count"`
}

// toModel converts the request into a taxpayer, validating the amount and
// date formats.
func (req *TaxpayerRequest) toModel(id int64) (*models.Taxpayer, error) {
	tp := &models.Taxpayer{
		ID:         id,
		FiscalID:   req.FiscalID,
		Kind:       models.TaxpayerKind(req.Kind),
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Email:      req.Email,
		Active:     true,
		NotifyLate: req.NotifyLate,
	}
	if req.Active != nil {
		tp.Active = *req.Active
	}
	if req.TaxCategory != nil {
		category := models.TaxCategory(*req.TaxCategory)
		tp.TaxCategory = &category
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, errors.New("dueDate must be formatted as YYYY-MM-DD")
		}
		tp.DueDate = &due
	}
	if req.AmountDue != "" {
		amount, err := decimal.NewFromString(req.AmountDue)
		if err != nil {
			return nil, errors.New("amountDue must be a decimal number")
		}
		tp.AmountDue = amount
	}
	return tp, nil
}

// requestUser reads the acting username forwarded by the frontend proxy.
func requestUser(c *gin.Context) string {
	return c.GetHeader("X-User")
}

// List handles GET /api/v1/taxpayers.
func (h *TaxpayerHandler) List(c *gin.Context) {
	search := c.Query("search")
	activeOnly := c.Query("active") == "true"

	taxpayers, err := h.service.ListTaxpayers(c.Request.Context(), search, activeOnly)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list taxpayers", err)
		return
	}

	c.JSON(http.StatusOK, TaxpayerListResponse{Taxpayers: taxpayers, Count: len(taxpayers)})
}

// Get handles GET /api/v1/taxpayers/:id.
func (h *TaxpayerHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tp, err := h.service.GetTaxpayer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaxpayerNotFound) {
			apierrors.NotFound(c, "Taxpayer not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get taxpayer", err)
		return
	}

	c.JSON(http.StatusOK, tp)
}

// Create handles POST /api/v1/taxpayers.
func (h *TaxpayerHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req TaxpayerRequest
	if !bindJSON(c, &req) {
		return
	}

	tp, err := req.toModel(0)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if err := h.service.CreateTaxpayer(c.Request.Context(), tp, requestUser(c)); err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if log != nil {
		log.Info("Taxpayer created via API", map[string]interface{}{
			"taxpayer_id": tp.ID,
			"reference":   tp.Reference,
		})
	}

	c.JSON(http.StatusCreated, tp)
}

// Update handles PUT /api/v1/taxpayers/:id.
func (h *TaxpayerHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TaxpayerRequest
	if !bindJSON(c, &req) {
		return
	}

	tp, err := req.toModel(id)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if err := h.service.UpdateTaxpayer(c.Request.Context(), tp, requestUser(c)); err != nil {
		if errors.Is(err, services.ErrTaxpayerNotFound) {
			apierrors.NotFound(c, "Taxpayer not found")
			return
		}
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, tp)
}

// Delete handles DELETE /api/v1/taxpayers/:id.
func (h *TaxpayerHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteTaxpayer(c.Request.Context(), id, requestUser(c)); err != nil {
		if errors.Is(err, services.ErrTaxpayerNotFound) {
			apierrors.NotFound(c, "Taxpayer not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to delete taxpayer", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// History handles GET /api/v1/taxpayers/:id/history.
func (h *TaxpayerHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load modification history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"count":   len(entries),
	})
}
