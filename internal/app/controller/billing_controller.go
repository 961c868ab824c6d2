package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

type BillingController struct {
	billingService service.BillingService
}

func NewBillingController(billingService service.BillingService) *BillingController {
	return &BillingController{billingService: billingService}
}

// CreateInvoice POST /api/v1/invoices
func (ctrl *BillingController) CreateInvoice(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sess, _ := middleware.GetSession(c)

	var req service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid invoice request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	invoice, err := ctrl.billingService.CreateInvoice(sess, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// CreateEstimate POST /api/v1/estimates
func (ctrl *BillingController) CreateEstimate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sess, _ := middleware.GetSession(c)

	var req service.CreateEstimateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid estimate request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	estimate, err := ctrl.billingService.CreateEstimate(sess, req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, estimate)
}

// ConvertEstimate POST /api/v1/estimates/:id/convert
func (ctrl *BillingController) ConvertEstimate(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	items, err := ctrl.billingService.ConvertEstimateToWorkItems(sess, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workItems": items,
		"count":     len(items),
	})
}

// CompletedWorkItems 청구 가능한 완료 작업
// GET /api/v1/clients/:id/completed-work-items
func (ctrl *BillingController) CompletedWorkItems(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 건축주 ID입니다")
		return
	}
	items, err := ctrl.billingService.CompletedWorkItems(sess, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workItems": items,
		"count":     len(items),
	})
}

// AmountWords GET /api/v1/invoices/:id/amount-words
func (ctrl *BillingController) AmountWords(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	words, err := ctrl.billingService.AmountInWords(sess, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, words)
}
