package payments

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caseflow/internal/logger"
	"caseflow/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.GET("/new/failed", h.ListFailedPayments)
			payments.GET("/update/failed", h.ListFailedUpdatePayments)
			payments.PUT("/new/:id/reprocess", h.ReprocessPayment)
			payments.PUT("/update/:id/reprocess", h.ReprocessUpdatePayment)
			payments.POST("/update", h.CreateUpdatePayment)
		}
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// ListFailedPayments godoc
// @Summary      List failed payments
// @Description  Get all new-payment rows in FAILED status
// @Tags         payments
// @Produce      json
// @Success      200  {array}   Payment
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /payments/new/failed [get]
func (h *Handler) ListFailedPayments(c *gin.Context) {
	failed, err := h.service.FailedPayments(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, failed)
}

// ListFailedUpdatePayments godoc
// @Summary      List failed payment updates
// @Description  Get all update-payment rows in FAILED status
// @Tags         payments
// @Produce      json
// @Success      200  {array}   UpdatePayment
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /payments/update/failed [get]
func (h *Handler) ListFailedUpdatePayments(c *gin.Context) {
	failed, err := h.service.FailedUpdatePayments(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, failed)
}

// ReprocessPayment godoc
// @Summary      Reprocess a payment
// @Description  Retry the payment-processor call for a stored payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  Payment
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      502  {object}  errors.ErrorResponse
// @Router       /payments/new/{id}/reprocess [put]
func (h *Handler) ReprocessPayment(c *gin.Context) {
	payment, err := h.service.ReprocessNewPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if payment != nil {
			// The processor rejected it again: report the failure with the
			// refreshed row so the operator sees the new status message.
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   err.Error(),
				"payment": payment,
			})
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ReprocessUpdatePayment godoc
// @Summary      Reprocess a payment update
// @Description  Retry the payment-processor call for a stored payment update
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Update payment ID"
// @Success      200  {object}  UpdatePayment
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      502  {object}  errors.ErrorResponse
// @Router       /payments/update/{id}/reprocess [put]
func (h *Handler) ReprocessUpdatePayment(c *gin.Context) {
	payment, err := h.service.ReprocessUpdatePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if payment != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   err.Error(),
				"payment": payment,
			})
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// CreateUpdatePaymentRequest re-points payments from an exception record to
// the case it was resolved to.
type CreateUpdatePaymentRequest struct {
	EnvelopeID         string `json:"envelope_id" binding:"required"`
	Jurisdiction       string `json:"jurisdiction" binding:"required"`
	ExceptionRecordRef string `json:"exception_record_ref" binding:"required"`
	NewCaseRef         string `json:"new_case_ref" binding:"required"`
}

// CreateUpdatePayment godoc
// @Summary      Record a payment update
// @Description  Re-point payments from an exception record to a service case
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        update  body      CreateUpdatePaymentRequest  true  "Payment update"
// @Success      201     {object}  UpdatePayment
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      500     {object}  errors.ErrorResponse
// @Router       /payments/update [post]
func (h *Handler) CreateUpdatePayment(c *gin.Context) {
	var req CreateUpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	payment, err := h.service.UpdatePayment(c.Request.Context(),
		req.EnvelopeID, req.Jurisdiction, req.ExceptionRecordRef, req.NewCaseRef)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}
