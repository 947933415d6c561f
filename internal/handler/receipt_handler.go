package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aulanet/academia-api/internal/models"
	"github.com/aulanet/academia-api/internal/service"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
	"github.com/aulanet/academia-api/pkg/response"
)

// ReceiptHandler exposes receipt endpoints.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// List godoc
// @Summary List receipts
// @Tags Receipts
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param invoiceId query string false "Filter by linked invoice"
// @Param status query string false "Filter by status"
// @Param from query string false "Issue date range start (YYYY-MM-DD)"
// @Param to query string false "Issue date range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	var filter models.ReceiptFilter
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	filter.InvoiceID = c.Query("invoiceId")
	filter.Status = models.ReceiptStatus(c.Query("status"))
	filter.From = queryDate(c, "from")
	filter.To = queryDate(c, "to")
	filter.Page, filter.PageSize = queryPaging(c)
	filter.SortOrder = c.Query("order")

	receipts, pagination, err := h.receipts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipts, pagination)
}

// Get godoc
// @Summary Get receipt detail
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.receipts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// Create godoc
// @Summary Issue receipt
// @Tags Receipts
// @Accept json
// @Produce json
// @Param payload body service.CreateReceiptRequest true "Receipt payload"
// @Success 201 {object} response.Envelope
// @Router /receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req service.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	receipt, err := h.receipts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// MarkPaid godoc
// @Summary Mark receipt as paid
// @Description Sets the paid status and payment date atomically.
// @Tags Receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param payload body service.MarkPaidRequest true "Payment details"
// @Success 200 {object} response.Envelope
// @Router /receipts/{id}/pay [post]
func (h *ReceiptHandler) MarkPaid(c *gin.Context) {
	var req service.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	receipt, err := h.receipts.MarkPaid(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// MarkPending godoc
// @Summary Revert receipt to pending
// @Description Clears the payment date along with the status.
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Router /receipts/{id}/unpay [post]
func (h *ReceiptHandler) MarkPending(c *gin.Context) {
	receipt, err := h.receipts.MarkPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// Delete godoc
// @Summary Delete receipt
// @Description Paid receipts cannot be deleted.
// @Tags Receipts
// @Param id path string true "Receipt ID"
// @Success 204
// @Router /receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *gin.Context) {
	if err := h.receipts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
