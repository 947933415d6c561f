package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aulanet/academia-api/internal/models"
	"github.com/aulanet/academia-api/internal/service"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
	"github.com/aulanet/academia-api/pkg/response"
)

// InvoiceHandler exposes invoice endpoints, including receipt linkage and
// the payments view.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	payments *service.PaymentService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService, payments *service.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, payments: payments}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by code"
// @Param from query string false "Issue date range start (YYYY-MM-DD)"
// @Param to query string false "Issue date range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter models.InvoiceFilter
	filter.StudentID = c.Query("studentId")
	filter.Status = models.InvoiceStatus(c.Query("status"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.From = queryDate(c, "from")
	filter.To = queryDate(c, "to")
	filter.Page, filter.PageSize = queryPaging(c)
	filter.SortOrder = c.Query("order")

	invoices, pagination, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination)
}

// Get godoc
// @Summary Get invoice detail
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Create godoc
// @Summary Create invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body service.CreateInvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// LinkReceipt godoc
// @Summary Link a receipt to an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Param receiptId path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/receipts/{receiptId} [post]
func (h *InvoiceHandler) LinkReceipt(c *gin.Context) {
	invoice, err := h.invoices.LinkReceipt(c.Request.Context(), c.Param("id"), c.Param("receiptId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// UnlinkReceipt godoc
// @Summary Unlink a receipt from an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Param receiptId path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/receipts/{receiptId} [delete]
func (h *InvoiceHandler) UnlinkReceipt(c *gin.Context) {
	invoice, err := h.invoices.UnlinkReceipt(c.Request.Context(), c.Param("id"), c.Param("receiptId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// MarkPaid godoc
// @Summary Mark invoice as directly paid
// @Description Only invoices without linked receipts can be paid directly;
// @Description linked invoices settle through their receipts.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payload body service.MarkPaidRequest true "Payment details"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	var req service.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.MarkPaid(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Payments godoc
// @Summary List payment events of an invoice
// @Description Payments derive from linked paid receipts, or from the
// @Description invoice's own payment fields when no receipts are linked.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/payments [get]
func (h *InvoiceHandler) Payments(c *gin.Context) {
	payments, err := h.payments.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ReversePayment godoc
// @Summary Reverse a payment event
// @Description Reverts the receipt or invoice behind the event to pending
// @Description and returns the refreshed payments view.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Param eventId path string true "Payment event ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/payments/{eventId} [delete]
func (h *InvoiceHandler) ReversePayment(c *gin.Context) {
	payments, err := h.payments.ReversePayment(c.Request.Context(), c.Param("id"), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Delete godoc
// @Summary Delete invoice
// @Description Linked receipts are detached before removal.
// @Tags Invoices
// @Param id path string true "Invoice ID"
// @Success 204
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.invoices.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
