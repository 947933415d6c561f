package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type invoiceRepository interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id string) error
}

type invoiceReceiptRepository interface {
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Receipt, error)
	Update(ctx context.Context, receipt *models.Receipt) error
}

// CreateInvoiceRequest represents payload for creating invoices.
type CreateInvoiceRequest struct {
	Code        string    `json:"code" validate:"required,max=50"`
	StudentID   *string   `json:"student_id"`
	TotalAmount float64   `json:"total_amount" validate:"min=0"`
	Date        time.Time `json:"date" validate:"required"`
}

// InvoiceService orchestrates invoice operations including receipt linkage.
type InvoiceService struct {
	repo             invoiceRepository
	receipts         invoiceReceiptRepository
	validator        *validator.Validate
	logger           *zap.Logger
	allowOverpayment bool
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(repo invoiceRepository, receipts invoiceReceiptRepository, validate *validator.Validate, logger *zap.Logger, allowOverpayment bool) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, receipts: receipts, validator: validate, logger: logger, allowOverpayment: allowOverpayment}
}

// List returns invoices plus pagination data.
func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, *models.Pagination, error) {
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	return invoices, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an invoice by id.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	return invoice, nil
}

// Create registers a new pending invoice.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}

	invoice := &models.Invoice{
		Code:        strings.TrimSpace(req.Code),
		StudentID:   normalizeOptional(req.StudentID),
		TotalAmount: req.TotalAmount,
		Date:        dateOnly(req.Date),
		Status:      models.InvoicePending,
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return invoice, nil
}

// LinkReceipt attaches a receipt to the invoice. When the overpayment
// guard is active, a link that would push the linked receipts' combined
// amount above the invoice total is rejected.
func (s *InvoiceService) LinkReceipt(ctx context.Context, invoiceID, receiptID string) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	for _, linked := range invoice.ReceiptIDs {
		if linked == receiptID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "receipt already linked")
		}
	}
	if receipt.InvoiceID != nil && *receipt.InvoiceID != invoiceID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "receipt linked to another invoice")
	}

	if !s.allowOverpayment {
		linked, err := s.receipts.FindByIDs(ctx, invoice.ReceiptIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked receipts")
		}
		sum := receipt.Amount
		for _, r := range linked {
			sum += r.Amount
		}
		if sum > invoice.TotalAmount {
			return nil, appErrors.ErrOverpayment
		}
	}

	invoice.ReceiptIDs = append(invoice.ReceiptIDs, receiptID)
	receipt.InvoiceID = &invoice.ID

	if err := s.receipts.Update(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receipt")
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return invoice, nil
}

// UnlinkReceipt detaches a receipt from the invoice.
func (s *InvoiceService) UnlinkReceipt(ctx context.Context, invoiceID, receiptID string) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := invoice.ReceiptIDs[:0]
	for _, linked := range invoice.ReceiptIDs {
		if linked == receiptID {
			found = true
			continue
		}
		remaining = append(remaining, linked)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not linked to invoice")
	}
	invoice.ReceiptIDs = remaining

	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err == nil {
		receipt.InvoiceID = nil
		if err := s.receipts.Update(ctx, receipt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receipt")
		}
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return invoice, nil
}

// MarkPaid records a direct payment on an invoice without linked receipts.
func (s *InvoiceService) MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(invoice.ReceiptIDs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invoice with linked receipts is settled through them")
	}
	if invoice.Status == models.InvoicePaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invoice already paid")
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	if req.Method != nil {
		if !req.Method.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
		}
		invoice.PaymentMethod = req.Method
	}

	invoice.Status = models.InvoicePaid
	invoice.PaymentDate = &paymentDate

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invoice")
	}
	return invoice, nil
}

// Delete removes an invoice, detaching any linked receipts first.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, receiptID := range invoice.ReceiptIDs {
		receipt, err := s.receipts.FindByID(ctx, receiptID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked receipt")
		}
		receipt.InvoiceID = nil
		if err := s.receipts.Update(ctx, receipt); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach receipt")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invoice")
	}
	return nil
}
