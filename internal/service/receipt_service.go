package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type receiptRepository interface {
	List(ctx context.Context, filter models.ReceiptFilter) ([]models.Receipt, int, error)
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
	Create(ctx context.Context, receipt *models.Receipt) error
	Update(ctx context.Context, receipt *models.Receipt) error
	Delete(ctx context.Context, id string) error
}

// CreateReceiptRequest represents payload for issuing a receipt.
type CreateReceiptRequest struct {
	Code              *string              `json:"code" validate:"omitempty,max=50"`
	StudentID         string               `json:"student_id" validate:"required"`
	CourseID          string               `json:"course_id" validate:"required"`
	Amount            float64              `json:"amount" validate:"min=0"`
	Date              time.Time            `json:"date" validate:"required"`
	Method            models.PaymentMethod `json:"method" validate:"required"`
	DomiciliationDate *time.Time           `json:"domiciliation_date"`
}

// MarkPaidRequest represents payload for collecting a receipt.
type MarkPaidRequest struct {
	PaymentDate *time.Time            `json:"payment_date"`
	Method      *models.PaymentMethod `json:"method"`
}

// ReceiptService orchestrates receipt operations. It owns the invariant
// that a receipt's payment date is present exactly when its status is paid.
type ReceiptService struct {
	repo      receiptRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReceiptService constructs a ReceiptService.
func NewReceiptService(repo receiptRepository, validate *validator.Validate, logger *zap.Logger) *ReceiptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{repo: repo, validator: validate, logger: logger}
}

// List returns receipts plus pagination data.
func (s *ReceiptService) List(ctx context.Context, filter models.ReceiptFilter) ([]models.Receipt, *models.Pagination, error) {
	receipts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
	}
	return receipts, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a receipt by id.
func (s *ReceiptService) Get(ctx context.Context, id string) (*models.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	return receipt, nil
}

// Create issues a new pending receipt.
func (s *ReceiptService) Create(ctx context.Context, req CreateReceiptRequest) (*models.Receipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid receipt payload")
	}
	if !req.Method.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}
	if req.Method == models.PaymentDirectDebit && req.DomiciliationDate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "direct-debit receipts require a domiciliation date")
	}

	receipt := &models.Receipt{
		Code:              normalizeOptional(req.Code),
		StudentID:         req.StudentID,
		CourseID:          req.CourseID,
		Amount:            req.Amount,
		Date:              dateOnly(req.Date),
		Status:            models.ReceiptPending,
		Method:            req.Method,
		DomiciliationDate: req.DomiciliationDate,
	}

	if err := s.repo.Create(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create receipt")
	}
	return receipt, nil
}

// MarkPaid flips a receipt to paid, stamping the payment date in the same
// write so status and date never diverge.
func (s *ReceiptService) MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (*models.Receipt, error) {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.Status == models.ReceiptPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "receipt already paid")
	}

	paymentDate := time.Now().UTC()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}
	if req.Method != nil {
		if !req.Method.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
		}
		receipt.Method = *req.Method
	}

	receipt.Status = models.ReceiptPaid
	receipt.PaymentDate = &paymentDate

	if err := s.repo.Update(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receipt")
	}
	return receipt, nil
}

// MarkPending reverts a receipt to pending and clears its payment date.
func (s *ReceiptService) MarkPending(ctx context.Context, id string) (*models.Receipt, error) {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt.Status = models.ReceiptPending
	receipt.PaymentDate = nil

	if err := s.repo.Update(ctx, receipt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update receipt")
	}
	return receipt, nil
}

// Delete removes a receipt. Paid receipts are immutable history.
func (s *ReceiptService) Delete(ctx context.Context, id string) error {
	receipt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if receipt.Status == models.ReceiptPaid {
		return appErrors.Clone(appErrors.ErrConflict, "paid receipts cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete receipt")
	}
	return nil
}
