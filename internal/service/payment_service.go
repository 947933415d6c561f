package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/dto"
	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

// directPaymentComment labels the synthetic event emitted when an invoice
// without linked receipts was collected directly.
const directPaymentComment = "Cobro directo factura"

type paymentInvoiceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
}

type paymentReceiptRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Receipt, error)
	FindByID(ctx context.Context, id string) (*models.Receipt, error)
	Update(ctx context.Context, receipt *models.Receipt) error
}

// PaymentService reconciles the payment events satisfying an invoice and
// supports reversing one of them.
type PaymentService struct {
	invoices paymentInvoiceRepository
	receipts paymentReceiptRepository
	logger   *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(invoices paymentInvoiceRepository, receipts paymentReceiptRepository, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{invoices: invoices, receipts: receipts, logger: logger}
}

// ListPayments returns the reconciled payment view of an invoice.
func (s *PaymentService) ListPayments(ctx context.Context, invoiceID string) (*dto.InvoicePayments, error) {
	invoice, receipts, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return reconcilePayments(invoice, receipts), nil
}

// ReversePayment undoes one payment event, reverting exactly one
// underlying record to pending. Nothing prevents reversing a payment that
// leaves the invoice partially settled; that judgement belongs to the
// operator.
func (s *PaymentService) ReversePayment(ctx context.Context, invoiceID, eventID string) (*dto.InvoicePayments, error) {
	invoice, receipts, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var target *dto.PaymentEvent
	for _, event := range reconcilePayments(invoice, receipts).Events {
		if event.UniqueID == eventID {
			ev := event
			target = &ev
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment event not found")
	}

	switch target.Source {
	case dto.PaymentSourceReceipt:
		receipt, err := s.receipts.FindByID(ctx, target.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
		}
		receipt.Status = models.ReceiptPending
		receipt.PaymentDate = nil
		if err := s.receipts.Update(ctx, receipt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revert receipt")
		}
	case dto.PaymentSourceInvoice:
		invoice.Status = models.InvoicePending
		invoice.PaymentDate = nil
		invoice.PaymentMethod = nil
		if err := s.invoices.Update(ctx, invoice); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revert invoice")
		}
	}

	s.logger.Info("payment reversed",
		zap.String("invoice_id", invoiceID),
		zap.String("event_id", eventID),
		zap.String("source", target.Source))

	return s.ListPayments(ctx, invoiceID)
}

func (s *PaymentService) load(ctx context.Context, invoiceID string) (*models.Invoice, []models.Receipt, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	receipts, err := s.receipts.FindByIDs(ctx, invoice.ReceiptIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked receipts")
	}
	return invoice, receipts, nil
}

// reconcilePayments derives the payment events against an invoice. Linked
// receipts, when present, are the only source consulted: each paid one
// yields an event and the invoice's own status field is ignored, so an
// invoice whose linked receipts are all pending reports zero payments.
// Without links, a paid invoice yields a single synthetic event built
// from its direct-payment fields. Events are ordered by descending date;
// the pending figure is not clamped and goes negative on overpayment.
func reconcilePayments(invoice *models.Invoice, receipts []models.Receipt) *dto.InvoicePayments {
	receiptsByID := make(map[string]models.Receipt, len(receipts))
	for _, receipt := range receipts {
		receiptsByID[receipt.ID] = receipt
	}

	events := []dto.PaymentEvent{}
	if len(invoice.ReceiptIDs) > 0 {
		for _, id := range invoice.ReceiptIDs {
			receipt, ok := receiptsByID[id]
			if !ok || receipt.Status != models.ReceiptPaid {
				continue
			}
			date := receipt.Date
			if receipt.PaymentDate != nil {
				date = *receipt.PaymentDate
			}
			comment := fmt.Sprintf("Recibo %s", receipt.Date.Format("02/01/2006"))
			if receipt.Code != nil && *receipt.Code != "" {
				comment = *receipt.Code
			}
			events = append(events, dto.PaymentEvent{
				UniqueID: "receipt-" + receipt.ID,
				Source:   dto.PaymentSourceReceipt,
				ID:       receipt.ID,
				Date:     date,
				Amount:   receipt.Amount,
				Method:   receipt.Method,
				Comment:  comment,
			})
		}
	} else if invoice.Status == models.InvoicePaid {
		date := invoice.Date
		if invoice.PaymentDate != nil {
			date = *invoice.PaymentDate
		}
		method := models.PaymentDirectDebit
		if invoice.PaymentMethod != nil {
			method = *invoice.PaymentMethod
		}
		events = append(events, dto.PaymentEvent{
			UniqueID: "invoice-" + invoice.ID,
			Source:   dto.PaymentSourceInvoice,
			ID:       invoice.ID,
			Date:     date,
			Amount:   invoice.TotalAmount,
			Method:   method,
			Comment:  directPaymentComment,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})

	totalPaid := 0.0
	for _, event := range events {
		totalPaid += event.Amount
	}

	return &dto.InvoicePayments{
		InvoiceID:   invoice.ID,
		TotalAmount: invoice.TotalAmount,
		TotalPaid:   totalPaid,
		Pending:     invoice.TotalAmount - totalPaid,
		Events:      events,
	}
}
