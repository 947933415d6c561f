package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/dto"
	"github.com/aulanet/academia-api/internal/models"
)

type fakePaymentInvoices struct {
	invoice *models.Invoice
	updates int
}

func (f *fakePaymentInvoices) FindByID(context.Context, string) (*models.Invoice, error) {
	return f.invoice, nil
}

func (f *fakePaymentInvoices) Update(_ context.Context, invoice *models.Invoice) error {
	f.updates++
	f.invoice = invoice
	return nil
}

type fakePaymentReceipts struct {
	receipts map[string]*models.Receipt
	updates  int
}

func (f *fakePaymentReceipts) FindByIDs(_ context.Context, ids []string) ([]models.Receipt, error) {
	out := make([]models.Receipt, 0, len(ids))
	for _, id := range ids {
		if receipt, ok := f.receipts[id]; ok {
			out = append(out, *receipt)
		}
	}
	return out, nil
}

func (f *fakePaymentReceipts) FindByID(_ context.Context, id string) (*models.Receipt, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, nil
	}
	return receipt, nil
}

func (f *fakePaymentReceipts) Update(_ context.Context, receipt *models.Receipt) error {
	f.updates++
	f.receipts[receipt.ID] = receipt
	return nil
}

func paidReceipt(id string, amount float64, date time.Time) *models.Receipt {
	paid := date
	return &models.Receipt{
		ID:          id,
		Amount:      amount,
		Date:        date,
		Status:      models.ReceiptPaid,
		PaymentDate: &paid,
		Method:      models.PaymentDirectDebit,
	}
}

func TestListPaymentsLinkedReceipts(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": paidReceipt("rec-1", 50, date),
		"rec-2": {ID: "rec-2", Amount: 70, Date: date, Status: models.ReceiptPending, Method: models.PaymentDirectDebit},
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		Status:      models.InvoicePending,
		ReceiptIDs:  pq.StringArray{"rec-1", "rec-2"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	require.Len(t, payments.Events, 1)
	assert.Equal(t, "receipt-rec-1", payments.Events[0].UniqueID)
	assert.Equal(t, dto.PaymentSourceReceipt, payments.Events[0].Source)
	assert.Equal(t, 50.0, payments.TotalPaid)
	assert.Equal(t, 70.0, payments.Pending)
}

func TestListPaymentsLinkedReceiptsIgnoreInvoiceStatus(t *testing.T) {
	// a paid invoice with linked receipts must not emit a synthetic event
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": {ID: "rec-1", Amount: 50, Date: date, Status: models.ReceiptPending, Method: models.PaymentDirectDebit},
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		Status:      models.InvoicePaid,
		ReceiptIDs:  pq.StringArray{"rec-1"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	assert.Empty(t, payments.Events)
	assert.Equal(t, 120.0, payments.Pending)
}

func TestListPaymentsDirectInvoice(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		Status:      models.InvoicePaid,
		PaymentDate: &paid,
	}}
	svc := NewPaymentService(invoices, &fakePaymentReceipts{receipts: map[string]*models.Receipt{}}, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	require.Len(t, payments.Events, 1)
	event := payments.Events[0]
	assert.Equal(t, "invoice-inv-1", event.UniqueID)
	assert.Equal(t, dto.PaymentSourceInvoice, event.Source)
	assert.Equal(t, paid, event.Date)
	assert.Equal(t, 120.0, event.Amount)
	assert.Equal(t, models.PaymentDirectDebit, event.Method)
	assert.Equal(t, "Cobro directo factura", event.Comment)
	assert.Zero(t, payments.Pending)
}

func TestListPaymentsPendingInvoiceHasNoEvents(t *testing.T) {
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        time.Now(),
		Status:      models.InvoicePending,
	}}
	svc := NewPaymentService(invoices, &fakePaymentReceipts{receipts: map[string]*models.Receipt{}}, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	assert.Empty(t, payments.Events)
}

func TestListPaymentsOrderingStable(t *testing.T) {
	older := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": paidReceipt("rec-1", 40, older),
		"rec-2": paidReceipt("rec-2", 40, newer),
		"rec-3": paidReceipt("rec-3", 40, older),
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        older,
		ReceiptIDs:  pq.StringArray{"rec-1", "rec-2", "rec-3"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	first, err := svc.ListPayments(context.Background(), "inv-1")
	require.NoError(t, err)
	second, err := svc.ListPayments(context.Background(), "inv-1")
	require.NoError(t, err)

	// newest first, ties keep link order, repeat calls agree
	assert.Equal(t, "receipt-rec-2", first.Events[0].UniqueID)
	assert.Equal(t, "receipt-rec-1", first.Events[1].UniqueID)
	assert.Equal(t, "receipt-rec-3", first.Events[2].UniqueID)
	assert.Equal(t, first.Events, second.Events)
}

func TestListPaymentsOverpaymentGoesNegative(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": paidReceipt("rec-1", 100, date),
		"rec-2": paidReceipt("rec-2", 50, date),
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		ReceiptIDs:  pq.StringArray{"rec-1", "rec-2"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	assert.Equal(t, 150.0, payments.TotalPaid)
	assert.Equal(t, -30.0, payments.Pending)
}

func TestReversePaymentReceipt(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": paidReceipt("rec-1", 50, date),
		"rec-2": paidReceipt("rec-2", 70, date),
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		ReceiptIDs:  pq.StringArray{"rec-1", "rec-2"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	payments, err := svc.ReversePayment(context.Background(), "inv-1", "receipt-rec-1")

	require.NoError(t, err)
	assert.Equal(t, 1, receipts.updates)
	assert.Zero(t, invoices.updates)
	assert.Equal(t, models.ReceiptPending, receipts.receipts["rec-1"].Status)
	assert.Nil(t, receipts.receipts["rec-1"].PaymentDate)
	// the sibling receipt is untouched
	assert.Equal(t, models.ReceiptPaid, receipts.receipts["rec-2"].Status)
	require.Len(t, payments.Events, 1)
	assert.Equal(t, "receipt-rec-2", payments.Events[0].UniqueID)
}

func TestReversePaymentInvoice(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	method := models.PaymentCard
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:            "inv-1",
		TotalAmount:   120,
		Date:          date,
		Status:        models.InvoicePaid,
		PaymentDate:   &date,
		PaymentMethod: &method,
	}}
	svc := NewPaymentService(invoices, &fakePaymentReceipts{receipts: map[string]*models.Receipt{}}, nil)

	payments, err := svc.ReversePayment(context.Background(), "inv-1", "invoice-inv-1")

	require.NoError(t, err)
	assert.Equal(t, 1, invoices.updates)
	assert.Equal(t, models.InvoicePending, invoices.invoice.Status)
	assert.Nil(t, invoices.invoice.PaymentDate)
	assert.Nil(t, invoices.invoice.PaymentMethod)
	assert.Empty(t, payments.Events)
}

func TestReversePaymentUnknownEvent(t *testing.T) {
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{ID: "inv-1", TotalAmount: 120, Date: time.Now()}}
	svc := NewPaymentService(invoices, &fakePaymentReceipts{receipts: map[string]*models.Receipt{}}, nil)

	_, err := svc.ReversePayment(context.Background(), "inv-1", "receipt-nope")

	require.Error(t, err)
}

func TestReceiptEventCommentFallback(t *testing.T) {
	date := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	code := "REC-2025-031"
	withCode := paidReceipt("rec-1", 50, date)
	withCode.Code = &code
	withoutCode := paidReceipt("rec-2", 70, date)
	receipts := &fakePaymentReceipts{receipts: map[string]*models.Receipt{
		"rec-1": withCode,
		"rec-2": withoutCode,
	}}
	invoices := &fakePaymentInvoices{invoice: &models.Invoice{
		ID:          "inv-1",
		TotalAmount: 120,
		Date:        date,
		ReceiptIDs:  pq.StringArray{"rec-1", "rec-2"},
	}}
	svc := NewPaymentService(invoices, receipts, nil)

	payments, err := svc.ListPayments(context.Background(), "inv-1")

	require.NoError(t, err)
	require.Len(t, payments.Events, 2)
	comments := map[string]string{}
	for _, event := range payments.Events {
		comments[event.ID] = event.Comment
	}
	assert.Equal(t, "REC-2025-031", comments["rec-1"])
	assert.Equal(t, "Recibo 05/03/2025", comments["rec-2"])
}
