package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
)

type fakeReceiptRepo struct {
	receipts map[string]*models.Receipt
	deleted  []string
}

func (f *fakeReceiptRepo) List(context.Context, models.ReceiptFilter) ([]models.Receipt, int, error) {
	return nil, 0, nil
}

func (f *fakeReceiptRepo) FindByID(_ context.Context, id string) (*models.Receipt, error) {
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return receipt, nil
}

func (f *fakeReceiptRepo) Create(_ context.Context, receipt *models.Receipt) error {
	if f.receipts == nil {
		f.receipts = map[string]*models.Receipt{}
	}
	f.receipts[receipt.ID] = receipt
	return nil
}

func (f *fakeReceiptRepo) Update(_ context.Context, receipt *models.Receipt) error {
	f.receipts[receipt.ID] = receipt
	return nil
}

func (f *fakeReceiptRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.receipts, id)
	return nil
}

func TestCreateReceiptRequiresDomiciliationDateForDirectDebit(t *testing.T) {
	svc := NewReceiptService(&fakeReceiptRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateReceiptRequest{
		StudentID: "stu-1",
		CourseID:  "course-a",
		Amount:    60,
		Date:      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Method:    models.PaymentDirectDebit,
	})

	require.Error(t, err)
}

func TestCreateReceiptStartsPending(t *testing.T) {
	repo := &fakeReceiptRepo{}
	svc := NewReceiptService(repo, nil, nil)

	receipt, err := svc.Create(context.Background(), CreateReceiptRequest{
		StudentID: "stu-1",
		CourseID:  "course-a",
		Amount:    60,
		Date:      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Method:    models.PaymentCash,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ReceiptPending, receipt.Status)
	assert.Nil(t, receipt.PaymentDate)
}

func TestMarkPaidStampsPaymentDate(t *testing.T) {
	repo := &fakeReceiptRepo{receipts: map[string]*models.Receipt{
		"rec-1": {ID: "rec-1", Status: models.ReceiptPending, Method: models.PaymentCash},
	}}
	svc := NewReceiptService(repo, nil, nil)
	when := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	receipt, err := svc.MarkPaid(context.Background(), "rec-1", MarkPaidRequest{PaymentDate: &when})

	require.NoError(t, err)
	assert.Equal(t, models.ReceiptPaid, receipt.Status)
	require.NotNil(t, receipt.PaymentDate)
	assert.Equal(t, when, *receipt.PaymentDate)
}

func TestMarkPaidTwiceConflicts(t *testing.T) {
	now := time.Now()
	repo := &fakeReceiptRepo{receipts: map[string]*models.Receipt{
		"rec-1": {ID: "rec-1", Status: models.ReceiptPaid, PaymentDate: &now},
	}}
	svc := NewReceiptService(repo, nil, nil)

	_, err := svc.MarkPaid(context.Background(), "rec-1", MarkPaidRequest{})

	require.Error(t, err)
}

func TestMarkPendingClearsPaymentDate(t *testing.T) {
	now := time.Now()
	repo := &fakeReceiptRepo{receipts: map[string]*models.Receipt{
		"rec-1": {ID: "rec-1", Status: models.ReceiptPaid, PaymentDate: &now},
	}}
	svc := NewReceiptService(repo, nil, nil)

	receipt, err := svc.MarkPending(context.Background(), "rec-1")

	require.NoError(t, err)
	assert.Equal(t, models.ReceiptPending, receipt.Status)
	assert.Nil(t, receipt.PaymentDate)
}

func TestDeletePaidReceiptRefused(t *testing.T) {
	now := time.Now()
	repo := &fakeReceiptRepo{receipts: map[string]*models.Receipt{
		"rec-1": {ID: "rec-1", Status: models.ReceiptPaid, PaymentDate: &now},
	}}
	svc := NewReceiptService(repo, nil, nil)

	err := svc.Delete(context.Background(), "rec-1")

	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}
