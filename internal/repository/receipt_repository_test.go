package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
)

func newReceiptRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func receiptRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "student_id", "course_id", "amount", "date", "status", "payment_date", "method", "domiciliation_date", "invoice_id", "created_at", "updated_at"})
}

func TestReceiptRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newReceiptRepoMock(t)
	defer cleanup()
	repo := NewReceiptRepository(db)

	rows := receiptRows().
		AddRow("rec-1", nil, "stu-1", "course-a", 50.0, time.Now(), models.ReceiptPaid, time.Now(), models.PaymentDirectDebit, nil, nil, time.Now(), time.Now()).
		AddRow("rec-2", nil, "stu-1", "course-a", 70.0, time.Now(), models.ReceiptPending, nil, models.PaymentDirectDebit, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM receipts WHERE id IN ($1, $2)")).
		WithArgs("rec-1", "rec-2").
		WillReturnRows(rows)

	receipts, err := repo.FindByIDs(context.Background(), []string{"rec-1", "rec-2"})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryFindByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newReceiptRepoMock(t)
	defer cleanup()
	repo := NewReceiptRepository(db)

	receipts, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, receipts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryExistsForMonth(t *testing.T) {
	db, mock, cleanup := newReceiptRepoMock(t)
	defer cleanup()
	repo := NewReceiptRepository(db)

	first := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM receipts WHERE student_id = $1 AND course_id = $2 AND date >= $3 AND date < $4 LIMIT 1")).
		WithArgs("stu-1", "course-a", first, next).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	// any day of the month normalizes to the same window
	exists, err := repo.ExistsForMonth(context.Background(), "stu-1", "course-a", time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
