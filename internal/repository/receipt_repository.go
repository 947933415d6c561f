package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aulanet/academia-api/internal/models"
)

const receiptColumns = "id, code, student_id, course_id, amount, date, status, payment_date, method, domiciliation_date, invoice_id, created_at, updated_at"

// ReceiptRepository manages persistence for receipts.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs a ReceiptRepository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// List returns receipts matching filters along with total count.
func (r *ReceiptRepository) List(ctx context.Context, filter models.ReceiptFilter) ([]models.Receipt, int, error) {
	base := "FROM receipts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InvoiceID != "" {
		conditions = append(conditions, fmt.Sprintf("invoice_id = $%d", len(args)+1))
		args = append(args, filter.InvoiceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := sortOrder(filter.SortOrder)
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY date %s LIMIT %d OFFSET %d", receiptColumns, base, order, limit, offset)
	var receipts []models.Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count receipts: %w", err)
	}

	return receipts, total, nil
}

// FindByID fetches a receipt by ID.
func (r *ReceiptRepository) FindByID(ctx context.Context, id string) (*models.Receipt, error) {
	query := fmt.Sprintf("SELECT %s FROM receipts WHERE id = $1", receiptColumns)
	var receipt models.Receipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// FindByIDs fetches receipts for a set of ids.
func (r *ReceiptRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Receipt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM receipts WHERE id IN (?)", receiptColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build receipt id query: %w", err)
	}
	query = r.db.Rebind(query)
	var receipts []models.Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, fmt.Errorf("find receipts by ids: %w", err)
	}
	return receipts, nil
}

// ExistsForMonth checks whether a receipt was already issued for the
// student, course and calendar month of the given date.
func (r *ReceiptRepository) ExistsForMonth(ctx context.Context, studentID, courseID string, month time.Time) (bool, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	next := first.AddDate(0, 1, 0)
	const query = `SELECT 1 FROM receipts WHERE student_id = $1 AND course_id = $2 AND date >= $3 AND date < $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, first, next); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check monthly receipt: %w", err)
	}
	return true, nil
}

// Create inserts a new receipt record.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = now
	}
	receipt.UpdatedAt = now

	const query = `INSERT INTO receipts (id, code, student_id, course_id, amount, date, status, payment_date, method, domiciliation_date, invoice_id, created_at, updated_at)
		VALUES (:id, :code, :student_id, :course_id, :amount, :date, :status, :payment_date, :method, :domiciliation_date, :invoice_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

// Update persists a full replacement of the receipt record.
func (r *ReceiptRepository) Update(ctx context.Context, receipt *models.Receipt) error {
	receipt.UpdatedAt = time.Now().UTC()

	const query = `UPDATE receipts SET code = :code, student_id = :student_id, course_id = :course_id,
		amount = :amount, date = :date, status = :status, payment_date = :payment_date, method = :method,
		domiciliation_date = :domiciliation_date, invoice_id = :invoice_id, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, receipt); err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	return nil
}

// Delete removes a receipt record.
func (r *ReceiptRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}
