package models

import (
	"time"

	"github.com/lib/pq"
)

// InvoiceStatus enumerates payment states of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// Invoice is an accounting document that either aggregates linked receipts
// or stands alone with its own direct-payment fields. When ReceiptIDs is
// non-empty the linked receipts are the source of truth for payments and
// the invoice's own Status/PaymentDate are not consulted.
type Invoice struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	StudentID     *string        `db:"student_id" json:"student_id,omitempty"`
	TotalAmount   float64        `db:"total_amount" json:"total_amount"`
	Date          time.Time      `db:"date" json:"date"`
	Status        InvoiceStatus  `db:"status" json:"status"`
	PaymentDate   *time.Time     `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMethod *PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	ReceiptIDs    pq.StringArray `db:"receipt_ids" json:"receipt_ids,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InvoiceFilter captures filtering options for listing invoices.
type InvoiceFilter struct {
	StudentID string
	Status    InvoiceStatus
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortOrder string
}
