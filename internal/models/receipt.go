package models

import "time"

// ReceiptStatus enumerates payment states of a receipt.
type ReceiptStatus string

const (
	ReceiptPending ReceiptStatus = "pending"
	ReceiptPaid    ReceiptStatus = "paid"
)

// PaymentMethod enumerates how money was collected. Values are the
// Spanish labels the academy prints on its documents.
type PaymentMethod string

const (
	PaymentDirectDebit PaymentMethod = "Domiciliado"
	PaymentCard        PaymentMethod = "Tarjeta"
	PaymentCash        PaymentMethod = "Efectivo"
	PaymentOther       PaymentMethod = "Otro"
)

// Valid reports whether the method is a known value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentDirectDebit, PaymentCard, PaymentCash, PaymentOther:
		return true
	}
	return false
}

// Receipt is a single billing charge issued to a student for a course
// enrollment. Invariant: PaymentDate is set if and only if Status is paid.
type Receipt struct {
	ID                string        `db:"id" json:"id"`
	Code              *string       `db:"code" json:"code,omitempty"`
	StudentID         string        `db:"student_id" json:"student_id"`
	CourseID          string        `db:"course_id" json:"course_id"`
	Amount            float64       `db:"amount" json:"amount"`
	Date              time.Time     `db:"date" json:"date"`
	Status            ReceiptStatus `db:"status" json:"status"`
	PaymentDate       *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	Method            PaymentMethod `db:"method" json:"method"`
	DomiciliationDate *time.Time    `db:"domiciliation_date" json:"domiciliation_date,omitempty"`
	InvoiceID         *string       `db:"invoice_id" json:"invoice_id,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// ReceiptFilter captures filtering options for listing receipts.
type ReceiptFilter struct {
	StudentID string
	CourseID  string
	InvoiceID string
	Status    ReceiptStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortOrder string
}
