package dto

import (
	"time"

	"github.com/aulanet/academia-api/internal/models"
)

// Payment event sources.
const (
	PaymentSourceReceipt = "receipt"
	PaymentSourceInvoice = "invoice"
)

// PaymentEvent is one reconstructed record of money received against an
// invoice, sourced either from a linked paid receipt or from the invoice's
// own direct-payment fields.
type PaymentEvent struct {
	UniqueID string               `json:"unique_id"`
	Source   string               `json:"source"`
	ID       string               `json:"id"`
	Date     time.Time            `json:"date"`
	Amount   float64              `json:"amount"`
	Method   models.PaymentMethod `json:"method"`
	Comment  string               `json:"comment"`
}

// InvoicePayments is the reconciled payment view of one invoice. Pending is
// TotalAmount minus TotalPaid and is deliberately not clamped at zero, so an
// overpaid invoice reports a negative pending amount.
type InvoicePayments struct {
	InvoiceID   string         `json:"invoice_id"`
	TotalAmount float64        `json:"total_amount"`
	TotalPaid   float64        `json:"total_paid"`
	Pending     float64        `json:"pending"`
	Events      []PaymentEvent `json:"events"`
}
