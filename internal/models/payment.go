package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is the channel a payment was made through.
type PaymentMode string

const (
	ModeCash        PaymentMode = "ESP"
	ModeCheque      PaymentMode = "CHQ"
	ModeTransfer    PaymentMode = "VIR"
	ModeCard        PaymentMode = "CB"
	ModeOrangeMoney PaymentMode = "OM"
	ModeFreeMoney   PaymentMode = "FM"
	ModeWave        PaymentMode = "WA"
	ModeMobileMoney PaymentMode = "MOMO"
)

// Valid reports whether the mode is a known value.
func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCheque, ModeTransfer, ModeCard,
		ModeOrangeMoney, ModeFreeMoney, ModeWave, ModeMobileMoney:
		return true
	}
	return false
}

// Payment records a tax payment by a taxpayer. Reference is globally
// unique, generated at creation (PAY-YYYYMMDD-XXXXXX). A PDF receipt is
// generated synchronously when the payment is recorded.
type Payment struct {
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	PaymentDate      time.Time       `json:"paymentDate"`
	DueDate          time.Time       `json:"dueDate"`
	Reference        string          `json:"reference"`
	Mode             PaymentMode     `json:"mode"`
	Agent            *string         `json:"agent,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	ReceiptPath      *string         `json:"receiptPath,omitempty"`
	TaxCategory      *TaxCategory    `json:"taxCategory,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	TaxpayerID       int64           `json:"taxpayerId"`
	ID               int64           `json:"id"`
	ReceiptGenerated bool            `json:"receiptGenerated"`
}

// Late reports whether the payment was made after its due date.
func (p Payment) Late() bool {
	return p.PaymentDate.After(p.DueDate)
}
