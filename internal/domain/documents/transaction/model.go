// Package transaction provides the financial ledger entry document.
package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/entity"
)

// Type is the monetary direction of a ledger entry.
type Type string

const (
	TypeInvoiceOut Type = "invoice_out"
	TypePaymentIn  Type = "payment_in"
	TypeInvoiceIn  Type = "invoice_in"
	TypePaymentOut Type = "payment_out"
)

// Transaction is a financial ledger entry.
//
// HomeAmount equals Amount x ExchangeRate as captured at write time and
// is never recomputed retroactively, even if the rate table changes.
type Transaction struct {
	entity.Document

	TxDate time.Time `db:"tx_date" json:"txDate"`
	Type   Type      `db:"type" json:"type"`
	Scope  string    `db:"scope" json:"scope"`

	CompanyID  *int64 `db:"company_id" json:"companyId,omitempty"`
	ProjectID  *int64 `db:"project_id" json:"projectId,omitempty"`
	CategoryID *int64 `db:"category_id" json:"categoryId,omitempty"`

	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`
	HomeAmount   decimal.Decimal `db:"home_amount" json:"homeAmount"`

	Description *string `db:"description" json:"description,omitempty"`
}

// New creates a Transaction and freezes the home-currency amount from
// the exchange rate snapshot.
func New(txDate time.Time, txType Type, amount decimal.Decimal, currency string, rate decimal.Decimal) *Transaction {
	return &Transaction{
		Document:     entity.NewDocument(),
		TxDate:       txDate,
		Type:         txType,
		Scope:        "general",
		Amount:       amount,
		Currency:     currency,
		ExchangeRate: rate,
		HomeAmount:   amount.Mul(rate),
	}
}

// IsIncoming reports whether money flows into the business.
func (t *Transaction) IsIncoming() bool {
	return t.Type == TypeInvoiceOut || t.Type == TypePaymentIn
}

// Validate implements entity.Validatable.
func (t *Transaction) Validate(ctx context.Context) error {
	switch t.Type {
	case TypeInvoiceOut, TypePaymentIn, TypeInvoiceIn, TypePaymentOut:
	default:
		return apperror.NewValidation("invalid transaction type").
			WithDetail("field", "type").
			WithDetail("value", string(t.Type))
	}

	if t.TxDate.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "txDate")
	}
	if t.Amount.IsNegative() {
		return apperror.NewValidation("amount cannot be negative").WithDetail("field", "amount")
	}
	if t.Currency == "" {
		return apperror.NewValidation("currency is required").WithDetail("field", "currency")
	}
	if !t.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "exchangeRate")
	}
	if !t.HomeAmount.Equal(t.Amount.Mul(t.ExchangeRate)) {
		return apperror.NewValidation("home amount must equal amount x exchange rate").
			WithDetail("field", "homeAmount")
	}

	return nil
}
