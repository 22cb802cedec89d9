// Package finance provides the financial transaction ledger: append-only
// income/expense entries derived from order payments and approved vouchers,
// plus summary queries over them.
package finance

import (
	"context"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/entity"
	"shopcore/internal/core/id"
	"shopcore/internal/core/types"
)

// TxnType is the direction of a ledger entry.
type TxnType string

const (
	TypeIncome  TxnType = "income"
	TypeExpense TxnType = "expense"
)

// Category classifies what caused the entry.
type Category string

const (
	CategoryOrder Category = "order"
	CategoryStock Category = "stock"
)

// Transaction is one ledger entry. Posted entries are never edited or
// deleted; corrections are posted as new entries.
type Transaction struct {
	entity.Base

	// Number is the transaction number: TN{YYYYMMDD}{seq:4} for income,
	// TX{YYYYMMDD}{seq:4} for expense
	Number string `db:"number" json:"transactionNumber"`

	Type     TxnType  `db:"type" json:"type"`
	Category Category `db:"category" json:"category"`

	// Amount is always non-negative; direction is carried by Type
	Amount types.Money `db:"amount" json:"amount"`

	Description   string `db:"description" json:"description"`
	PaymentMethod string `db:"payment_method" json:"paymentMethod,omitempty"`

	// Causing references
	OrderID    *id.ID  `db:"order_id" json:"relatedOrder,omitempty"`
	VoucherID  *id.ID  `db:"voucher_id" json:"relatedVoucher,omitempty"`
	CustomerID *string `db:"customer_id" json:"relatedCustomer,omitempty"`

	TransactionDate time.Time `db:"transaction_date" json:"transactionDate"`

	// AutoCreated is true for system-generated entries (order payments,
	// voucher approvals) and false for manual postings
	AutoCreated bool `db:"auto_created" json:"autoCreated"`
}

// Validate implements entity.Validatable.
func (t *Transaction) Validate(ctx context.Context) error {
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return apperror.NewValidation("type must be income or expense").
			WithDetail("field", "type")
	}
	if t.Category != CategoryOrder && t.Category != CategoryStock {
		return apperror.NewValidation("category must be order or stock").
			WithDetail("field", "category")
	}
	if t.Amount.IsNegative() {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount")
	}
	if t.Description == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}
	return nil
}

// Summary aggregates the ledger over an optional date window.
type Summary struct {
	TotalIncome  types.Money `json:"totalIncome"`
	TotalExpense types.Money `json:"totalExpense"`
	NetAmount    types.Money `json:"netAmount"`

	IncomeCount  int64 `json:"incomeCount"`
	ExpenseCount int64 `json:"expenseCount"`
	TotalCount   int64 `json:"totalCount"`

	OrderIncome  types.Money `json:"orderIncome"`
	StockExpense types.Money `json:"stockExpense"`

	AverageTransaction types.Money `json:"averageTransaction"`
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category Category    `db:"category" json:"category"`
	Income   types.Money `db:"income" json:"income"`
	Expense  types.Money `db:"expense" json:"expense"`
	Count    int64       `db:"count" json:"count"`
}
