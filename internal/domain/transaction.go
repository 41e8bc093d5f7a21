// Package domain defines the core business entities for the compta-pme
// bookkeeping service. These models are independent of any storage backend
// and represent the canonical data structures used throughout the service.
package domain

import "time"

// TransactionType distinguishes inflows (recettes) from outflows (dépenses).
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Opposite returns the logical opposite type, used when booking reversals.
func (t TransactionType) Opposite() TransactionType {
	if t == Income {
		return Expense
	}
	return Income
}

// PaymentMethod identifies the sub-ledger a transaction belongs to.
type PaymentMethod string

const (
	Cash PaymentMethod = "cash"
	Bank PaymentMethod = "bank"
)

// Valid reports whether m is one of the two known methods.
func (m PaymentMethod) Valid() bool {
	return m == Cash || m == Bank
}

// ReversalPrefix tags the description of a reversal entry.
// ReversalRefPrefix tags the document reference of a reversal entry.
const (
	ReversalPrefix    = "REVERSAL - "
	ReversalRefPrefix = "REVERSAL-"
)

// Transaction is the central entity of the single-entry ledger.
//
// Date is the user-facing booking date and is distinct from CreatedAt,
// the creation instant embedded in the ID; CreatedAt breaks ties when two
// entries share a booking date.
type Transaction struct {
	ID                    string          `json:"id" bson:"_id"`
	Date                  string          `json:"date" bson:"date"` // ISO calendar date, YYYY-MM-DD
	Type                  TransactionType `json:"type" bson:"type"`
	Description           string          `json:"description" bson:"description"`
	Amount                float64         `json:"amount" bson:"amount"`
	Category              string          `json:"category" bson:"category"`
	PaymentMethod         PaymentMethod   `json:"payment_method" bson:"payment_method"`
	Counterparty          string          `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	DocumentRef           string          `json:"document_ref,omitempty" bson:"document_ref,omitempty"`
	PeriodID              string          `json:"period_id" bson:"period_id"`
	IsReversal            bool            `json:"is_reversal" bson:"is_reversal"`
	ReversedTransactionID string          `json:"reversed_transaction_id,omitempty" bson:"reversed_transaction_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at" bson:"created_at"`
}

// TransactionDraft carries the user-supplied fields of a new transaction.
// The repository assigns ID, CreatedAt, and the reversal fields.
type TransactionDraft struct {
	Date          string          `json:"date"`
	Type          TransactionType `json:"type"`
	Description   string          `json:"description"`
	Amount        float64         `json:"amount"`
	Category      string          `json:"category"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Counterparty  string          `json:"counterparty,omitempty"`
	DocumentRef   string          `json:"document_ref,omitempty"`
}

// TransactionPatch is a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Date          *string          `json:"date,omitempty"`
	Type          *TransactionType `json:"type,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Amount        *float64         `json:"amount,omitempty"`
	Category      *string          `json:"category,omitempty"`
	PaymentMethod *PaymentMethod   `json:"payment_method,omitempty"`
	Counterparty  *string          `json:"counterparty,omitempty"`
	DocumentRef   *string          `json:"document_ref,omitempty"`
}

// Apply merges the non-nil patch fields into tx.
func (p *TransactionPatch) Apply(tx *Transaction) {
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.PaymentMethod != nil {
		tx.PaymentMethod = *p.PaymentMethod
	}
	if p.Counterparty != nil {
		tx.Counterparty = *p.Counterparty
	}
	if p.DocumentRef != nil {
		tx.DocumentRef = *p.DocumentRef
	}
}
