package domain

// Period is a bounded accounting period (exercice), typically one calendar
// year, with its own opening balances. Closing is one-way.
type Period struct {
	ID                 string  `json:"id" bson:"_id"`
	Year               int     `json:"year" bson:"year"`
	StartDate          string  `json:"start_date" bson:"start_date"` // ISO calendar date
	EndDate            string  `json:"end_date" bson:"end_date"`
	Closed             bool    `json:"closed" bson:"closed"`
	OpeningCashBalance float64 `json:"opening_cash_balance" bson:"opening_cash_balance"`
	OpeningBankBalance float64 `json:"opening_bank_balance" bson:"opening_bank_balance"`
}

// CompanyInfo holds the legal identity of the bookkeeping entity.
// InitialCapital feeds the balance sheet; everything else is descriptive.
type CompanyInfo struct {
	Name           string  `json:"name" bson:"name"`
	LegalForm      string  `json:"legal_form,omitempty" bson:"legal_form,omitempty"`
	TaxID          string  `json:"tax_id,omitempty" bson:"tax_id,omitempty"`
	Address        string  `json:"address,omitempty" bson:"address,omitempty"`
	Phone          string  `json:"phone,omitempty" bson:"phone,omitempty"`
	Email          string  `json:"email,omitempty" bson:"email,omitempty"`
	InitialCapital float64 `json:"initial_capital" bson:"initial_capital"`
	Currency       string  `json:"currency,omitempty" bson:"currency,omitempty"`
}

// Settings is the process-wide configuration record. The current period is
// tracked here explicitly rather than as ambient global state.
type Settings struct {
	CurrentPeriodID string `json:"current_period_id" bson:"current_period_id"`
	FirstLaunch     bool   `json:"first_launch" bson:"first_launch"`
}

// Category is one entry of the default bookkeeping taxonomy.
type Category struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Code   string          `json:"code,omitempty"`
	Type   TransactionType `json:"type"`
	Custom bool            `json:"custom"`
}
