package domain

// ============================================================
// Aggregates
// ============================================================

// PeriodSummary bundles the headline aggregates for one period.
type PeriodSummary struct {
	PeriodID     string  `json:"period_id"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	CashBalance  float64 `json:"cash_balance"`
	BankBalance  float64 `json:"bank_balance"`
	Result       float64 `json:"result"`
}

// LedgerLine is one row of a running sub-ledger: the transaction plus the
// cumulative balance after it has been applied, in booking-date order.
type LedgerLine struct {
	Transaction Transaction `json:"transaction"`
	Balance     float64     `json:"balance"`
}

// CategoryTotal is one slice of a per-category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// ============================================================
// Financial statements
// ============================================================

// BalanceSheet is the simplified end-of-period balance sheet. Fixed assets,
// inventory, receivables and debts are always zero in this model; the fields
// exist so the statement keeps its standard shape. A loss appears as
// negative equity, which keeps the two sides equal for any result.
type BalanceSheet struct {
	PeriodID string `json:"period_id"`
	Date     string `json:"date"` // ISO date the statement was drawn up

	Assets struct {
		FixedAssets float64 `json:"fixed_assets"`
		Inventory   float64 `json:"inventory"`
		Receivables float64 `json:"receivables"`
		Treasury    float64 `json:"treasury"`
		Total       float64 `json:"total"`
	} `json:"assets"`

	Liabilities struct {
		Equity float64 `json:"equity"`
		Debts  float64 `json:"debts"`
		Total  float64 `json:"total"`
	} `json:"liabilities"`
}

// IncomeStatement is the simplified income statement. The expense side
// partitions total expenses into purchases, personnel charges and a
// residual bucket; the three always sum to the expense total.
type IncomeStatement struct {
	PeriodID string `json:"period_id"`
	Date     string `json:"date"`

	Revenue struct {
		Sales float64 `json:"sales"`
		Other float64 `json:"other"`
		Total float64 `json:"total"`
	} `json:"revenue"`

	Expenses struct {
		Purchases        float64 `json:"purchases"`
		PersonnelCharges float64 `json:"personnel_charges"`
		OtherCharges     float64 `json:"other_charges"`
		Total            float64 `json:"total"`
	} `json:"expenses"`

	Result float64 `json:"result"`
}

// ============================================================
// Operational metrics snapshot
// ============================================================

// LedgerMetrics is the JSON snapshot served by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	TotalRequests  int64   `json:"total_requests"`
	ErrorRate      float64 `json:"error_rate"`
	ReversalsTotal int64   `json:"reversals_total"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
	Period         string  `json:"period"`
}
