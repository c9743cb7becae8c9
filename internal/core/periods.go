package core

// This file implements period normalization: expressing any transaction's
// amount as if it recurred at a chosen reporting period, and aggregating many
// transactions into per-category summary totals.

// UncategorizedBucket collects transactions persisted without a category.
const UncategorizedBucket = "Uncategorized"

// conversionRates maps a source frequency to the factor that expresses one
// source-period amount in a given target period. The factors use
// calendar-approximate period lengths (4-week/30-day month, 13-week/91-day
// quarter, 52-week/365-day year) and are kept as a pairwise-reciprocal table
// for behavioral compatibility with the original rate table, rather than
// deriving every pair from a single per-year normalization.
var conversionRates = map[Frequency]map[Frequency]float64{
	Yearly:    {Yearly: 1, Quarterly: 1.0 / 4, Monthly: 1.0 / 12, Weekly: 1.0 / 52, Daily: 1.0 / 365},
	Quarterly: {Yearly: 4, Quarterly: 1, Monthly: 1.0 / 3, Weekly: 1.0 / 13, Daily: 1.0 / 91},
	Monthly:   {Yearly: 12, Quarterly: 3, Monthly: 1, Weekly: 1.0 / 4, Daily: 1.0 / 30},
	Weekly:    {Yearly: 52, Quarterly: 13, Monthly: 4, Weekly: 1, Daily: 1.0 / 7},
	Daily:     {Yearly: 365, Quarterly: 91, Monthly: 30, Weekly: 7, Daily: 1},
}

// Summary is a snapshot of all transactions normalized to one reporting
// period. Amounts are unit values; rounding is a presentation concern.
type Summary struct {
	TotalIncome       float64            `json:"totalIncome"`
	TotalExpenses     float64            `json:"totalExpenses"`
	IncomeCategories  map[string]float64 `json:"incomeCategories"`
	ExpenseCategories map[string]float64 `json:"expenseCategories"`
}

// ConvertAmount rescales amount from sourceFrequency into targetPeriod using
// the fixed conversion table. One-time amounts and matching periods pass
// through unchanged. The target period must be one of the five recurring
// frequencies; amount must be non-negative.
func ConvertAmount(amount float64, sourceFrequency, targetPeriod Frequency) (float64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	if err := sourceFrequency.Validate(); err != nil {
		return 0, err
	}
	if !targetPeriod.Recurring() {
		return 0, ErrInvalidPeriod
	}
	if sourceFrequency == Once || sourceFrequency == targetPeriod {
		return amount, nil
	}
	return amount * conversionRates[sourceFrequency][targetPeriod], nil
}

// Summarize normalizes every transaction to targetPeriod and accumulates
// income and expense totals plus per-category breakdowns. Transactions whose
// type is neither income nor expense are skipped. Input order is irrelevant;
// the function is pure.
func Summarize(transactions []Transaction, targetPeriod Frequency) (Summary, error) {
	if !targetPeriod.Recurring() {
		return Summary{}, ErrInvalidPeriod
	}

	out := Summary{
		IncomeCategories:  make(map[string]float64),
		ExpenseCategories: make(map[string]float64),
	}

	for _, tx := range transactions {
		freq := tx.Frequency
		if freq == "" {
			freq = Once
		}
		amount, err := ConvertAmount(tx.Amount.Units(), freq, targetPeriod)
		if err != nil {
			return Summary{}, err
		}

		category := tx.Category
		if category == "" {
			category = UncategorizedBucket
		}

		switch tx.Type {
		case Income:
			out.TotalIncome += amount
			out.IncomeCategories[category] += amount
		case Expense:
			out.TotalExpenses += amount
			out.ExpenseCategories[category] += amount
		default:
			// Unknown types are not counted; the enum is closed elsewhere.
		}
	}

	return out, nil
}
