package models

// BudgetPeriod defines the time window for a budget policy.
type BudgetPeriod string

const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetMonthly BudgetPeriod = "monthly"
)

// BudgetPolicy caps generation spend per period. A zero limit means that
// dimension is unlimited.
type BudgetPolicy struct {
	MaxTokens      int64        `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	MaxComparisons int64        `json:"max_comparisons,omitempty" yaml:"max_comparisons,omitempty"`
	Period         BudgetPeriod `json:"period" yaml:"period"`
}

// BudgetStatus shows current usage against a policy.
type BudgetStatus struct {
	Policy          BudgetPolicy `json:"policy"`
	UsedTokens      int64        `json:"used_tokens"`
	UsedComparisons int64        `json:"used_comparisons"`
}
