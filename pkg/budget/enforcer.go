package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arena-ai/arena/pkg/models"
)

// ErrBudgetExceeded is returned when a comparison would exceed the budget.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Usage reports recorded spend since a point in time.
type Usage interface {
	TotalTokens(ctx context.Context, since time.Time) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Enforcer checks recorded usage against budget policies.
type Enforcer struct {
	policies []models.BudgetPolicy
	usage    Usage
}

// New creates an Enforcer with the given policies and usage source.
func New(policies []models.BudgetPolicy, u Usage) *Enforcer {
	return &Enforcer{policies: policies, usage: u}
}

// Check returns ErrBudgetExceeded if usage has reached any policy limit.
func (e *Enforcer) Check(ctx context.Context) error {
	for _, p := range e.policies {
		since := periodStart(p.Period)
		if p.MaxTokens > 0 {
			used, err := e.usage.TotalTokens(ctx, since)
			if err != nil {
				return fmt.Errorf("budget check: %w", err)
			}
			if used >= p.MaxTokens {
				return ErrBudgetExceeded
			}
		}
		if p.MaxComparisons > 0 {
			count, err := e.usage.CountSince(ctx, since)
			if err != nil {
				return fmt.Errorf("budget check: %w", err)
			}
			if count >= p.MaxComparisons {
				return ErrBudgetExceeded
			}
		}
	}
	return nil
}

// Status returns current usage against every configured policy.
func (e *Enforcer) Status(ctx context.Context) ([]models.BudgetStatus, error) {
	statuses := make([]models.BudgetStatus, 0, len(e.policies))
	for _, p := range e.policies {
		since := periodStart(p.Period)
		tokens, err := e.usage.TotalTokens(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("budget status: %w", err)
		}
		count, err := e.usage.CountSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("budget status: %w", err)
		}
		statuses = append(statuses, models.BudgetStatus{
			Policy:          p,
			UsedTokens:      tokens,
			UsedComparisons: count,
		})
	}
	return statuses, nil
}

func periodStart(period models.BudgetPeriod) time.Time {
	now := time.Now().UTC()
	switch period {
	case models.BudgetMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default: // daily
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}
