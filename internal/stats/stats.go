// Package stats aggregates counts and money over a set of tasks.
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/kmmanagement/agenda/internal/task"
)

type Stats struct {
	TotalCount           int             `json:"total_count"`
	NewClientCount       int             `json:"new_client_count"`
	RecurringClientCount int             `json:"recurring_client_count"`
	ExpectedAmount       decimal.Decimal `json:"expected_amount"`
	CollectedAmount      decimal.Decimal `json:"collected_amount"`
	OutstandingAmount    decimal.Decimal `json:"outstanding_amount"`
}

// contribution is what one task adds to the collected and outstanding sums,
// given its total and paid amounts (absent = zero).
type contribution func(total, paid decimal.Decimal) (collected, outstanding decimal.Decimal)

var contributions = map[task.Status]contribution{
	task.StatusPaid: func(total, paid decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		return paid, decimal.Max(decimal.Zero, total.Sub(paid))
	},
	task.StatusToBePaid: func(total, _ decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		return decimal.Zero, total
	},
}

// noContribution applies to every status not in contributions.
func noContribution(_, _ decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return decimal.Zero, decimal.Zero
}

func contributionFor(s task.Status) contribution {
	for status, c := range contributions {
		if s.Is(status) {
			return c
		}
	}
	return noContribution
}

// Compute sums every task it is given. Filtering by period and client is
// the caller's job.
func Compute(tasks []*task.Task) Stats {
	s := Stats{
		ExpectedAmount:    decimal.Zero,
		CollectedAmount:   decimal.Zero,
		OutstandingAmount: decimal.Zero,
	}
	for _, t := range tasks {
		s.TotalCount++
		switch t.ClientType {
		case task.ClientTypeNew:
			s.NewClientCount++
		case task.ClientTypeRecurring:
			s.RecurringClientCount++
		}

		total, paid := orZero(t.TotalAmount), orZero(t.AmountPaid)
		collected, outstanding := contributionFor(t.Status)(total, paid)

		s.ExpectedAmount = s.ExpectedAmount.Add(total)
		s.CollectedAmount = s.CollectedAmount.Add(collected)
		s.OutstandingAmount = s.OutstandingAmount.Add(outstanding)
	}
	return s
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
