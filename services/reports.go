package services

import (
	"context"
	"sort"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/shopspring/decimal"
)

// ReportService aggregates a month for the home and expenses screens.
type ReportService struct {
	store *store.Store
	loc   *time.Location
}

func NewReportService(st *store.Store, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{store: st, loc: loc}
}

// MonthSummary computes the totals for month (YYYY-MM). Amounts are in the
// reference currency and positive for spend.
func (s *ReportService) MonthSummary(ctx context.Context, month string) (models.MonthSummary, error) {
	start, end, err := MonthRange(month, s.loc)
	if err != nil {
		return models.MonthSummary{}, err
	}
	sum := models.MonthSummary{Month: start.Format("2006-01")}

	personal, err := s.store.SumPersonalSpendBetween(ctx, start, end)
	if err != nil {
		return sum, err
	}
	sum.PersonalSpend = personal.Round(2).InexactFloat64()

	// Pending expenses count towards categories but not the settled total.
	unflagged, err := s.store.UnflaggedExpensesBetween(ctx, start, end)
	if err != nil {
		return sum, err
	}
	byCategory := make(map[models.Category]decimal.Decimal)
	for _, t := range unflagged {
		covered, err := s.store.SumCoveredForExpense(ctx, t.ID)
		if err != nil {
			return sum, err
		}
		if open := decimal.NewFromFloat(t.NormalizedAmount).Abs().Sub(covered); open.IsPositive() {
			byCategory[t.Category] = byCategory[t.Category].Add(open)
		}
	}

	excluded, err := s.store.ExcludedExpensesBetween(ctx, start, end)
	if err != nil {
		return sum, err
	}
	open := decimal.Zero
	for _, t := range excluded {
		covered, err := s.store.SumCoveredForExpense(ctx, t.ID)
		if err != nil {
			return sum, err
		}
		if rest := decimal.NewFromFloat(t.NormalizedAmount).Abs().Sub(covered); rest.IsPositive() {
			open = open.Add(rest)
		}
	}
	sum.OpenForBenefactor = open.Round(2).InexactFloat64()

	sum.SpendByCategory = make([]models.CategoryTotal, 0, len(byCategory))
	for c, total := range byCategory {
		sum.SpendByCategory = append(sum.SpendByCategory, models.CategoryTotal{Category: c, Total: total.Round(2).InexactFloat64()})
	}
	sort.Slice(sum.SpendByCategory, func(i, j int) bool {
		a, b := sum.SpendByCategory[i], sum.SpendByCategory[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Category < b.Category
	})

	savings, err := s.store.SavingsTotal(ctx)
	if err != nil {
		return sum, err
	}
	sum.SavingsTotal = savings.Round(2).InexactFloat64()

	recurring, err := s.store.SumRecurring(ctx, start)
	if err != nil {
		return sum, err
	}
	sum.RecurringTotal = recurring.Round(2).InexactFloat64()

	net, err := s.store.NetSumBetween(ctx, start, end)
	if err != nil {
		return sum, err
	}
	sum.NetTransactionsSum = net.Round(2).InexactFloat64()
	return sum, nil
}
