package services

import (
	"context"
	"fmt"
	"strings"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/shopspring/decimal"
)

type SavingsService struct {
	store *store.Store
}

func NewSavingsService(st *store.Store) *SavingsService {
	return &SavingsService{store: st}
}

func (s *SavingsService) List(ctx context.Context) ([]models.SavingsPot, error) {
	return s.store.ListPots(ctx)
}

func (s *SavingsService) Create(ctx context.Context, p *models.SavingsPot) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: pot name is required", ErrInvalidArgument)
	}
	return s.store.CreatePot(ctx, p)
}

func (s *SavingsService) Update(ctx context.Context, p *models.SavingsPot) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: pot name is required", ErrInvalidArgument)
	}
	return s.store.UpdatePot(ctx, p)
}

// Deposit adds amount to the named pot, creating it when absent. Negative
// amounts withdraw.
func (s *SavingsService) Deposit(ctx context.Context, name string, amount float64) (*models.SavingsPot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: pot name is required", ErrInvalidArgument)
	}
	return s.store.AddToPot(ctx, name, decimal.NewFromFloat(amount))
}

func (s *SavingsService) Delete(ctx context.Context, id int64) error {
	return s.store.DeletePot(ctx, id)
}
