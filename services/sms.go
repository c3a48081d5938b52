package services

import (
	"context"
	"fmt"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/parsers"
	"budgetplanner/backend/store"

	"github.com/rs/zerolog"
)

// SMSService turns bank POS notifications into expense transactions.
type SMSService struct {
	store *store.Store
	rates *RateService
	rules *RuleService
	log   zerolog.Logger
}

func NewSMSService(st *store.Store, rates *RateService, rules *RuleService, log zerolog.Logger) *SMSService {
	return &SMSService{
		store: st,
		rates: rates,
		rules: rules,
		log:   log.With().Str("component", "sms").Logger(),
	}
}

// Import parses msgs and stores every POS payment as an expense. Messages
// that are not POS notifications are skipped; messages already imported
// are counted as skipped too.
func (s *SMSService) Import(ctx context.Context, msgs []models.SMSMessage) (models.ImportResult, error) {
	res := models.ImportResult{Received: len(msgs)}

	for _, m := range msgs {
		p, ok := parsers.ParseBankSMS(m.Body)
		if !ok {
			continue
		}
		res.Parsed++

		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		amount := p.Amount.Neg()
		normalized := s.rates.NormalizeOrZero(ctx, amount, p.Currency)

		t := &models.Transaction{
			Timestamp:        ts,
			OriginalAmount:   amount.InexactFloat64(),
			OriginalCurrency: p.Currency,
			NormalizedAmount: normalized.InexactFloat64(),
			Merchant:         p.MerchantCore,
			Note:             p.MerchantRaw,
			Category:         models.CategoryOther,
			Source:           models.SourceSMS,
		}

		var inserted bool
		err := s.store.InTx(ctx, func(tx *store.Store) error {
			var err error
			inserted, err = tx.InsertTransactionIgnore(ctx, t)
			if err != nil || !inserted {
				return err
			}
			_, err = s.rules.applyToTransaction(ctx, tx, t)
			return err
		})
		if err != nil {
			return res, fmt.Errorf("import sms from %q: %w", m.Address, err)
		}
		if !inserted {
			res.Skipped++
			continue
		}
		res.Inserted++
		res.IDs = append(res.IDs, t.ID)
	}

	s.log.Info().
		Int("received", res.Received).
		Int("parsed", res.Parsed).
		Int("inserted", res.Inserted).
		Msg("sms import finished")
	return res, nil
}
