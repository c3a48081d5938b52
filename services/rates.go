package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetplanner/backend/events"
	"budgetplanner/backend/models"
	"budgetplanner/backend/prefs"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type cachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt int64           `json:"fetchedAt"`
	Source    string          `json:"source"`
}

// RateService resolves exchange rates into the reference currency. Sources
// are tried in order without retries; the first success is cached in the
// preference store and used when every source fails later.
type RateService struct {
	sources   []RateSource
	prefs     prefs.Store
	reference string
	broker    *events.Broker
	log       zerolog.Logger
	group     singleflight.Group
	now       func() time.Time
}

func NewRateService(p prefs.Store, reference string, broker *events.Broker, log zerolog.Logger, sources ...RateSource) *RateService {
	return &RateService{
		sources:   sources,
		prefs:     p,
		reference: strings.ToUpper(reference),
		broker:    broker,
		log:       log.With().Str("component", "rates").Logger(),
		now:       time.Now,
	}
}

// Reference returns the reference currency code.
func (r *RateService) Reference() string {
	return r.reference
}

func cacheKey(currency, quote string) string {
	return "rate." + currency + "." + quote
}

// LatestRate returns the price of one unit of currency in the reference
// currency. Concurrent calls for the same currency share one fetch.
func (r *RateService) LatestRate(ctx context.Context, currency string) (models.Rate, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return models.Rate{}, fmt.Errorf("%w: currency is required", ErrInvalidArgument)
	}
	if currency == r.reference {
		return models.Rate{Currency: currency, Quote: r.reference, Rate: 1, FetchedAt: r.now(), Source: "identity"}, nil
	}

	v, err, _ := r.group.Do(currency, func() (interface{}, error) {
		return r.fetch(ctx, currency)
	})
	if err != nil {
		return models.Rate{}, err
	}
	return v.(models.Rate), nil
}

func (r *RateService) fetch(ctx context.Context, currency string) (models.Rate, error) {
	for _, src := range r.sources {
		rate, err := src.Fetch(ctx, currency, r.reference)
		if err != nil {
			r.log.Warn().Err(err).Str("source", src.Name()).Str("currency", currency).Msg("rate source failed, trying next")
			continue
		}

		fetched := r.now()
		if err := r.saveCache(ctx, currency, cachedRate{Rate: rate, FetchedAt: fetched.UnixMilli(), Source: src.Name()}); err != nil {
			r.log.Error().Err(err).Str("currency", currency).Msg("failed to cache rate")
		}
		r.broker.Publish(models.Event{Entity: models.EntityRate, Action: models.ActionUpdated, Key: currency})

		return models.Rate{
			Currency:  currency,
			Quote:     r.reference,
			Rate:      rate.InexactFloat64(),
			FetchedAt: fetched,
			Source:    src.Name(),
		}, nil
	}

	cached, ok, err := r.loadCache(ctx, currency)
	if err != nil {
		return models.Rate{}, err
	}
	if !ok || !cached.Rate.IsPositive() {
		return models.Rate{}, fmt.Errorf("%w: %s to %s", ErrNoRate, currency, r.reference)
	}

	r.log.Warn().Str("currency", currency).Time("fetched_at", time.UnixMilli(cached.FetchedAt)).Msg("using cached rate")
	return models.Rate{
		Currency:  currency,
		Quote:     r.reference,
		Rate:      cached.Rate.InexactFloat64(),
		FetchedAt: time.UnixMilli(cached.FetchedAt),
		Source:    "cache",
	}, nil
}

// CachedRate returns the last successfully fetched rate without touching
// the network.
func (r *RateService) CachedRate(ctx context.Context, currency string) (models.Rate, bool, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	cached, ok, err := r.loadCache(ctx, currency)
	if err != nil || !ok {
		return models.Rate{}, false, err
	}
	return models.Rate{
		Currency:  currency,
		Quote:     r.reference,
		Rate:      cached.Rate.InexactFloat64(),
		FetchedAt: time.UnixMilli(cached.FetchedAt),
		Source:    "cache",
	}, true, nil
}

func (r *RateService) saveCache(ctx context.Context, currency string, c cachedRate) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.prefs.Set(ctx, cacheKey(currency, r.reference), string(b))
}

func (r *RateService) loadCache(ctx context.Context, currency string) (cachedRate, bool, error) {
	raw, ok, err := r.prefs.Get(ctx, cacheKey(currency, r.reference))
	if err != nil || !ok {
		return cachedRate{}, false, err
	}
	var c cachedRate
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		r.log.Warn().Err(err).Str("currency", currency).Msg("ignoring unreadable cached rate")
		return cachedRate{}, false, nil
	}
	return c, true, nil
}

// Normalize converts amount in currency into the reference currency.
func (r *RateService) Normalize(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	if strings.EqualFold(strings.TrimSpace(currency), r.reference) {
		return amount, nil
	}
	rate, err := r.LatestRate(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(decimal.NewFromFloat(rate.Rate)).Round(2), nil
}

// NormalizeOrZero is Normalize for background ingestion: when no rate is
// available the normalized amount is recorded as zero.
func (r *RateService) NormalizeOrZero(ctx context.Context, amount decimal.Decimal, currency string) decimal.Decimal {
	n, err := r.Normalize(ctx, amount, currency)
	if errors.Is(err, ErrNoRate) {
		r.log.Warn().Str("currency", currency).Msg("no rate available, normalizing to zero")
		return decimal.Zero
	}
	if err != nil {
		r.log.Error().Err(err).Str("currency", currency).Msg("normalize failed")
		return decimal.Zero
	}
	return n
}
