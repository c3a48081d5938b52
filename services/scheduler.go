package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs the daily maintenance jobs: refreshing the base currency
// rate and re-applying merchant rules to the current month.
type Scheduler struct {
	rates        *RateService
	rules        *RuleService
	baseCurrency string
	loc          *time.Location
	log          zerolog.Logger
	now          func() time.Time
}

func NewScheduler(rates *RateService, rules *RuleService, baseCurrency string, loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		rates:        rates,
		rules:        rules,
		baseCurrency: baseCurrency,
		loc:          loc,
		log:          log.With().Str("component", "scheduler").Logger(),
		now:          time.Now,
	}
}

// Start runs the jobs every day at midnight until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Msg("starting task scheduler")
	go s.loop(ctx)
}

func (s *Scheduler) untilMidnight() time.Duration {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.loc)
	return midnight.Sub(now)
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		wait := s.untilMidnight()
		s.log.Info().Dur("in", wait).Msg("next daily run scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
		}

		s.RunOnce(ctx)

		// Avoid running twice when the jobs finish within the same second.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// RunOnce executes the daily jobs immediately. Failures are logged.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.baseCurrency != "" {
		if rate, err := s.rates.LatestRate(ctx, s.baseCurrency); err != nil {
			s.log.Error().Err(err).Str("currency", s.baseCurrency).Msg("refresh rate")
		} else {
			s.log.Info().Str("currency", s.baseCurrency).Float64("rate", rate.Rate).Str("source", rate.Source).Msg("rate refreshed")
		}
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	changed, err := s.rules.ApplyRulesToRange(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		s.log.Error().Err(err).Msg("apply rules to current month")
		return
	}
	s.log.Info().Int("changed", changed).Msg("rules applied to current month")
}
