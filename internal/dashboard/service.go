package dashboard

import (
	"fmt"
	"log/slog"
	"time"
)

// Service exposes read-only reporting over payment transactions. No side
// effects: reconciliation owns every write.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// MonthlyStats aggregates the month containing the given time, in UTC.
func (s *Service) MonthlyStats(month time.Time) (*MonthlyStats, error) {
	start := monthStart(month)
	end := start.AddDate(0, 1, 0)

	stats, err := s.repo.StatsForRange(start, end)
	if err != nil {
		s.logger.Error("failed to aggregate monthly stats", "error", err, "month", start.Format("2006-01"))
		return nil, fmt.Errorf("failed to aggregate monthly stats: %w", err)
	}

	stats.Month = start.Format("2006-01")
	return stats, nil
}

// MonthlyReport aggregates the given month and the month before it, with
// month-over-month variation percentages.
func (s *Service) MonthlyReport(month time.Time) (*Report, error) {
	current, err := s.MonthlyStats(month)
	if err != nil {
		return nil, err
	}

	previous, err := s.MonthlyStats(monthStart(month).AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	return &Report{
		Current:          current,
		Previous:         previous,
		SuccessVariation: Variation(float64(current.SuccessCount), float64(previous.SuccessCount)),
		AmountVariation:  Variation(float64(current.TotalAmountCentimes), float64(previous.TotalAmountCentimes)),
		FailedVariation:  Variation(float64(current.FailedCount), float64(previous.FailedCount)),
	}, nil
}

// Variation is the month-over-month percentage change, 0 when there is no
// previous value to compare against.
func Variation(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
