package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/qubitchat/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil when no budget is tracked.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now()

	var start, end time.Time
	var limit, used, requests int64
	remaining := int64(-1)

	if period == domusage.PeriodDay {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		if s.br != nil {
			limit, used, requests, remaining =
				s.br.DailyLimit(), s.br.DailyUsed(), s.br.DailyRequests(), s.br.RemainingDaily()
		}
	} else {
		period = domusage.PeriodMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			limit, used, requests, remaining =
				s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.MonthlyRequests(), s.br.RemainingMonthly()
		}
	}

	b := domusage.NewBudget(limit, remaining, end.UnixMilli())
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), requests, used, b)
}
