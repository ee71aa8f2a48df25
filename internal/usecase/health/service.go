package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/qubitchat/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Checks.
const (
	ComponentVectorStore = "vector_store"
	ComponentEmbedding   = "embedding"
	ComponentHistory     = "chat_history"
	ComponentChat        = "chat_model"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
}

// New creates a Service. The vector store is always checked; optional
// components are added with the With* options.
func New(store Pinger) *Service {
	return &Service{
		checks:  []check{{name: ComponentVectorStore, fn: store.Ping}},
		timeout: DefaultCheckTimeout,
	}
}

// WithEmbedding adds the embedding provider check.
func (s *Service) WithEmbedding(p ProviderChecker) *Service {
	if p != nil {
		s.checks = append(s.checks, check{name: ComponentEmbedding, fn: p.HealthCheck})
	}
	return s
}

// WithChat adds the chat model check.
func (s *Service) WithChat(p ProviderChecker) *Service {
	if p != nil {
		s.checks = append(s.checks, check{name: ComponentChat, fn: p.HealthCheck})
	}
	return s
}

// WithHistory adds the chat history database check.
func (s *Service) WithHistory(p Pinger) *Service {
	if p != nil {
		s.checks = append(s.checks, check{name: ComponentHistory, fn: p.Ping})
	}
	return s
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all component checks concurrently. Every check reports its own
// result; one failure does not cancel the others.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	results := make([]CheckResult, len(s.checks))

	var g errgroup.Group
	for i, c := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			results[i] = CheckOK
			if err := c.fn(cctx); err != nil {
				log.Warn("Health check failed", zap.String("component", c.name), zap.Error(err))
				results[i] = CheckError
			}
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	for i, c := range s.checks {
		checks[c.name] = results[i]
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
