package chi

import (
	"net/http"
	"time"

	domusage "github.com/kailas-cloud/qubitchat/internal/domain/usage"
	healthuc "github.com/kailas-cloud/qubitchat/internal/usecase/health"
)

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()

	var resp UsageResponse
	resp.Period = string(report.Period())
	resp.PeriodStartAt = time.UnixMilli(report.PeriodStart()).UTC()
	resp.PeriodEndAt = time.UnixMilli(report.PeriodEnd()).UTC()
	resp.Usage.EmbeddingRequests = report.Requests()
	resp.Usage.Tokens = report.Tokens()
	resp.Budget.TokensLimit = b.TokensLimit()
	resp.Budget.TokensRemaining = b.TokensRemaining()
	resp.Budget.IsExhausted = b.IsExhausted()
	resp.Budget.ResetsAt = time.UnixMilli(b.ResetsAt()).UTC()

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: s.version,
	})
}
