package metrics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status     string                  `json:"status"`
	Message    string                  `json:"message"`
	Timestamp  time.Time               `json:"timestamp"`
	Duration   time.Duration           `json:"duration"`
	Components map[string]HealthStatus `json:"components"`
}

// HealthCheck reports on one component.
type HealthCheck func() HealthStatus

// HealthChecker runs named component checks and folds them into one report.
type HealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthChecker creates a checker. Each check is bounded by timeout.
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
	}
}

// Register adds or replaces a component check.
func (h *HealthChecker) Register(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Check runs every registered check.
func (h *HealthChecker) Check(ctx context.Context) HealthReport {
	start := time.Now()

	h.mu.RLock()
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	components := make(map[string]HealthStatus, len(checks))
	for name, check := range checks {
		components[name] = HealthCheckWithTimeout(ctx, h.timeout, check)
	}

	status, message := calculateOverallStatus(components)
	return HealthReport{
		Status:     status,
		Message:    message,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		Components: components,
	}
}

// calculateOverallStatus determines the overall health status based on component statuses
func calculateOverallStatus(components map[string]HealthStatus) (string, string) {
	counts := map[string]int{}
	for _, status := range components {
		switch status.Status {
		case StatusHealthy, StatusDegraded, StatusUnhealthy:
			counts[status.Status]++
		default:
			counts[StatusUnknown]++
		}
	}
	total := len(components)

	switch {
	case counts[StatusUnhealthy] > 0:
		return StatusUnhealthy, fmt.Sprintf("%d/%d components unhealthy", counts[StatusUnhealthy], total)
	case counts[StatusDegraded] > 0:
		return StatusDegraded, fmt.Sprintf("%d/%d components degraded", counts[StatusDegraded], total)
	case counts[StatusUnknown] > 0:
		return StatusUnknown, fmt.Sprintf("%d/%d components unknown", counts[StatusUnknown], total)
	}
	return StatusHealthy, fmt.Sprintf("All %d components healthy", total)
}

// NewHealthStatus creates a new health status
func NewHealthStatus(status, message string) HealthStatus {
	return HealthStatus{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithDetail adds a single detail to a health status
func (h HealthStatus) WithDetail(key string, value interface{}) HealthStatus {
	details := make(map[string]interface{}, len(h.Details)+1)
	for k, v := range h.Details {
		details[k] = v
	}
	details[key] = value
	h.Details = details
	return h
}

// IsHealthy returns true if the status is healthy
func (h HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// HealthCheckWithTimeout performs a health check with timeout
func HealthCheckWithTimeout(ctx context.Context, timeout time.Duration, check HealthCheck) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan HealthStatus, 1)
	go func() {
		resultChan <- check()
	}()

	select {
	case result := <-resultChan:
		return result
	case <-ctx.Done():
		return NewHealthStatus(StatusUnhealthy, "Health check timed out").
			WithDetail("timeout", timeout.String())
	}
}

// outcomeRecorder matches collector.OutcomeRecorder without importing it.
type outcomeRecorder interface {
	RecordSourceOutcome(domain, status string, duration time.Duration)
}

// SourceHealth remembers the latest settled status of every upstream domain
// and forwards each outcome to next.
type SourceHealth struct {
	next   outcomeRecorder
	mu     sync.RWMutex
	latest map[string]string
}

// NewSourceHealth wraps next, which may be nil.
func NewSourceHealth(next outcomeRecorder) *SourceHealth {
	return &SourceHealth{next: next, latest: make(map[string]string)}
}

// RecordSourceOutcome records and forwards one settled fetch.
func (s *SourceHealth) RecordSourceOutcome(domain, status string, duration time.Duration) {
	s.mu.Lock()
	s.latest[domain] = status
	s.mu.Unlock()

	if s.next != nil {
		s.next.RecordSourceOutcome(domain, status, duration)
	}
}

// Check reports unhealthy when every domain last failed, degraded when some
// did, and unknown before any fetch.
func (s *SourceHealth) Check() HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.latest) == 0 {
		return NewHealthStatus(StatusUnknown, "No upstream fetches yet")
	}

	var failed []string
	for domain, status := range s.latest {
		if status == string(insights.StatusFailed) {
			failed = append(failed, domain)
		}
	}
	sort.Strings(failed)

	switch {
	case len(failed) == 0:
		return NewHealthStatus(StatusHealthy, "All upstream sources responding")
	case len(failed) == len(s.latest):
		return NewHealthStatus(StatusUnhealthy, "Every upstream source is failing").WithDetail("failed", failed)
	default:
		return NewHealthStatus(StatusDegraded, fmt.Sprintf("%d/%d upstream sources failing", len(failed), len(s.latest))).
			WithDetail("failed", failed)
	}
}
