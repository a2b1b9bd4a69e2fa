package collector

import (
	"context"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/sirupsen/logrus"
)

// OutcomeRecorder observes settled outcomes. Implemented by the metrics collector.
type OutcomeRecorder interface {
	RecordSourceOutcome(domain, status string, duration time.Duration)
}

// Collector issues the gateway calls of one view in parallel.
type Collector struct {
	gateway  gateway.Gateway
	recorder OutcomeRecorder
	logger   *logrus.Logger
}

// New creates a collector. recorder may be nil.
func New(g gateway.Gateway, recorder OutcomeRecorder, logger *logrus.Logger) *Collector {
	return &Collector{
		gateway:  g,
		recorder: recorder,
		logger:   logger,
	}
}

// Collect fetches every requested domain for storeID and returns one outcome per
// domain, in request order.
func (c *Collector) Collect(ctx context.Context, storeID string, domains []insights.Domain, params gateway.Params) []insights.SourceOutcome {
	tasks := make([]Task[insights.SourceOutcome], len(domains))
	for i, domain := range domains {
		domain := domain
		tasks[i] = func(ctx context.Context) (insights.SourceOutcome, error) {
			return c.fetch(ctx, storeID, domain, params), nil
		}
	}

	settled := SettleAll(ctx, tasks)
	outcomes := make([]insights.SourceOutcome, len(settled))
	for i, s := range settled {
		if s.Err != nil {
			outcomes[i] = insights.SourceOutcome{
				Domain: domains[i],
				Status: insights.StatusFailed,
				Error:  &insights.ErrorInfo{Message: s.Err.Error()},
			}
			continue
		}
		outcomes[i] = s.Value
	}
	return outcomes
}

func (c *Collector) fetch(ctx context.Context, storeID string, domain insights.Domain, params gateway.Params) insights.SourceOutcome {
	start := time.Now()
	fetch, err := gateway.Fetcher(c.gateway, domain, storeID, params)
	if err != nil {
		return c.settle(insights.SourceOutcome{
			Domain: domain,
			Status: insights.StatusFailed,
			Error:  &insights.ErrorInfo{Message: err.Error()},
		}, storeID, start)
	}

	env, err := fetch(ctx)
	return c.settle(Classify(domain, env, err), storeID, start)
}

func (c *Collector) settle(outcome insights.SourceOutcome, storeID string, start time.Time) insights.SourceOutcome {
	elapsed := time.Since(start)
	if c.recorder != nil {
		c.recorder.RecordSourceOutcome(string(outcome.Domain), string(outcome.Status), elapsed)
	}

	entry := c.logger.WithFields(logrus.Fields{
		"store_id": storeID,
		"domain":   outcome.Domain,
		"status":   outcome.Status,
		"latency":  elapsed,
	})
	if outcome.Status == insights.StatusFailed {
		entry.WithField("error", outcome.Error.Message).Warn("Insight source failed")
	} else {
		entry.Debug("Insight source settled")
	}
	return outcome
}

// Classify maps a gateway result to a source outcome. Transport errors and
// unsuccessful envelopes are failures; a successful envelope without data, or
// with only an empty list, is empty.
func Classify(domain insights.Domain, env *gateway.Envelope, err error) insights.SourceOutcome {
	out := insights.SourceOutcome{Domain: domain}
	switch {
	case err != nil:
		out.Status = insights.StatusFailed
		out.Error = gateway.ErrorInfoFrom(err)
	case env == nil:
		out.Status = insights.StatusFailed
		out.Error = &insights.ErrorInfo{Message: "no response"}
	case !env.Success:
		out.Status = insights.StatusFailed
		out.Error = &insights.ErrorInfo{Message: gateway.ErrUnsuccessful.Message}
		if env.Error != nil {
			out.Error.Message = env.Error.Message
			out.Error.Details = env.Error.Details
		}
	case isEmptyData(env.Data):
		out.Status = insights.StatusEmpty
	default:
		out.Status = insights.StatusOK
		out.Payload = env.Data
	}
	return out
}

func isEmptyData(data insights.RawPayload) bool {
	if len(data) == 0 {
		return true
	}
	if len(data) > 1 {
		return false
	}
	items, ok := data["items"].([]interface{})
	return ok && len(items) == 0
}
