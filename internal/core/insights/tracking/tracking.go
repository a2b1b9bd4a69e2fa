// Package tracking sends fire-and-forget analytics events upstream.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Event types emitted by the service.
const (
	EventReportExported = "report_exported"
	EventReportViewed   = "report_viewed"
	EventDashboardView  = "dashboard_viewed"
)

// Session identifies the tracking session of this process.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore creates the session on first use and returns the same one
// afterwards, for the lifetime of the store.
type SessionStore struct {
	once    sync.Once
	session *Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Session returns the current session, creating it if needed.
func (s *SessionStore) Session() *Session {
	s.once.Do(func() {
		s.session = &Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	})
	return s.session
}

type sessionKey struct{}

// WithSession attaches a session to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached to ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Options configure a Dispatcher.
type Options struct {
	Enabled bool
	Timeout time.Duration
}

// Dispatcher delivers events without blocking the caller. Delivery errors are
// logged at debug level and never returned.
type Dispatcher struct {
	sink   gateway.EventSink
	opts   Options
	logger *logrus.Logger
	wg     sync.WaitGroup
	sent   *atomic.Uint64
	failed *atomic.Uint64
}

// NewDispatcher creates a dispatcher. A nil sink disables tracking.
func NewDispatcher(sink gateway.EventSink, opts Options, logger *logrus.Logger) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Dispatcher{
		sink:   sink,
		opts:   opts,
		logger: logger,
		sent:   atomic.NewUint64(0),
		failed: atomic.NewUint64(0),
	}
}

// Track queues an event for storeID and returns immediately. The delivery runs
// on its own goroutine with a context detached from ctx, so a finished request
// does not cancel it.
func (d *Dispatcher) Track(ctx context.Context, storeID, eventType string, props map[string]interface{}) {
	if d == nil || !d.opts.Enabled || d.sink == nil {
		return
	}

	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"event_type": eventType,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if s, ok := FromContext(ctx); ok {
		event["session_id"] = s.ID
	}
	if len(props) > 0 {
		event["properties"] = props
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.fail(storeID, eventType, fmt.Errorf("tracking panicked: %v", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
		defer cancel()

		if err := d.sink.TrackEvent(sendCtx, storeID, event); err != nil {
			d.fail(storeID, eventType, err)
			return
		}
		d.sent.Inc()
	}()
}

func (d *Dispatcher) fail(storeID, eventType string, err error) {
	d.failed.Inc()
	d.logger.WithFields(logrus.Fields{
		"store_id":   storeID,
		"event_type": eventType,
		"error":      err.Error(),
	}).Debug("Tracking event dropped")
}

// Wait blocks until queued events have been delivered or dropped.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Stats returns the delivered and dropped event counts.
func (d *Dispatcher) Stats() (sent, failed uint64) {
	return d.sent.Load(), d.failed.Load()
}

// HealthCheck reports degraded once more events have been dropped than
// delivered.
func (d *Dispatcher) HealthCheck() metrics.HealthStatus {
	if !d.opts.Enabled || d.sink == nil {
		return metrics.NewHealthStatus(metrics.StatusHealthy, "Tracking disabled")
	}
	sent, failed := d.Stats()
	status := metrics.NewHealthStatus(metrics.StatusHealthy, "Tracking events delivered")
	if failed > 0 && failed >= sent {
		status = metrics.NewHealthStatus(metrics.StatusDegraded, "Most tracking events are being dropped")
	}
	return status.WithDetail("sent", sent).WithDetail("dropped", failed)
}
