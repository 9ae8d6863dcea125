// Package health periodically pings the credential store and reports the result.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Dan9191/auth-service/internal/utils/httpresp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 5 * time.Second

// Pinger is implemented by every store driver
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor runs store pings on a cron schedule and keeps the latest result
type Monitor struct {
	pinger Pinger
	log    *logrus.Logger
	cron   *cron.Cron

	mu        sync.RWMutex
	lastCheck time.Time
	lastErr   error
}

// NewMonitor creates a monitor for the given store
func NewMonitor(p Pinger, log *logrus.Logger) *Monitor {
	return &Monitor{pinger: p, log: log}
}

// Start runs one check immediately and then on every tick of schedule
func (m *Monitor) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, m.Check); err != nil {
		return fmt.Errorf("invalid health schedule %q: %w", schedule, err)
	}
	m.Check()
	m.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running check to finish
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}

// Check pings the store once and records the outcome
func (m *Monitor) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	err := m.pinger.Ping(ctx)

	m.mu.Lock()
	wasHealthy := m.lastCheck.IsZero() || m.lastErr == nil
	m.lastCheck = time.Now()
	m.lastErr = err
	m.mu.Unlock()

	switch {
	case err != nil && wasHealthy:
		m.log.WithError(err).Error("Store ping failed")
	case err == nil && !wasHealthy:
		m.log.Info("Store ping recovered")
	}
}

// Status returns the time and error of the latest check
func (m *Monitor) Status() (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCheck, m.lastErr
}

// ServeHTTP reports 200 when the latest ping succeeded and 503 otherwise
func (m *Monitor) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	checked, err := m.Status()
	switch {
	case checked.IsZero():
		httpresp.Error(w, http.StatusServiceUnavailable, "store not checked yet")
	case err != nil:
		httpresp.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		httpresp.JSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"checkedAt": checked.UTC().Format(time.RFC3339),
		})
	}
}
