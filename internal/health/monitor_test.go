package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *stubPinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *stubPinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func TestMonitor_ServeHTTP(t *testing.T) {
	log, hook := test.NewNullLogger()
	p := &stubPinger{}
	m := NewMonitor(p, log)

	w := httptest.NewRecorder()
	m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	m.Check()
	w = httptest.NewRecorder()
	m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	p.set(errors.New("connection refused"))
	m.Check()
	w = httptest.NewRecorder()
	m.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Equal(t, "Store ping failed", hook.LastEntry().Message)

	p.set(nil)
	m.Check()
	assert.Equal(t, "Store ping recovered", hook.LastEntry().Message)
}

func TestMonitor_Start(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := &stubPinger{}
	m := NewMonitor(p, log)

	require.NoError(t, m.Start("@every 1h"))
	defer m.Stop()

	checked, err := m.Status()
	assert.False(t, checked.IsZero())
	assert.NoError(t, err)
}

func TestMonitor_StartInvalidSchedule(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := NewMonitor(&stubPinger{}, log)

	assert.Error(t, m.Start("not a schedule"))
	m.Stop()
}
