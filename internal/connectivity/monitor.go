package connectivity

import (
	"context"
	"sync"
	"time"

	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/scheduler"
)

// Prober is the platform reachability signal. remote.Client satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Handler runs on an offline-to-online transition.
type Handler func(ctx context.Context)

// Monitor derives a single online/offline state from the prober and fires
// registered handlers exactly once per offline-to-online edge. Re-affirming
// an online state fires nothing, so flapping connectivity cannot storm the
// sync path. Handlers run serially on the monitor's own goroutine.
type Monitor struct {
	prober Prober

	mu       sync.Mutex
	online   bool
	observed bool // false until the first probe settles
	handlers []Handler
}

func NewMonitor(p Prober) *Monitor {
	return &Monitor{prober: p}
}

// OnOnline registers a transition handler. Register before Start.
func (m *Monitor) OnOnline(h Handler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start fires every handler once unconditionally, settles the initial state,
// and then probes on the given interval.
func (m *Monitor) Start(ctx context.Context, sched *scheduler.Scheduler, interval time.Duration) {
	for _, h := range m.snapshot() {
		h(ctx)
	}
	m.probe(ctx)
	sched.Every(interval, scheduler.FuncJob(m.probe))
}

func (m *Monitor) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := m.prober.Ping(pctx)
	cancel()
	m.observe(ctx, err == nil)
}

// observe updates the state and fires handlers on an offline-to-online edge.
func (m *Monitor) observe(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	first := !m.observed
	m.online = online
	m.observed = true
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	// the very first observation seeds the state; only a real edge fires
	if first || wasOnline || !online {
		return
	}
	logger.Info("connectivity restored, triggering sync")
	for _, h := range handlers {
		h(ctx)
	}
}

func (m *Monitor) snapshot() []Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	return handlers
}
