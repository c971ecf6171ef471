package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/scheduler"

	"github.com/stretchr/testify/assert"
)

type stubProber struct {
	mu  sync.Mutex
	err error
}

func (p *stubProber) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *stubProber) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func TestObserveFiresOnlyOnOfflineToOnlineEdge(t *testing.T) {
	m := NewMonitor(&stubProber{})
	var fired int
	m.OnOnline(func(ctx context.Context) { fired++ })

	ctx := context.Background()

	// first observation seeds the state without firing
	m.observe(ctx, true)
	assert.Equal(t, 0, fired)
	assert.True(t, m.Online())

	// re-affirming online is not an edge
	m.observe(ctx, true)
	assert.Equal(t, 0, fired)

	m.observe(ctx, false)
	assert.Equal(t, 0, fired)
	assert.False(t, m.Online())

	m.observe(ctx, true)
	assert.Equal(t, 1, fired)

	// a second flap fires a second time, once
	m.observe(ctx, false)
	m.observe(ctx, true)
	m.observe(ctx, true)
	assert.Equal(t, 2, fired)
}

func TestFirstObservationOfflineThenOnlineFires(t *testing.T) {
	m := NewMonitor(&stubProber{})
	var fired int
	m.OnOnline(func(ctx context.Context) { fired++ })

	ctx := context.Background()
	m.observe(ctx, false)
	assert.Equal(t, 0, fired)

	m.observe(ctx, true)
	assert.Equal(t, 1, fired)
}

func TestStartFiresHandlersOnceRegardlessOfState(t *testing.T) {
	prober := &stubProber{}
	prober.set(errors.WithKind(errors.KindTransient, "unreachable"))

	m := NewMonitor(prober)
	var fired int
	m.OnOnline(func(ctx context.Context) { fired++ })

	sched := scheduler.New()
	defer sched.Stop()

	// offline at start: the unconditional start-up pass still runs so
	// entities queued before this process came up get a drain attempt
	m.Start(context.Background(), sched, time.Hour)
	assert.Equal(t, 1, fired)
	assert.False(t, m.Online())
}

func TestStartSettlesInitialState(t *testing.T) {
	prober := &stubProber{}
	m := NewMonitor(prober)
	var fired int
	m.OnOnline(func(ctx context.Context) { fired++ })

	sched := scheduler.New()
	defer sched.Stop()

	m.Start(context.Background(), sched, time.Hour)
	assert.True(t, m.Online())
	// the initial probe seeded the state, it did not count as an edge
	assert.Equal(t, 1, fired, "only the unconditional start-up pass fired")
}
