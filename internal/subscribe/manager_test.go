package subscribe

import (
	"context"
	"encoding/json"
	"testing"

	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	supported  bool
	permission Permission
	granted    Permission // result of RequestPermission
	requested  bool

	existing     *notification.Subscription
	created      *notification.Subscription
	subscribed   bool
	unsubbed     bool
	unsubErr     error
	subscribeErr error
}

func (p *fakePlatform) Supported() bool        { return p.supported }
func (p *fakePlatform) Permission() Permission { return p.permission }

func (p *fakePlatform) RequestPermission(ctx context.Context) (Permission, error) {
	p.requested = true
	return p.granted, nil
}

func (p *fakePlatform) Subscription(ctx context.Context) (notification.Subscription, bool, error) {
	if p.existing == nil {
		return notification.Subscription{}, false, nil
	}
	return *p.existing, true, nil
}

func (p *fakePlatform) Subscribe(ctx context.Context) (notification.Subscription, error) {
	if p.subscribeErr != nil {
		return notification.Subscription{}, p.subscribeErr
	}
	p.subscribed = true
	return *p.created, nil
}

func (p *fakePlatform) Unsubscribe(ctx context.Context) error {
	p.unsubbed = true
	return p.unsubErr
}

type fakeSubStore struct {
	saved   map[string]string
	removed []string
	saveErr error
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{saved: make(map[string]string)}
}

func (s *fakeSubStore) SaveSubscription(ctx context.Context, participantID, subscriptionJSON string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[participantID] = subscriptionJSON
	return nil
}

func (s *fakeSubStore) RemoveSubscription(ctx context.Context, participantID string) error {
	s.removed = append(s.removed, participantID)
	return nil
}

func testSubscription(endpoint string) *notification.Subscription {
	return &notification.Subscription{
		Endpoint: endpoint,
		Keys:     notification.Keys{P256dh: "p", Auth: "a"},
	}
}

func TestRegisterUnsupportedIsNotAnError(t *testing.T) {
	store := newFakeSubStore()
	m := NewManager(&fakePlatform{supported: false}, store)

	sub, err := m.Register(context.Background(), "P-001")
	assert.NoError(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, store.saved)
}

func TestRegisterDeniedIsNotAnError(t *testing.T) {
	store := newFakeSubStore()
	m := NewManager(&fakePlatform{supported: true, permission: PermissionDenied}, store)

	sub, err := m.Register(context.Background(), "P-001")
	assert.NoError(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, store.saved)
}

func TestRegisterUndecidedPromptsOnce(t *testing.T) {
	plat := &fakePlatform{
		supported:  true,
		permission: PermissionUndecided,
		granted:    PermissionDenied,
	}
	m := NewManager(plat, newFakeSubStore())

	sub, err := m.Register(context.Background(), "P-001")
	assert.NoError(t, err)
	assert.Nil(t, sub)
	assert.True(t, plat.requested)
}

func TestRegisterReusesExistingRegistration(t *testing.T) {
	plat := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		existing:   testSubscription("https://push.example/old"),
	}
	store := newFakeSubStore()
	m := NewManager(plat, store)

	sub, err := m.Register(context.Background(), "P-001")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "https://push.example/old", sub.Endpoint)
	assert.False(t, plat.subscribed, "existing registration must be reused")

	var saved notification.Subscription
	require.NoError(t, json.Unmarshal([]byte(store.saved["P-001"]), &saved))
	assert.Equal(t, sub.Endpoint, saved.Endpoint)
}

func TestRegisterCreatesWhenMissing(t *testing.T) {
	plat := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		created:    testSubscription("https://push.example/new"),
	}
	store := newFakeSubStore()
	m := NewManager(plat, store)

	sub, err := m.Register(context.Background(), "P-001")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, plat.subscribed)
	assert.Contains(t, store.saved["P-001"], "https://push.example/new")
}

func TestRegisterSaveFailurePropagates(t *testing.T) {
	plat := &fakePlatform{
		supported:  true,
		permission: PermissionGranted,
		existing:   testSubscription("https://push.example/e"),
	}
	store := newFakeSubStore()
	store.saveErr = errors.WithKind(errors.KindTransient, "remote unreachable")
	m := NewManager(plat, store)

	sub, err := m.Register(context.Background(), "P-001")
	assert.Error(t, err)
	assert.Nil(t, sub)
}

func TestUnregisterIsBestEffort(t *testing.T) {
	plat := &fakePlatform{
		supported: true,
		unsubErr:  errors.New("platform refused"),
	}
	store := newFakeSubStore()
	m := NewManager(plat, store)

	// the platform failure is logged, the remote delete still happens
	m.Unregister(context.Background(), "P-001")
	assert.True(t, plat.unsubbed)
	assert.Equal(t, []string{"P-001"}, store.removed)
}
