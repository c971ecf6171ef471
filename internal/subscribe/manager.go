package subscribe

import (
	"context"
	"encoding/json"

	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/logger"
	"FieldVoice/pkg/notification"

	"go.uber.org/zap"
)

// Permission is the user's push notification decision on this device.
type Permission string

const (
	PermissionGranted   Permission = "granted"
	PermissionDenied    Permission = "denied"
	PermissionUndecided Permission = "default"
)

// Platform is the device push capability: registration and permission state
// live with the platform, not with us.
type Platform interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)

	// Subscription returns the existing registration, if any.
	Subscription(ctx context.Context) (notification.Subscription, bool, error)
	// Subscribe creates a new registration.
	Subscribe(ctx context.Context) (notification.Subscription, error)
	// Unsubscribe cancels the registration. A no-op when none exists.
	Unsubscribe(ctx context.Context) error
}

// SubscriptionStore is the slice of the remote store the manager writes to.
// remote.Client satisfies it.
type SubscriptionStore interface {
	SaveSubscription(ctx context.Context, participantID, subscriptionJSON string) error
	RemoveSubscription(ctx context.Context, participantID string) error
}

// Manager ties a device's push registration to a participant identity.
type Manager struct {
	platform Platform
	remote   SubscriptionStore
}

func NewManager(platform Platform, remote SubscriptionStore) *Manager {
	return &Manager{platform: platform, remote: remote}
}

// Register obtains or creates the device's push registration and upserts it
// remotely, replacing any prior descriptor for the participant. A missing
// capability or a denied permission yields (nil, nil): not subscribing is
// not a failure.
func (m *Manager) Register(ctx context.Context, participantID string) (*notification.Subscription, error) {
	if !m.platform.Supported() {
		logger.Info("push not supported on this device")
		return nil, nil
	}

	perm := m.platform.Permission()
	if perm == PermissionUndecided {
		var err error
		perm, err = m.platform.RequestPermission(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "request push permission")
		}
	}
	if perm != PermissionGranted {
		logger.Info("push permission not granted", zap.String("permission", string(perm)))
		return nil, nil
	}

	sub, ok, err := m.platform.Subscription(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read push registration")
	}
	if !ok {
		sub, err = m.platform.Subscribe(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "create push registration")
		}
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		return nil, errors.Wrap(err, "encode subscription")
	}
	if err := m.remote.SaveSubscription(ctx, participantID, string(raw)); err != nil {
		return nil, errors.Wrap(err, "save subscription")
	}

	logger.Info("push subscription saved", zap.String("participant", participantID))
	return &sub, nil
}

// Unregister is best-effort: it cancels the local registration and deletes
// the remote row, logging rather than propagating failures.
func (m *Manager) Unregister(ctx context.Context, participantID string) {
	if m.platform.Supported() {
		if err := m.platform.Unsubscribe(ctx); err != nil {
			logger.Warn("cancel push registration failed", zap.Error(err))
		}
	}
	if err := m.remote.RemoveSubscription(ctx, participantID); err != nil {
		logger.Warn("delete remote subscription failed",
			zap.String("participant", participantID), zap.Error(err))
		return
	}
	logger.Info("push subscription removed", zap.String("participant", participantID))
}
