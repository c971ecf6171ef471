package subscribe

import (
	"context"
	"os"

	"FieldVoice/pkg/errors"
	"FieldVoice/pkg/notification"
)

// FilePlatform adapts a headless device to the Platform interface. The push
// registration is a descriptor JSON file exported from the device's browser;
// the capability is absent when no path is configured.
type FilePlatform struct {
	Path string
}

func (p *FilePlatform) Supported() bool { return p.Path != "" }

func (p *FilePlatform) Permission() Permission {
	if p.Path == "" {
		return PermissionDenied
	}
	if _, err := os.Stat(p.Path); err != nil {
		return PermissionUndecided
	}
	return PermissionGranted
}

// RequestPermission cannot prompt anyone on a headless device; the decision
// is whatever the file's presence says.
func (p *FilePlatform) RequestPermission(ctx context.Context) (Permission, error) {
	return p.Permission(), nil
}

func (p *FilePlatform) Subscription(ctx context.Context) (notification.Subscription, bool, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return notification.Subscription{}, false, nil
		}
		return notification.Subscription{}, false, errors.Wrap(err, "read subscription file")
	}
	sub, err := notification.ParseSubscription(string(raw))
	if err != nil {
		return notification.Subscription{}, false, err
	}
	return sub, true, nil
}

// Subscribe cannot mint a registration without the platform push service.
func (p *FilePlatform) Subscribe(ctx context.Context) (notification.Subscription, error) {
	return notification.Subscription{}, errors.New("no push registration available; export one from the device")
}

func (p *FilePlatform) Unsubscribe(ctx context.Context) error {
	err := os.Remove(p.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
