package notification

import (
	"context"
	"encoding/json"

	"FieldVoice/pkg/errors"
)

// Payload is the notification body shown on the device.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Keys are the client encryption keys from the push registration.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is the opaque delivery descriptor a device registers.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// ParseSubscription decodes the stored descriptor JSON.
func ParseSubscription(raw string) (Subscription, error) {
	var sub Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return Subscription{}, errors.Wrap(err, "malformed subscription descriptor")
	}
	if sub.Endpoint == "" {
		return Subscription{}, errors.WithKind(errors.KindValidation, "subscription has no endpoint")
	}
	return sub, nil
}

// Transport delivers a payload to one subscription. Implementations report a
// permanently invalid endpoint with errors.KindEndpointGone; every other
// failure is treated as deliverable-later.
type Transport interface {
	Send(ctx context.Context, sub Subscription, payload Payload) error
}
