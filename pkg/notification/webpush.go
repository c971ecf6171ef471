package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"FieldVoice/pkg/errors"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type VAPIDConfig struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

// WebPush sends notifications through the Web Push protocol with VAPID auth.
type WebPush struct {
	cfg VAPIDConfig
}

func NewWebPush(cfg VAPIDConfig) *WebPush { return &WebPush{cfg: cfg} }

func (w *WebPush) Send(ctx context.Context, sub Subscription, payload Payload) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode push payload")
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      w.cfg.Subject,
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return errors.WrapKind(err, errors.KindTransient, "push delivery failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return errors.WithKindf(errors.KindEndpointGone, "push endpoint gone (status %d)", resp.StatusCode)
	case resp.StatusCode >= 400:
		return errors.WithKindf(errors.KindTransient, "push service returned status %d", resp.StatusCode)
	}
	return nil
}
