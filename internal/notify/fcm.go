// README: FCM push delivery sink.
package notify

import (
	"context"
	"encoding/json"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"

	"atelier/internal/types"
)

// TokenSource resolves a user's registered device token.
type TokenSource interface {
	FCMToken(ctx context.Context, userID types.ID) (string, bool, error)
}

type FCMSink struct {
	client *messaging.Client
	tokens TokenSource
	log    zerolog.Logger
}

func NewFCMSink(client *messaging.Client, tokens TokenSource, log zerolog.Logger) *FCMSink {
	return &FCMSink{client: client, tokens: tokens, log: log.With().Str("sink", "fcm").Logger()}
}

func (s *FCMSink) Notify(ctx context.Context, userID types.ID, kind EventKind, payload map[string]any) {
	token, ok, err := s.tokens.FCMToken(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", string(userID)).Msg("notify: token lookup failed")
		return
	}
	if !ok {
		return
	}

	data := map[string]string{"event": string(kind)}
	for k, v := range payload {
		if raw, err := json.Marshal(v); err == nil {
			data[k] = string(raw)
		}
	}
	_, err = s.client.Send(ctx, &messaging.Message{Token: token, Data: data})
	if err != nil {
		s.log.Warn().Err(err).
			Str("user_id", string(userID)).
			Str("event", string(kind)).
			Msg("notify: push delivery failed")
	}
}
