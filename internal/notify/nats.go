// README: NATS event publisher sink for the external notification service.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"atelier/internal/types"
)

// Event is the JSON schema published on notifications.orders.<event>.
type Event struct {
	EventKind string         `json:"event_kind"`
	UserID    string         `json:"user_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NATSSink publishes events for the downstream notification service.
// Publish errors are logged and never propagated.
type NATSSink struct {
	conn *nats.Conn
	log  zerolog.Logger
}

func NewNATSSink(conn *nats.Conn, log zerolog.Logger) *NATSSink {
	return &NATSSink{conn: conn, log: log.With().Str("sink", "nats").Logger()}
}

func (s *NATSSink) Notify(ctx context.Context, userID types.ID, kind EventKind, payload map[string]any) {
	data, err := json.Marshal(Event{
		EventKind: string(kind),
		UserID:    string(userID),
		Payload:   payload,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("event", string(kind)).Msg("notify: marshal failed")
		return
	}
	subject := fmt.Sprintf("notifications.orders.%s", kind)
	if err := s.conn.Publish(subject, data); err != nil {
		s.log.Warn().Err(err).Str("subject", subject).Msg("notify: publish failed")
	}
}
