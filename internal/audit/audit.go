// README: Asynchronous audit recorder; the core never waits on it.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"atelier/internal/types"
)

type Entry struct {
	Entity   string
	EntityID types.ID
	Action   string
	Before   any
	After    any
	ActorID  *types.ID
	At       time.Time
}

// Recorder consumes audit entries. Record must not block the caller.
type Recorder interface {
	Record(e Entry)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(Entry) {}

// PGRecorder buffers entries on a channel and writes them to the audit_log
// table from a single background goroutine. A full buffer drops the entry
// with a warning; auditing is informational and never back-pressures the core.
type PGRecorder struct {
	db  *pgxpool.Pool
	ch  chan Entry
	log zerolog.Logger
}

func NewPGRecorder(db *pgxpool.Pool, log zerolog.Logger) *PGRecorder {
	return &PGRecorder{
		db:  db,
		ch:  make(chan Entry, 256),
		log: log.With().Str("module", "audit").Logger(),
	}
}

// Run drains the buffer until ctx is cancelled.
func (r *PGRecorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-r.ch:
			r.write(context.WithoutCancel(ctx), e)
		}
	}
}

func (r *PGRecorder) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case r.ch <- e:
	default:
		r.log.Warn().Str("entity", e.Entity).Str("action", e.Action).Msg("audit: buffer full, entry dropped")
	}
}

func (r *PGRecorder) write(ctx context.Context, e Entry) {
	before, _ := json.Marshal(e.Before)
	after, _ := json.Marshal(e.After)
	var actor *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actor = &v
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (entity, entity_id, action, before, after, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.Entity, string(e.EntityID), e.Action, before, after, actor, e.At,
	)
	if err != nil {
		r.log.Warn().Err(err).Str("entity", e.Entity).Msg("audit: write failed")
	}
}
