package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Channel is the NOTIFY channel the table triggers write to. Payloads are
// "<table>:<owner id>".
const Channel = "laundry_changes"

const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

type Notifier interface {
	// Run delivers events to pub until ctx ends.
	Run(ctx context.Context, pub Publisher) error
}

type PostgresNotifier struct {
	pool *pgxpool.Pool
}

func NewPostgresNotifier(pool *pgxpool.Pool) *PostgresNotifier {
	return &PostgresNotifier{pool: pool}
}

// Run holds one pooled connection in LISTEN mode. A lost connection is
// re-acquired with exponential delay; the delay starts over once a LISTEN
// succeeds again.
func (n *PostgresNotifier) Run(ctx context.Context, pub Publisher) error {
	var retry backoff
	for {
		err := n.listen(ctx, pub, retry.Reset)
		if ctx.Err() != nil {
			return nil
		}
		delay := retry.Next()
		log.Error().Err(err).Dur("retry_in", delay).Msg("live: listener stopped, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (n *PostgresNotifier) listen(ctx context.Context, pub Publisher, listening func()) error {
	conn, err := n.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	listening()
	log.Info().Str("channel", Channel).Msg("live: listening for changes")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for notification: %w", err)
		}
		e, err := ParsePayload(notification.Payload)
		if err != nil {
			log.Warn().Err(err).Str("payload", notification.Payload).Msg("live: ignoring malformed notification")
			continue
		}
		pub.Publish(e)
	}
}

// backoff doubles from minRetryDelay up to maxRetryDelay.
type backoff struct {
	next time.Duration
}

func (b *backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = minRetryDelay
	}
	d := b.next
	b.next *= 2
	if b.next > maxRetryDelay {
		b.next = maxRetryDelay
	}
	return d
}

func (b *backoff) Reset() {
	b.next = 0
}

var ErrMalformedPayload = errors.New("malformed change payload")

func ParsePayload(payload string) (Event, error) {
	table, owner, ok := strings.Cut(payload, ":")
	if !ok || table == "" {
		return Event{}, ErrMalformedPayload
	}
	ownerID, err := uuid.FromString(owner)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return Event{Table: table, OwnerID: ownerID}, nil
}
