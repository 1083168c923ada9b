package live

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

type Snapshot[T any] struct {
	Value T
	Err   error
}

// Feed re-runs Query whenever one of Tables changes for the session's owner.
type Feed[T any] struct {
	Name   string
	Tables []string
	Query  func(ctx context.Context, sess session.Session) (T, error)
}

// Watch emits the full query result once, then again after every relevant
// change, until ctx ends. A failed query is emitted as Err and the feed
// keeps running.
func (f Feed[T]) Watch(ctx context.Context, hub *Hub, sess session.Session) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])
	events, cancel := hub.Subscribe(ctx, sess.OwnerID, f.Tables...)

	go func() {
		defer close(out)
		defer cancel()

		if !f.emit(ctx, sess, out) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if !f.emit(ctx, sess, out) {
					return
				}
			}
		}
	}()

	return out
}

func (f Feed[T]) emit(ctx context.Context, sess session.Session, out chan<- Snapshot[T]) bool {
	value, err := f.Query(ctx, sess)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Warn().Err(err).Str("feed", f.Name).Stringer("owner_id", sess.OwnerID).Msg("live: feed query failed")
	}
	select {
	case out <- Snapshot[T]{Value: value, Err: err}:
		return true
	case <-ctx.Done():
		return false
	}
}
