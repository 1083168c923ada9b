// Package session carries the signed-in shop account through a request.
// Services receive a Session as an explicit argument; the context helpers
// exist only to move it from the auth middleware to the handlers.
package session

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
)

var ErrNoSession = errors.New("no session in context")

type Session struct {
	OwnerID     uuid.UUID
	DisplayName string
	Email       string
}

func (s Session) Valid() bool {
	return s.OwnerID != uuid.Nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || !s.Valid() {
		return Session{}, ErrNoSession
	}
	return s, nil
}
