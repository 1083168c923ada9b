package session_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

func TestFromContext(t *testing.T) {
	_, err := session.FromContext(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)

	s := session.Session{OwnerID: uuid.Must(uuid.NewV4()), DisplayName: "Ifa"}
	got, err := session.FromContext(session.WithSession(context.Background(), s))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestFromContext_NilOwner(t *testing.T) {
	ctx := session.WithSession(context.Background(), session.Session{DisplayName: "nobody"})
	_, err := session.FromContext(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)
}
