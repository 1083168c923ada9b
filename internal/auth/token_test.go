package auth

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	u := &User{ID: uuid.Must(uuid.NewV4()), Name: "Ifa", Email: "ifa@laundry.id"}

	raw, expiresAt, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	sess, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.OwnerID)
	assert.Equal(t, "ifa@laundry.id", sess.Email)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }

	raw, _, err := tokens.Issue(&User{ID: uuid.Must(uuid.NewV4())})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
