package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	var b backoff

	var got []time.Duration
	for i := 0; i < 9; i++ {
		got = append(got, b.Next())
	}
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}, got)

	b.Reset()
	assert.Equal(t, minRetryDelay, b.Next(), "a successful LISTEN starts the delay over")
	assert.Equal(t, time.Second, b.Next())
}
