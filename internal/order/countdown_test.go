package order_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
)

func TestNewCountdown(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want order.Countdown
		str  string
	}{
		{
			name: "ahead",
			due:  now.Add(2*24*time.Hour + 5*time.Hour + 6*time.Minute + 7*time.Second),
			want: order.Countdown{Days: 2, Hours: 5, Minutes: 6, Seconds: 7},
			str:  "2d 05:06:07",
		},
		{
			name: "overdue",
			due:  now.Add(-(90 * time.Minute)),
			want: order.Countdown{Overdue: true, Hours: 1, Minutes: 30},
			str:  "-0d 01:30:00",
		},
		{
			name: "overdue_fraction_floors",
			due:  now.Add(-1500 * time.Millisecond),
			want: order.Countdown{Overdue: true, Seconds: 2},
			str:  "-0d 00:00:02",
		},
		{
			name: "ahead_fraction_truncates",
			due:  now.Add(1500 * time.Millisecond),
			want: order.Countdown{Seconds: 1},
			str:  "0d 00:00:01",
		},
		{
			name: "exactly_now",
			due:  now,
			want: order.Countdown{},
			str:  "0d 00:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := order.NewCountdown(tt.due, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestCountdown_JSON(t *testing.T) {
	raw, err := json.Marshal(order.Countdown{Overdue: true, Days: 1, Seconds: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"overdue":true,"days":1,"hours":0,"minutes":0,"seconds":9,"text":"-1d 00:00:09"}`, string(raw))
}
