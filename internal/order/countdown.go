package order

import (
	"encoding/json"
	"fmt"
	"time"
)

// Countdown is the time left until a deadline, or the time since it passed.
type Countdown struct {
	Overdue bool  `json:"overdue"`
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// NewCountdown splits due - now into days, hours, minutes and seconds. The
// signed difference is floored to whole seconds before the sign is dropped,
// so 1.5s overdue reads as 2s.
func NewCountdown(due, now time.Time) Countdown {
	diff := due.Sub(now)
	c := Countdown{Overdue: diff < 0}

	totalMs := diff.Milliseconds()
	secs := totalMs / 1000
	if totalMs < 0 && totalMs%1000 != 0 {
		secs--
	}
	if secs < 0 {
		secs = -secs
	}

	c.Days = secs / 86400
	c.Hours = secs % 86400 / 3600
	c.Minutes = secs % 3600 / 60
	c.Seconds = secs % 60
	return c
}

func (c Countdown) String() string {
	sign := ""
	if c.Overdue {
		sign = "-"
	}
	return fmt.Sprintf("%s%dd %02d:%02d:%02d", sign, c.Days, c.Hours, c.Minutes, c.Seconds)
}

func (c Countdown) MarshalJSON() ([]byte, error) {
	type plain Countdown
	return json.Marshal(struct {
		plain
		Text string `json:"text"`
	}{plain(c), c.String()})
}
