package domain

import (
	"fmt"
	"time"
)

// CountdownParts is a zero-padded days/hours/minutes/seconds breakdown.
type CountdownParts struct {
	Days    string `json:"days"`
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
	Expired bool   `json:"expired"`
}

// Countdown splits the time remaining until end, clamped at zero.
func Countdown(end, now time.Time) CountdownParts {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return CountdownParts{Days: "00", Hours: "00", Minutes: "00", Seconds: "00", Expired: true}
	}
	total := int64(remaining / time.Second)
	return CountdownParts{
		Days:    pad2(total / 86400),
		Hours:   pad2(total % 86400 / 3600),
		Minutes: pad2(total % 3600 / 60),
		Seconds: pad2(total % 60),
	}
}

func pad2(n int64) string {
	return fmt.Sprintf("%02d", n)
}
