package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBatchExpiredComparesCalendarDates(t *testing.T) {
	lagos := time.FixedZone("WAT", 60*60)
	la := time.FixedZone("PDT", -7*60*60)

	expiry := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	b := Batch{Name: "B-1", ExpiryDate: expiry}

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"day before, late evening ahead of UTC", time.Date(2024, 5, 9, 23, 30, 0, 0, lagos), false},
		{"day before, evening behind UTC", time.Date(2024, 5, 9, 20, 0, 0, 0, la), false},
		{"expiry day, just after midnight", time.Date(2024, 5, 10, 0, 15, 0, 0, lagos), true},
		{"expiry day, behind UTC", time.Date(2024, 5, 10, 22, 0, 0, 0, la), true},
		{"day after", time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Expired(tt.day))
		})
	}

	assert.False(t, Batch{Name: "B-2"}.Expired(time.Now()), "no expiry date")
}
