package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		name  string
		input time.Time
		want  string
	}{
		{name: "zero", input: time.Time{}, want: ""},
		{name: "spring", input: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC), want: "1. april 2025"},
		{name: "late evening crosses midnight in Oslo", input: time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC), want: "1. januar 2026"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDate(tc.input))
		})
	}
}

func TestFormatDateTimeUsesOsloTime(t *testing.T) {
	summer := time.Date(2025, 6, 15, 12, 5, 0, 0, time.UTC)
	assert.Equal(t, "15. juni 2025 kl. 14.05", FormatDateTime(summer))

	winter := time.Date(2025, 1, 15, 12, 5, 0, 0, time.UTC)
	assert.Equal(t, "15. januar 2025 kl. 13.05", FormatDateTime(winter))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "mai", MonthName(time.May))
	assert.Equal(t, "", MonthName(time.Month(13)))
}
