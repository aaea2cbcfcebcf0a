package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2025-03-09", FormatDate(got))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "  ", "09/03/2025", "2025-02-30", "2025-3-9"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDateRangeCrossesMonthAndYear(t *testing.T) {
	start := time.Date(2024, 12, 28, 15, 4, 5, 0, time.UTC)
	got := DateRange(start, 7)
	require.Len(t, got, 7)

	want := []string{"2024-12-28", "2024-12-29", "2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02", "2025-01-03"}
	for i, d := range got {
		assert.Equal(t, want[i], FormatDate(d))
		assert.Zero(t, d.Hour())
	}
}

func TestDateRangeLeapDay(t *testing.T) {
	got := DateRange(time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, "2024-02-29", FormatDate(got[2]))
	assert.Nil(t, DateRange(got[0], 0))
}
