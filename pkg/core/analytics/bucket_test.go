package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestBucketStart(t *testing.T) {
	t.Parallel()

	wed := time.Date(2024, time.January, 17, 15, 4, 5, 6, time.UTC)

	assert.Equal(t, date(2024, time.January, 17, 0), bucketStart(wed, domain.PeriodDay))
	assert.Equal(t, date(2024, time.January, 14, 0), bucketStart(wed, domain.PeriodWeek))
	assert.Equal(t, date(2024, time.January, 1, 0), bucketStart(wed, domain.PeriodMonth))

	// Sunday is the first day of its own week.
	sun := date(2024, time.January, 14, 9)
	assert.Equal(t, date(2024, time.January, 14, 0), bucketStart(sun, domain.PeriodWeek))

	// A week can start in the previous month or year.
	assert.Equal(t, date(2025, time.December, 28, 0), bucketStart(date(2026, time.January, 2, 12), domain.PeriodWeek))
}

func TestBucketStart_Location(t *testing.T) {
	t.Parallel()

	bangkok := time.FixedZone("ICT", 7*60*60)
	// 2024-01-16T20:00Z is already the 17th in UTC+7.
	ts := date(2024, time.January, 16, 20).In(bangkok)

	got := bucketStart(ts, domain.PeriodDay)
	assert.Equal(t, "2024-01-17", bucketKey(got, domain.PeriodDay))
	assert.Equal(t, time.Date(2024, time.January, 17, 0, 0, 0, 0, bangkok), got)
}

func TestNextBucket(t *testing.T) {
	t.Parallel()

	assert.Equal(t, date(2024, time.March, 1, 0), nextBucket(date(2024, time.February, 29, 0), domain.PeriodDay))
	assert.Equal(t, date(2024, time.January, 7, 0), nextBucket(date(2023, time.December, 31, 0), domain.PeriodWeek))
	assert.Equal(t, date(2025, time.January, 1, 0), nextBucket(date(2024, time.December, 1, 0), domain.PeriodMonth))
}

func TestBucketKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		start  time.Time
		period domain.Period
		want   string
	}{
		{name: "day", start: date(2024, time.January, 5, 0), period: domain.PeriodDay, want: "2024-01-05"},
		{name: "month", start: date(2024, time.November, 1, 0), period: domain.PeriodMonth, want: "2024-11"},
		{name: "week containing jan 1", start: date(2023, time.December, 31, 0), period: domain.PeriodWeek, want: "2024-W1"},
		{name: "second week", start: date(2024, time.January, 7, 0), period: domain.PeriodWeek, want: "2024-W2"},
		{name: "mid january", start: date(2024, time.January, 14, 0), period: domain.PeriodWeek, want: "2024-W3"},
		{name: "last full week of 2025", start: date(2025, time.December, 21, 0), period: domain.PeriodWeek, want: "2025-W52"},
		{name: "week spanning 2026", start: date(2025, time.December, 28, 0), period: domain.PeriodWeek, want: "2026-W1"},
		{name: "first week after new year", start: date(2026, time.January, 4, 0), period: domain.PeriodWeek, want: "2026-W2"},
		{name: "week ending dec 31", start: date(2022, time.December, 25, 0), period: domain.PeriodWeek, want: "2022-W53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bucketKey(tt.start, tt.period))
		})
	}
}

func TestBucketKey_WeekMonotonic(t *testing.T) {
	t.Parallel()

	start := date(2020, time.January, 5, 0)
	end := date(2027, time.December, 31, 0)

	prev := ""
	for b := start; b.Before(end); b = nextBucket(b, domain.PeriodWeek) {
		k := bucketKey(b, domain.PeriodWeek)
		require.NotEqual(t, prev, k)
		if prev != "" && prev[:4] == k[:4] {
			require.Less(t, weekNumber(t, prev), weekNumber(t, k), "%s then %s", prev, k)
		}
		prev = k
	}
}

func weekNumber(t *testing.T, key string) int {
	t.Helper()
	var y, n int
	_, err := fmt.Sscanf(key, "%d-W%d", &y, &n)
	require.NoError(t, err)
	return n
}

func TestBucketStarts_Limit(t *testing.T) {
	t.Parallel()

	start := date(2020, time.January, 1, 0)

	starts, err := bucketStarts(start, start.AddDate(0, 0, MaxBuckets-1), domain.PeriodDay)
	require.NoError(t, err)
	assert.Len(t, starts, MaxBuckets)

	_, err = bucketStarts(start, start.AddDate(0, 0, MaxBuckets), domain.PeriodDay)
	require.ErrorIs(t, err, domain.ErrValidation)
}
