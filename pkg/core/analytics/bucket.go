package analytics

import (
	"fmt"
	"time"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
)

// MaxBuckets caps the length of a single series.
const MaxBuckets = 1000

func validPeriod(p domain.Period) bool {
	switch p {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
		return true
	}
	return false
}

// bucketStart returns the start of the bucket containing t, in t's location.
// Weeks start on Sunday.
func bucketStart(t time.Time, p domain.Period) time.Time {
	y, m, d := t.Date()
	switch p {
	case domain.PeriodWeek:
		return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, t.Location())
	case domain.PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

// nextBucket steps a bucket start forward by one period.
// time.Date normalizes overflowing days and months.
func nextBucket(start time.Time, p domain.Period) time.Time {
	y, m, d := start.Date()
	switch p {
	case domain.PeriodWeek:
		return time.Date(y, m, d+7, 0, 0, 0, 0, start.Location())
	case domain.PeriodMonth:
		return time.Date(y, m+1, 1, 0, 0, 0, 0, start.Location())
	default:
		return time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
	}
}

// bucketKey renders the label of a bucket from its start.
//
// Weeks are numbered within the year of their Saturday, counting
// Sunday-aligned weeks with the week holding January 1st as W1. A week
// spanning New Year is W1 of the new year.
func bucketKey(start time.Time, p domain.Period) string {
	switch p {
	case domain.PeriodWeek:
		last := start.AddDate(0, 0, 6)
		jan1 := time.Date(last.Year(), time.January, 1, 0, 0, 0, 0, last.Location())
		n := (last.YearDay()-1+int(jan1.Weekday()))/7 + 1
		return fmt.Sprintf("%d-W%d", last.Year(), n)
	case domain.PeriodMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// bucketStarts lists every bucket start from the aligned start up to end.
func bucketStarts(start, end time.Time, p domain.Period) ([]time.Time, error) {
	var starts []time.Time
	for b := start; !b.After(end); b = nextBucket(b, p) {
		if len(starts) == MaxBuckets {
			return nil, domain.NewValidationError("", fmt.Sprintf("window spans more than %d %s buckets", MaxBuckets, p))
		}
		starts = append(starts, b)
	}
	return starts, nil
}
