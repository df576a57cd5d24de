package domain

import "time"

// Period is the bucket width of an analytics series.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period query value. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", NewValidationError("period", `invalid period, must be "day", "week", or "month"`)
}

// DataPoint is the scan count of one bucket.
type DataPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsSummary is a dense series of buckets covering [StartDate, EndDate].
type AnalyticsSummary struct {
	Total      int64       `json:"total"`
	Period     Period      `json:"period"`
	DataPoints []DataPoint `json:"dataPoints"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
}
