package model

// Granularity is the fixed bucket width used when aggregating records.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity maps a query-string value onto a Granularity.
// The second return value is false for anything outside the accepted set.
func ParseGranularity(s string) (Granularity, bool) {
	switch Granularity(s) {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(s), true
	}
	return "", false
}
