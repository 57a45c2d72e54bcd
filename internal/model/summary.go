package model

import "time"

// SummaryBucket is one row of a user's aggregated activity: the bucket start
// plus the totals of every record falling inside that bucket. It is derived,
// never persisted.
//
// The SMA fields are pointers so the JSON encoder renders them as null until
// the trailing moving-average window is full — the API contract distinguishes
// "no average yet" (null) from an average of zero.
type SummaryBucket struct {
	Date         time.Time `json:"date"`
	WordCount    int       `json:"word_count"`
	StudyTime    int       `json:"study_time"`
	WordCountSMA *float64  `json:"word_count_sma"`
	StudyTimeSMA *float64  `json:"study_time_sma"`
}
