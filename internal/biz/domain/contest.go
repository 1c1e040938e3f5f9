package domain

import (
	"sort"
	"time"
)

// DefaultRolloverHour is the UTC hour at which a contest day closes.
const DefaultRolloverHour = 14

// ContestDay maps a timestamp to its contest-day bucket. A submission
// timestamped before the rollover hour belongs to the previous calendar
// day's bucket.
func ContestDay(t time.Time, rolloverHour int) string {
	t = t.UTC()
	if t.Hour() < rolloverHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

// ContestRecord is the accepted-item counter for one (submitter, chat, day).
type ContestRecord struct {
	Submitter Submitter
	ChatID    int64
	Day       string
	Count     int
}

// RankRecords orders records by count descending, ties broken by lower
// submitter id. The input slice is not modified.
func RankRecords(records []*ContestRecord) []*ContestRecord {
	ranked := make([]*ContestRecord, len(records))
	copy(ranked, records)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Submitter.ID < ranked[j].Submitter.ID
	})
	return ranked
}
