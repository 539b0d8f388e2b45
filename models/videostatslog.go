package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	VideoStatsLogTable *sqlbuilderutil.Table
)

func init() {
	VideoStatsLogTable = sqlbuilderutil.MustMakeTable(VideoStatsLog{})
}

// VideoStatsLog rows are append-only; nothing updates or deletes them.
type VideoStatsLog struct {
	ID        int `sql:",table:video_stats_logs"`
	VideoID   int
	FetchedAt time.Time

	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

func (s *VideoStatsLog) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		if name == "FetchedAt" {
			scanners[i] = &sqltypes.TimeScanner{Value: &s.FetchedAt}
		}
	}

	return nil
}
