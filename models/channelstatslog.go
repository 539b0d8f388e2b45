package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	ChannelStatsLogTable *sqlbuilderutil.Table
)

func init() {
	ChannelStatsLogTable = sqlbuilderutil.MustMakeTable(ChannelStatsLog{})
}

// ChannelStatsLog rows are append-only; nothing updates or deletes them.
type ChannelStatsLog struct {
	ID        int `sql:",table:channel_stats_logs"`
	ChannelID int
	CreatedAt time.Time

	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64
}

func (s *ChannelStatsLog) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		if name == "CreatedAt" {
			scanners[i] = &sqltypes.TimeScanner{Value: &s.CreatedAt}
		}
	}

	return nil
}
