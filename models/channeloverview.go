package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	ChannelOverviewTable *sqlbuilderutil.Table
)

func init() {
	ChannelOverviewTable = sqlbuilderutil.MustMakeTable(ChannelOverview{})
}

type ChannelOverview struct {
	ChannelID            int `sql:",table:channel_overview"`
	ChannelCreatedAt     time.Time
	ChannelExternalID    string
	ChannelTitle         string
	ChannelCustomURL     string
	ChannelPublishedAt   *time.Time
	ChannelThumbnailURL  string
	SubscriberCount      int64
	VideoCount           int64
	ViewCount            int64
	ChannelLastFetchedAt *time.Time
	TrackedVideoCount    int64
}

func (s *ChannelOverview) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		switch name {
		case "ChannelCreatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &s.ChannelCreatedAt}
		case "ChannelPublishedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.ChannelPublishedAt}
		case "ChannelLastFetchedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.ChannelLastFetchedAt}
		}
	}

	return nil
}
