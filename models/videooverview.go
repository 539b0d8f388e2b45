package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	VideoOverviewTable *sqlbuilderutil.Table
)

func init() {
	VideoOverviewTable = sqlbuilderutil.MustMakeTable(VideoOverview{})
}

type VideoOverview struct {
	VideoID                 int `sql:",table:video_overview"`
	VideoCreatedAt          time.Time
	VideoExternalID         string
	VideoTitle              string
	VideoPublishedAt        *time.Time
	VideoThumbnailURL       string
	ChannelID               *int
	ChannelExternalID       string
	ChannelTitle            string
	ViewCount               int64
	LikeCount               int64
	CommentCount            int64
	NextStatFetchAt         *time.Time
	StatFetchFrequencyHours int
	LastStatLoggedAt        *time.Time
}

func (s *VideoOverview) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		switch name {
		case "VideoCreatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &s.VideoCreatedAt}
		case "VideoPublishedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.VideoPublishedAt}
		case "NextStatFetchAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.NextStatFetchAt}
		case "LastStatLoggedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.LastStatLoggedAt}
		}
	}

	return nil
}
