package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	VideoTable *sqlbuilderutil.Table
)

func init() {
	VideoTable = sqlbuilderutil.MustMakeTable(Video{})
}

type Video struct {
	ID                int `sql:",table:videos"`
	CreatedAt         time.Time
	ExternalID        string
	ChannelID         *int
	ChannelExternalID string
	Title             string
	Description       string
	PublishedAt       *time.Time
	ThumbnailURL      string

	ViewCount    int64
	LikeCount    int64
	CommentCount int64

	NextStatFetchAt         *time.Time
	StatFetchFrequencyHours int
	LastStatLoggedAt        *time.Time
}

func (s *Video) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		switch name {
		case "CreatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &s.CreatedAt}
		case "PublishedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.PublishedAt}
		case "NextStatFetchAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.NextStatFetchAt}
		case "LastStatLoggedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.LastStatLoggedAt}
		}
	}

	return nil
}
