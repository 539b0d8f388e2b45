package models

import (
	"database/sql"
	"time"

	"fknsrs.biz/p/ytstats/internal/sqlbuilderutil"
	"fknsrs.biz/p/ytstats/internal/sqltypes"
)

var (
	ChannelTable *sqlbuilderutil.Table
)

func init() {
	ChannelTable = sqlbuilderutil.MustMakeTable(Channel{})
}

type Channel struct {
	ID         int `sql:",table:channels"`
	CreatedAt  time.Time
	ExternalID string
	Title      string

	Description       string
	CustomURL         string
	PublishedAt       *time.Time
	ThumbnailURL      string
	UploadsPlaylistID string

	SubscriberCount int64
	VideoCount      int64
	ViewCount       int64

	LastFetchedAt *time.Time
}

func (s *Channel) OverrideScan(names []string, scanners []sql.Scanner) error {
	for i, name := range names {
		switch name {
		case "CreatedAt":
			scanners[i] = &sqltypes.TimeScanner{Value: &s.CreatedAt}
		case "PublishedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.PublishedAt}
		case "LastFetchedAt":
			scanners[i] = &sqltypes.TimePointerScanner{Value: &s.LastFetchedAt}
		}
	}

	return nil
}
