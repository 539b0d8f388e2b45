package channelinfo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fknsrs.biz/p/sorm"

	"fknsrs.biz/p/ytstats/internal/ctxclock"
	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxjobqueue"
	"fknsrs.biz/p/ytstats/internal/jobqueue"
	"fknsrs.biz/p/ytstats/internal/ptr"
	"fknsrs.biz/p/ytstats/internal/queuenames"
	"fknsrs.biz/p/ytstats/internal/statsched"
	"fknsrs.biz/p/ytstats/internal/ytapi"
	"fknsrs.biz/p/ytstats/internal/ytresolver"
	"fknsrs.biz/p/ytstats/models"
)

// FetchAndStore resolves input to a channel, fetches it from the metadata
// source, upserts the channel row, and appends one stats log row. Every call
// appends a log row; there is no staleness check. A video sync job is queued
// so the channel's uploads get discovered and scheduled.
func FetchAndStore(ctx context.Context, input string) (*models.Channel, error) {
	key, err := ytresolver.Resolve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("channelinfo.FetchAndStore: %w", err)
	}

	var data *ytapi.Channel

	switch key.Kind {
	case ytresolver.Username:
		data, err = ytapi.GetChannelByUsername(ctx, key.Value)
	default:
		data, err = ytapi.GetChannelByID(ctx, key.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("channelinfo.FetchAndStore: %w", err)
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("channelinfo.FetchAndStore: %w", err)
	}

	var channel models.Channel

	if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := sorm.FindFirstWhere(ctx, tx, &channel, "where external_id = ?", data.ID); err != nil {
			if err != sql.ErrNoRows {
				return err
			}

			channel.CreatedAt = now
			channel.ExternalID = data.ID
			applyChannelData(&channel, data, now)

			if err := sorm.CreateRecord(ctx, tx, &channel); err != nil {
				return err
			}
		} else {
			applyChannelData(&channel, data, now)

			if err := sorm.SaveRecord(ctx, tx, &channel); err != nil {
				return err
			}
		}

		// The log row needs the channel's row id, so it only ever follows a
		// successful upsert.
		if err := sorm.CreateRecord(ctx, tx, &models.ChannelStatsLog{
			ChannelID:       channel.ID,
			CreatedAt:       now,
			SubscriberCount: data.SubscriberCount,
			VideoCount:      data.VideoCount,
			ViewCount:       data.ViewCount,
		}); err != nil {
			return err
		}

		return ctxjobqueue.Add(ctx, tx, &jobqueue.Job{
			QueueName: queuenames.ChannelSyncVideos,
			Payload:   channel.ExternalID,
		})
	}); err != nil {
		return nil, fmt.Errorf("channelinfo.FetchAndStore: %w", err)
	}

	return &channel, nil
}

func applyChannelData(channel *models.Channel, data *ytapi.Channel, now time.Time) {
	channel.Title = data.Title
	channel.Description = data.Description
	channel.CustomURL = data.CustomURL
	channel.PublishedAt = data.PublishedAt
	channel.ThumbnailURL = data.ThumbnailURL
	channel.UploadsPlaylistID = data.UploadsPlaylistID
	channel.SubscriberCount = data.SubscriberCount
	channel.VideoCount = data.VideoCount
	channel.ViewCount = data.ViewCount
	channel.LastFetchedAt = ptr.Time(now)
}

// SyncVideos pages through the channel's uploads and upserts every video.
// Newly discovered videos get their first fetch scheduled a fixed delay out;
// existing rows keep their schedule untouched. Returns how many videos were
// newly discovered.
func SyncVideos(ctx context.Context, channelExternalID string) (int, error) {
	var channel models.Channel
	if err := sorm.FindFirstWhere(ctx, ctxdb.GetDB(ctx), &channel, "where external_id = ?", channelExternalID); err != nil {
		return 0, fmt.Errorf("channelinfo.SyncVideos: could not find channel: %w", err)
	}

	if channel.UploadsPlaylistID == "" {
		return 0, nil
	}

	items, err := ytapi.ListPlaylistVideos(ctx, channel.UploadsPlaylistID)
	if err != nil {
		return 0, fmt.Errorf("channelinfo.SyncVideos: %w", err)
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("channelinfo.SyncVideos: %w", err)
	}

	added := 0

	for _, item := range items {
		isNew := false

		if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
			var video models.Video
			if err := sorm.FindFirstWhere(ctx, tx, &video, "where external_id = ?", item.VideoID); err != nil {
				if err != sql.ErrNoRows {
					return err
				}

				isNew = true

				video.CreatedAt = now
				video.ExternalID = item.VideoID
				video.ChannelID = &channel.ID
				video.ChannelExternalID = channel.ExternalID
				applyVideoData(&video, item)
				video.NextStatFetchAt = ptr.Time(now.Add(statsched.InitialFetchDelay))
				video.StatFetchFrequencyHours = int(statsched.InitialFetchDelay / time.Hour)

				return sorm.CreateRecord(ctx, tx, &video)
			}

			video.ChannelID = &channel.ID
			video.ChannelExternalID = channel.ExternalID
			applyVideoData(&video, item)

			return sorm.SaveRecord(ctx, tx, &video)
		}); err != nil {
			return added, fmt.Errorf("channelinfo.SyncVideos: could not upsert video %s: %w", item.VideoID, err)
		}

		if isNew {
			added++
		}
	}

	return added, nil
}

func applyVideoData(video *models.Video, item ytapi.PlaylistVideo) {
	video.Title = item.Title
	video.Description = item.Description
	video.ThumbnailURL = item.ThumbnailURL
	if item.PublishedAt != nil {
		video.PublishedAt = item.PublishedAt
	}
}
