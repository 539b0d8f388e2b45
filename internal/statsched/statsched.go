package statsched

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fknsrs.biz/p/sorm"
	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytstats/internal/ctxclock"
	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxlogger"
	"fknsrs.biz/p/ytstats/internal/ytapi"
	"fknsrs.biz/p/ytstats/models"
)

// InitialFetchDelay is how far out the first statistics fetch is scheduled
// when a video is discovered, before the age-based policy takes over.
const InitialFetchDelay = time.Hour

// NextInterval returns the refresh interval for a video published
// sincePublished ago. The policy is memoryless: it depends only on the
// video's age, never on the previous interval.
func NextInterval(sincePublished time.Duration) time.Duration {
	switch {
	case sincePublished <= 24*time.Hour:
		return time.Hour
	case sincePublished <= 72*time.Hour:
		return 3 * time.Hour
	default:
		return 24 * time.Hour
	}
}

type pendingUpdate struct {
	video models.Video
	stats ytapi.VideoStats
}

// RefreshDueVideos runs one scheduler pass: every video whose
// next_stat_fetch_at has passed gets a fresh statistics fetch, one appended
// log row, updated cached counts, and a new due time. The pass timestamp is
// read once from the context clock and shared by every row the pass touches.
// Returns the number of videos refreshed.
func RefreshDueVideos(ctx context.Context) (int, error) {
	l := ctxlogger.GetLogger(ctx)

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("statsched.RefreshDueVideos: %w", err)
	}

	var due []models.Video
	if err := sorm.FindWhere(ctx, ctxdb.GetDB(ctx), &due, "where next_stat_fetch_at is not null and next_stat_fetch_at <= ? order by next_stat_fetch_at asc", now); err != nil {
		return 0, fmt.Errorf("statsched.RefreshDueVideos: could not find due videos: %w", err)
	}

	if len(due) == 0 {
		return 0, nil
	}

	l.WithFields(logrus.Fields{"due_count": len(due)}).Info("running statistics refresh pass")

	var updates []pendingUpdate

	for start := 0; start < len(due); start += ytapi.MaxBatchIDs {
		end := start + ytapi.MaxBatchIDs
		if end > len(due) {
			end = len(due)
		}
		batch := due[start:end]

		ids := make([]string, len(batch))
		for i, v := range batch {
			ids[i] = v.ExternalID
		}

		stats, err := ytapi.GetVideoStats(ctx, ids)
		if err != nil {
			// Rows in a failed batch stay due and are retried next pass.
			l.WithError(err).WithFields(logrus.Fields{"batch_size": len(ids)}).Error("statistics batch fetch failed")
			continue
		}

		byID := make(map[string]ytapi.VideoStats, len(stats))
		for _, s := range stats {
			byID[s.ID] = s
		}

		for _, v := range batch {
			s, ok := byID[v.ExternalID]
			if !ok {
				// Unmatched rows are skipped: no log row, still due.
				l.WithFields(logrus.Fields{"video_external_id": v.ExternalID}).Debug("no statistics returned for video")
				continue
			}

			updates = append(updates, pendingUpdate{video: v, stats: s})
		}
	}

	if len(updates) == 0 {
		return 0, nil
	}

	// Log rows and schedule updates are independent writes: a failure in one
	// is logged and does not block the other.
	if err := ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, u := range updates {
			if err := sorm.CreateRecord(ctx, tx, &models.VideoStatsLog{
				VideoID:      u.video.ID,
				FetchedAt:    now,
				ViewCount:    u.stats.ViewCount,
				LikeCount:    u.stats.LikeCount,
				CommentCount: u.stats.CommentCount,
			}); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		l.WithError(err).Error("could not append video stats log rows")
	}

	processed := 0

	for _, u := range updates {
		if err := rescheduleVideo(ctx, u, now); err != nil {
			l.WithError(err).WithFields(logrus.Fields{"video_external_id": u.video.ExternalID}).Error("could not update video schedule")
			continue
		}

		processed++
	}

	return processed, nil
}

func rescheduleVideo(ctx context.Context, u pendingUpdate, now time.Time) error {
	publishedAt := u.video.CreatedAt
	if u.video.PublishedAt != nil {
		publishedAt = *u.video.PublishedAt
	}

	interval := NextInterval(now.Sub(publishedAt))
	nextFetchAt := now.Add(interval)

	return ctxdb.UsingTx(ctx, nil, func(ctx context.Context, tx *sql.Tx) error {
		var video models.Video
		if err := sorm.FindFirstWhere(ctx, tx, &video, "where id = ?", u.video.ID); err != nil {
			return err
		}

		video.ViewCount = u.stats.ViewCount
		video.LikeCount = u.stats.LikeCount
		video.CommentCount = u.stats.CommentCount
		video.NextStatFetchAt = &nextFetchAt
		video.StatFetchFrequencyHours = int(interval / time.Hour)
		video.LastStatLoggedAt = &now

		return sorm.SaveRecord(ctx, tx, &video)
	})
}
