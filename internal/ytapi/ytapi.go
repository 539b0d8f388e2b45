package ytapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"

	"fknsrs.biz/p/ytstats/internal/ctxconfig"
	"fknsrs.biz/p/ytstats/internal/ctxhttpclient"
)

const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// MaxBatchIDs is the upstream limit on ids per list call.
const MaxBatchIDs = 50

var (
	ErrNotFound = fmt.Errorf("ytapi: not found")
)

type Channel struct {
	ID                string
	Title             string
	Description       string
	CustomURL         string
	ThumbnailURL      string
	UploadsPlaylistID string
	PublishedAt       *time.Time
	SubscriberCount   int64
	VideoCount        int64
	ViewCount         int64
}

type VideoStats struct {
	ID           string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

type PlaylistVideo struct {
	VideoID      string
	ChannelID    string
	Title        string
	Description  string
	ThumbnailURL string
	PublishedAt  *time.Time
}

func getJSON(ctx context.Context, path string, params url.Values) (*gabs.Container, error) {
	cfg := ctxconfig.GetConfig(ctx)

	baseURL := cfg.YouTubeAPIBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if cfg.YouTubeAPIKey != "" {
		params.Set("key", cfg.YouTubeAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ytapi.getJSON: %w", err)
	}

	res, err := ctxhttpclient.GetHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("ytapi.getJSON: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ytapi.getJSON: %w", ErrNotFound)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ytapi.getJSON: status code: %d", res.StatusCode)
	}

	j, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return nil, fmt.Errorf("ytapi.getJSON: %w", err)
	}

	return j, nil
}

func stringAt(j *gabs.Container, path string) string {
	if !j.ExistsP(path) {
		return ""
	}

	if s, ok := j.Path(path).Data().(string); ok {
		return s
	}

	return ""
}

// countAt reads the string-encoded counters the statistics endpoints return.
func countAt(j *gabs.Container, path string) int64 {
	s := stringAt(j, path)
	if s == "" {
		return 0
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

func timeAt(j *gabs.Container, path string) *time.Time {
	s := stringAt(j, path)
	if s == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}

	return &t
}

func parseChannel(item *gabs.Container) *Channel {
	return &Channel{
		ID:                stringAt(item, "id"),
		Title:             stringAt(item, "snippet.title"),
		Description:       stringAt(item, "snippet.description"),
		CustomURL:         stringAt(item, "snippet.customUrl"),
		ThumbnailURL:      stringAt(item, "snippet.thumbnails.default.url"),
		UploadsPlaylistID: stringAt(item, "contentDetails.relatedPlaylists.uploads"),
		PublishedAt:       timeAt(item, "snippet.publishedAt"),
		SubscriberCount:   countAt(item, "statistics.subscriberCount"),
		VideoCount:        countAt(item, "statistics.videoCount"),
		ViewCount:         countAt(item, "statistics.viewCount"),
	}
}

func getChannel(ctx context.Context, params url.Values) (*Channel, error) {
	params.Set("part", "snippet,statistics,contentDetails")

	j, err := getJSON(ctx, "/channels", params)
	if err != nil {
		return nil, err
	}

	items := j.Path("items").Children()
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	ch := parseChannel(items[0])
	if ch.ID == "" {
		return nil, fmt.Errorf("ytapi.getChannel: response item has no id")
	}

	return ch, nil
}

func GetChannelByID(ctx context.Context, id string) (*Channel, error) {
	ch, err := getChannel(ctx, url.Values{"id": []string{id}})
	if err != nil {
		return nil, fmt.Errorf("ytapi.GetChannelByID: %w", err)
	}

	return ch, nil
}

func GetChannelByUsername(ctx context.Context, username string) (*Channel, error) {
	ch, err := getChannel(ctx, url.Values{"forUsername": []string{username}})
	if err != nil {
		return nil, fmt.Errorf("ytapi.GetChannelByUsername: %w", err)
	}

	return ch, nil
}

// SearchChannelID returns the id of the top channel match for q.
func SearchChannelID(ctx context.Context, q string) (string, error) {
	j, err := getJSON(ctx, "/search", url.Values{
		"part":       []string{"snippet"},
		"type":       []string{"channel"},
		"maxResults": []string{"1"},
		"q":          []string{q},
	})
	if err != nil {
		return "", fmt.Errorf("ytapi.SearchChannelID: %w", err)
	}

	items := j.Path("items").Children()
	if len(items) == 0 {
		return "", fmt.Errorf("ytapi.SearchChannelID: %w", ErrNotFound)
	}

	id := stringAt(items[0], "id.channelId")
	if id == "" {
		id = stringAt(items[0], "snippet.channelId")
	}
	if id == "" {
		return "", fmt.Errorf("ytapi.SearchChannelID: top result has no channel id")
	}

	return id, nil
}

// GetVideoStats fetches statistics for up to MaxBatchIDs videos in one call.
// Ids with no entry in the response are simply absent from the result.
func GetVideoStats(ctx context.Context, ids []string) ([]VideoStats, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchIDs {
		return nil, fmt.Errorf("ytapi.GetVideoStats: at most %d ids per call; got %d", MaxBatchIDs, len(ids))
	}

	j, err := getJSON(ctx, "/videos", url.Values{
		"part": []string{"statistics"},
		"id":   []string{strings.Join(ids, ",")},
	})
	if err != nil {
		return nil, fmt.Errorf("ytapi.GetVideoStats: %w", err)
	}

	var a []VideoStats

	for _, item := range j.Path("items").Children() {
		id := stringAt(item, "id")
		if id == "" {
			continue
		}

		a = append(a, VideoStats{
			ID:           id,
			ViewCount:    countAt(item, "statistics.viewCount"),
			LikeCount:    countAt(item, "statistics.likeCount"),
			CommentCount: countAt(item, "statistics.commentCount"),
		})
	}

	return a, nil
}

// ListPlaylistVideos follows the page cursor until the listing is exhausted.
func ListPlaylistVideos(ctx context.Context, playlistID string) ([]PlaylistVideo, error) {
	var a []PlaylistVideo

	pageToken := ""

	for {
		params := url.Values{
			"part":       []string{"snippet,contentDetails"},
			"playlistId": []string{playlistID},
			"maxResults": []string{strconv.Itoa(MaxBatchIDs)},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		j, err := getJSON(ctx, "/playlistItems", params)
		if err != nil {
			return nil, fmt.Errorf("ytapi.ListPlaylistVideos: %w", err)
		}

		for _, item := range j.Path("items").Children() {
			videoID := stringAt(item, "contentDetails.videoId")
			if videoID == "" {
				videoID = stringAt(item, "snippet.resourceId.videoId")
			}
			if videoID == "" {
				continue
			}

			publishedAt := timeAt(item, "contentDetails.videoPublishedAt")
			if publishedAt == nil {
				publishedAt = timeAt(item, "snippet.publishedAt")
			}

			a = append(a, PlaylistVideo{
				VideoID:      videoID,
				ChannelID:    stringAt(item, "snippet.channelId"),
				Title:        stringAt(item, "snippet.title"),
				Description:  stringAt(item, "snippet.description"),
				ThumbnailURL: stringAt(item, "snippet.thumbnails.default.url"),
				PublishedAt:  publishedAt,
			})
		}

		pageToken = stringAt(j, "nextPageToken")
		if pageToken == "" {
			return a, nil
		}
	}
}
