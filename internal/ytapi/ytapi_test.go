package ytapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fknsrs.biz/p/ytstats/internal/config"
	"fknsrs.biz/p/ytstats/internal/ctxconfig"
	"fknsrs.biz/p/ytstats/internal/ctxhttpclient"
)

func testContext(t *testing.T, handler http.Handler) context.Context {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	ctx = ctxconfig.WithConfig(ctx, config.Config{YouTubeAPIBaseURL: srv.URL, YouTubeAPIKey: "test-key"})
	ctx = ctxhttpclient.WithHTTPClient(ctx, srv.Client())

	return ctx
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	rw.Header().Set("content-type", "application/json")
	json.NewEncoder(rw).Encode(v)
}

func TestGetChannelByID(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", r.URL.Query().Get("id"))
		assert.Equal(t, "snippet,statistics,contentDetails", r.URL.Query().Get("part"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		writeJSON(rw, map[string]interface{}{
			"items": []map[string]interface{}{{
				"id": "UCBR8-60-B28hp2BmDPdntcQ",
				"snippet": map[string]interface{}{
					"title":       "Example Channel",
					"description": "A channel.",
					"customUrl":   "@example",
					"publishedAt": "2015-03-01T10:00:00Z",
					"thumbnails": map[string]interface{}{
						"default": map[string]interface{}{"url": "https://img.example.com/c.jpg"},
					},
				},
				"statistics": map[string]interface{}{
					"subscriberCount": "12345",
					"videoCount":      "678",
					"viewCount":       "9876543",
				},
				"contentDetails": map[string]interface{}{
					"relatedPlaylists": map[string]interface{}{"uploads": "UUBR8-60-B28hp2BmDPdntcQ"},
				},
			}},
		})
	}))

	ch, err := GetChannelByID(ctx, "UCBR8-60-B28hp2BmDPdntcQ")
	require.NoError(t, err)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", ch.ID)
	assert.Equal(t, "Example Channel", ch.Title)
	assert.Equal(t, "@example", ch.CustomURL)
	assert.Equal(t, "https://img.example.com/c.jpg", ch.ThumbnailURL)
	assert.Equal(t, "UUBR8-60-B28hp2BmDPdntcQ", ch.UploadsPlaylistID)
	assert.Equal(t, int64(12345), ch.SubscriberCount)
	assert.Equal(t, int64(678), ch.VideoCount)
	assert.Equal(t, int64(9876543), ch.ViewCount)
	require.NotNil(t, ch.PublishedAt)
	assert.Equal(t, 2015, ch.PublishedAt.Year())
}

func TestGetChannelByIDNotFound(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		writeJSON(rw, map[string]interface{}{"items": []interface{}{}})
	}))

	_, err := GetChannelByID(ctx, "UCdoesnotexistdoesnotexi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetChannelByUsername(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "somebody", r.URL.Query().Get("forUsername"))

		writeJSON(rw, map[string]interface{}{
			"items": []map[string]interface{}{{
				"id":      "UCBR8-60-B28hp2BmDPdntcQ",
				"snippet": map[string]interface{}{"title": "Somebody"},
			}},
		})
	}))

	ch, err := GetChannelByUsername(ctx, "somebody")
	require.NoError(t, err)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", ch.ID)
	assert.Equal(t, "Somebody", ch.Title)
}

func TestSearchChannelID(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "channel", r.URL.Query().Get("type"))
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))

		writeJSON(rw, map[string]interface{}{
			"items": []map[string]interface{}{{
				"id": map[string]interface{}{"channelId": "UCBR8-60-B28hp2BmDPdntcQ"},
			}},
		})
	}))

	id, err := SearchChannelID(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", id)
}

func TestGetVideoStats(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "statistics", r.URL.Query().Get("part"))
		assert.Equal(t, "a,b,c", r.URL.Query().Get("id"))

		writeJSON(rw, map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "a", "statistics": map[string]interface{}{"viewCount": "10", "likeCount": "1", "commentCount": "2"}},
				{"id": "c", "statistics": map[string]interface{}{"viewCount": "30"}},
			},
		})
	}))

	stats, err := GetVideoStats(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, stats, 2, "ids the upstream omits should be absent from the result")
	assert.Equal(t, "a", stats[0].ID)
	assert.Equal(t, int64(10), stats[0].ViewCount)
	assert.Equal(t, int64(1), stats[0].LikeCount)
	assert.Equal(t, int64(2), stats[0].CommentCount)
	assert.Equal(t, "c", stats[1].ID)
	assert.Equal(t, int64(30), stats[1].ViewCount)
	assert.Equal(t, int64(0), stats[1].LikeCount)
}

func TestGetVideoStatsTooMany(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made")
	}))

	ids := make([]string, MaxBatchIDs+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("video_%d", i)
	}

	_, err := GetVideoStats(ctx, ids)
	require.Error(t, err)
}

func TestGetVideoStatsEmpty(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made")
	}))

	stats, err := GetVideoStats(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestListPlaylistVideos(t *testing.T) {
	var calls int32

	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)

		assert.Equal(t, "/playlistItems", r.URL.Path)
		assert.Equal(t, "upload-playlist", r.URL.Query().Get("playlistId"))

		switch n {
		case 1:
			assert.Equal(t, "", r.URL.Query().Get("pageToken"))
			writeJSON(rw, map[string]interface{}{
				"nextPageToken": "page-two",
				"items": []map[string]interface{}{
					{
						"snippet": map[string]interface{}{
							"title":     "First",
							"channelId": "UCBR8-60-B28hp2BmDPdntcQ",
						},
						"contentDetails": map[string]interface{}{
							"videoId":          "video_a",
							"videoPublishedAt": "2026-01-01T00:00:00Z",
						},
					},
				},
			})
		case 2:
			assert.Equal(t, "page-two", r.URL.Query().Get("pageToken"))
			writeJSON(rw, map[string]interface{}{
				"items": []map[string]interface{}{
					{
						"snippet": map[string]interface{}{
							"title": "Second",
							"resourceId": map[string]interface{}{
								"videoId": "video_b",
							},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected call %d", n)
		}
	}))

	items, err := ListPlaylistVideos(ctx, "upload-playlist")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "video_a", items[0].VideoID)
	assert.Equal(t, "First", items[0].Title)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, "video_b", items[1].VideoID)
	assert.Equal(t, "Second", items[1].Title)
	assert.Nil(t, items[1].PublishedAt)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSONUpstreamError(t *testing.T) {
	ctx := testContext(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "nope", http.StatusForbidden)
	}))

	_, err := GetChannelByID(ctx, "UCBR8-60-B28hp2BmDPdntcQ")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"))
}
