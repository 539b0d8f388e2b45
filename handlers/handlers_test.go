package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"fknsrs.biz/p/sorm"
	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxtemplate"
	"fknsrs.biz/p/ytstats/internal/templatecollection"
	"fknsrs.biz/p/ytstats/models"
)

func init() {
	sorm.SetParameterPrefix("?")
}

var testTemplateFuncs = template.FuncMap{
	"first_of": func(a ...interface{}) string {
		for _, e := range a {
			if s := fmt.Sprintf("%v", e); s != "" {
				return s
			}
		}
		return ""
	},
	"format_count": func(n int64) string {
		return fmt.Sprintf("%d", n)
	},
	"format_time": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
	"format_time_null": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	},
	"format_date_null": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
}

func openTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range models.Schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return db
}

// newTestHandler builds the route table under test, with the request context
// prepared the way the middleware chain prepares it in production.
func newTestHandler(t *testing.T, db *sql.DB) http.Handler {
	templates, err := templatecollection.NewLive(os.DirFS("../templates"), testTemplateFuncs)
	require.NoError(t, err)

	ctx := context.Background()
	ctx = ctxdb.WithDB(ctx, db)
	ctx = ctxtemplate.WithCollection(ctx, templates)

	m := mux.NewRouter()
	m.Methods(http.MethodGet).Path("/channels/{id}").HandlerFunc(Channel)
	m.Methods(http.MethodGet).Path("/videos/{id}").HandlerFunc(Video)
	m.Methods(http.MethodGet).Path("/api/channels").HandlerFunc(APIChannels)
	m.Methods(http.MethodGet).Path("/api/channels/{id}/history").HandlerFunc(APIChannelHistory)
	m.Methods(http.MethodGet).Path("/api/channels/{id}/videos").HandlerFunc(APIChannelVideos)
	m.Methods(http.MethodGet).Path("/api/videos").HandlerFunc(APIVideos)
	m.Methods(http.MethodGet).Path("/api/videos/{id}").HandlerFunc(APIVideo)
	m.Methods(http.MethodGet).Path("/api/videos/{id}/history").HandlerFunc(APIVideoHistory)

	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		m.ServeHTTP(rw, r.WithContext(ctx))
	})
}

func mustCreate(t *testing.T, ctx context.Context, db *sql.DB, v interface{}) {
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, sorm.CreateRecord(ctx, tx, v))
	require.NoError(t, tx.Commit())
}

func seedChannel(t *testing.T, ctx context.Context, db *sql.DB, externalID, title string) *models.Channel {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	channel := models.Channel{
		CreatedAt:       now,
		ExternalID:      externalID,
		Title:           title,
		SubscriberCount: 1000,
		VideoCount:      2,
		ViewCount:       50000,
		LastFetchedAt:   &now,
	}
	mustCreate(t, ctx, db, &channel)

	return &channel
}

func seedVideo(t *testing.T, ctx context.Context, db *sql.DB, channel *models.Channel, externalID, title string) *models.Video {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	next := now.Add(time.Hour)

	video := models.Video{
		CreatedAt:               now,
		ExternalID:              externalID,
		ChannelID:               &channel.ID,
		ChannelExternalID:       channel.ExternalID,
		Title:                   title,
		PublishedAt:             &now,
		ViewCount:               123,
		NextStatFetchAt:         &next,
		StatFetchFrequencyHours: 1,
	}
	mustCreate(t, ctx, db, &video)

	return &video
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func getJSON(t *testing.T, h http.Handler, path string) (int, envelope) {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, r)

	var e envelope
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &e))

	return rw.Code, e
}

func TestAPIChannelHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	channel := seedChannel(t, ctx, db, "UCBR8-60-B28hp2BmDPdntcQ", "Example Channel")

	for i := 0; i < 3; i++ {
		mustCreate(t, ctx, db, &models.ChannelStatsLog{
			ChannelID:       channel.ID,
			CreatedAt:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			SubscriberCount: int64(1000 + i),
		})
	}

	h := newTestHandler(t, db)

	code, e := getJSON(t, h, "/api/channels/"+channel.ExternalID+"/history")
	require.Equal(t, http.StatusOK, code)

	var logs []models.ChannelStatsLog
	require.NoError(t, json.Unmarshal(e.Data, &logs))
	require.Len(t, logs, 3)
	assert.Equal(t, int64(1000), logs[0].SubscriberCount)
	assert.Equal(t, int64(1002), logs[2].SubscriberCount)
}

func TestAPIChannelHistoryNotFound(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	code, e := getJSON(t, h, "/api/channels/UCdoesnotexistdoesnotexi/history")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, e.Error)
}

func TestAPIChannelsList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedChannel(t, ctx, db, "UCaaaaaaaaaaaaaaaaaaaaaa", "Alpha Channel")
	seedChannel(t, ctx, db, "UCbbbbbbbbbbbbbbbbbbbbbb", "Beta Channel")

	h := newTestHandler(t, db)

	code, e := getJSON(t, h, "/api/channels")
	require.Equal(t, http.StatusOK, code)

	var channels []models.ChannelOverview
	require.NoError(t, json.Unmarshal(e.Data, &channels))
	assert.Len(t, channels, 2)

	// $filter via substringof narrows the listing.
	code, e = getJSON(t, h, "/api/channels?$filter="+"substringof(ChannelTitle,'Alpha')")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(e.Data, &channels))
	require.Len(t, channels, 1)
	assert.Equal(t, "Alpha Channel", channels[0].ChannelTitle)

	code, e = getJSON(t, h, "/api/channels?$top=1&$orderby=ChannelTitle%20asc")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(e.Data, &channels))
	require.Len(t, channels, 1)
	assert.Equal(t, "Alpha Channel", channels[0].ChannelTitle)
}

func TestAPIVideoHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	channel := seedChannel(t, ctx, db, "UCBR8-60-B28hp2BmDPdntcQ", "Example Channel")
	video := seedVideo(t, ctx, db, channel, "video_a", "First Video")

	for i := 0; i < 2; i++ {
		mustCreate(t, ctx, db, &models.VideoStatsLog{
			VideoID:   video.ID,
			FetchedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			ViewCount: int64(100 + i),
		})
	}

	h := newTestHandler(t, db)

	code, e := getJSON(t, h, "/api/videos/video_a/history")
	require.Equal(t, http.StatusOK, code)

	var logs []models.VideoStatsLog
	require.NoError(t, json.Unmarshal(e.Data, &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, int64(100), logs[0].ViewCount)
}

func TestAPIVideoFromStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	channel := seedChannel(t, ctx, db, "UCBR8-60-B28hp2BmDPdntcQ", "Example Channel")
	seedVideo(t, ctx, db, channel, "video_a", "First Video")

	h := newTestHandler(t, db)

	code, e := getJSON(t, h, "/api/videos/video_a")
	require.Equal(t, http.StatusOK, code)

	var video models.VideoOverview
	require.NoError(t, json.Unmarshal(e.Data, &video))
	assert.Equal(t, "First Video", video.VideoTitle)
	assert.Equal(t, "Example Channel", video.ChannelTitle)
	assert.Equal(t, int64(123), video.ViewCount)

	code, _ = getJSON(t, h, "/api/videos/video_missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestChannelPage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	channel := seedChannel(t, ctx, db, "UCBR8-60-B28hp2BmDPdntcQ", "Example Channel")
	seedVideo(t, ctx, db, channel, "video_a", "First Video")
	seedVideo(t, ctx, db, channel, "video_b", "Second Video")

	mustCreate(t, ctx, db, &models.ChannelStatsLog{
		ChannelID:       channel.ID,
		CreatedAt:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		SubscriberCount: 1000,
	})

	h := newTestHandler(t, db)

	r := httptest.NewRequest(http.MethodGet, "/channels/"+channel.ExternalID, nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, r)

	require.Equal(t, http.StatusOK, rw.Code)

	doc, err := goquery.NewDocumentFromReader(rw.Body)
	require.NoError(t, err)

	assert.Equal(t, "Example Channel", doc.Find("h1").First().Text())
	assert.Equal(t, 2, doc.Find("table.video-table tbody tr").Length())
	assert.Equal(t, 1, doc.Find("table.history-table tbody tr").Length())

	links := map[string]bool{}
	doc.Find("table.video-table a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			links[href] = true
		}
	})
	assert.True(t, links["/videos/video_a"])
	assert.True(t, links["/videos/video_b"])
}

func TestVideoPage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	channel := seedChannel(t, ctx, db, "UCBR8-60-B28hp2BmDPdntcQ", "Example Channel")
	seedVideo(t, ctx, db, channel, "video_a", "First Video")

	h := newTestHandler(t, db)

	r := httptest.NewRequest(http.MethodGet, "/videos/video_a", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, r)

	require.Equal(t, http.StatusOK, rw.Code)

	doc, err := goquery.NewDocumentFromReader(rw.Body)
	require.NoError(t, err)

	assert.Equal(t, "First Video", doc.Find("h1").First().Text())
	assert.Contains(t, doc.Find("dl").Text(), "Example Channel")
}

func TestChannelPageNotFound(t *testing.T) {
	db := openTestDB(t)
	h := newTestHandler(t, db)

	r := httptest.NewRequest(http.MethodGet, "/channels/UCdoesnotexistdoesnotexi", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, r)

	assert.Equal(t, http.StatusNotFound, rw.Code)
}
