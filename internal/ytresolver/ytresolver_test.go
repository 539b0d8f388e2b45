package ytresolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fknsrs.biz/p/ytstats/internal/config"
	"fknsrs.biz/p/ytstats/internal/ctxconfig"
	"fknsrs.biz/p/ytstats/internal/ctxhttpclient"
)

// searchHandler answers the channel search endpoint with a fixed mapping
// from query to channel id, and counts calls.
type searchHandler struct {
	calls   int32
	results map[string]string
}

func (h *searchHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&h.calls, 1)

	var items []map[string]interface{}

	if id, ok := h.results[r.URL.Query().Get("q")]; ok {
		items = append(items, map[string]interface{}{
			"id": map[string]interface{}{"channelId": id},
		})
	}

	rw.Header().Set("content-type", "application/json")
	json.NewEncoder(rw).Encode(map[string]interface{}{"items": items})
}

func testContext(t *testing.T, handler *searchHandler) context.Context {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	ctx = ctxconfig.WithConfig(ctx, config.Config{YouTubeAPIBaseURL: srv.URL})
	ctx = ctxhttpclient.WithHTTPClient(ctx, srv.Client())

	return ctx
}

func TestResolveChannelURL(t *testing.T) {
	handler := &searchHandler{}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "https://www.youtube.com/channel/UCBR8-60-B28hp2BmDPdntcQ")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, key.Kind)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", key.Value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&handler.calls), "channel URLs should resolve without a search")
}

func TestResolveBareChannelID(t *testing.T) {
	handler := &searchHandler{}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "UCBR8-60-B28hp2BmDPdntcQ")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, key.Kind)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", key.Value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&handler.calls))
}

func TestResolveUserURL(t *testing.T) {
	handler := &searchHandler{}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "https://www.youtube.com/user/somebody")
	require.NoError(t, err)
	assert.Equal(t, Username, key.Kind)
	assert.Equal(t, "somebody", key.Value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&handler.calls))
}

func TestResolveHandle(t *testing.T) {
	handler := &searchHandler{results: map[string]string{
		"@somebody": "UCBR8-60-B28hp2BmDPdntcQ",
	}}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "@somebody")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, key.Kind)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", key.Value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&handler.calls), "a handle should cost exactly one search")
}

func TestResolveHandleURL(t *testing.T) {
	handler := &searchHandler{results: map[string]string{
		"@somebody": "UCBR8-60-B28hp2BmDPdntcQ",
	}}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "https://www.youtube.com/@somebody")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, key.Kind)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", key.Value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&handler.calls))
}

func TestResolveFreeText(t *testing.T) {
	handler := &searchHandler{results: map[string]string{
		"some channel name": "UCBR8-60-B28hp2BmDPdntcQ",
	}}
	ctx := testContext(t, handler)

	key, err := Resolve(ctx, "some channel name")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, key.Kind)
	assert.Equal(t, "UCBR8-60-B28hp2BmDPdntcQ", key.Value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&handler.calls))
}

func TestResolveNotFound(t *testing.T) {
	handler := &searchHandler{}
	ctx := testContext(t, handler)

	_, err := Resolve(ctx, "no such channel anywhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveEmptyInput(t *testing.T) {
	handler := &searchHandler{}
	ctx := testContext(t, handler)

	_, err := Resolve(ctx, "   ")
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&handler.calls))
}
