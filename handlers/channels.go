package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"

	"fknsrs.biz/p/sorm"
	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"
	"github.com/gorilla/mux"
	"github.com/gost/godata"

	"fknsrs.biz/p/ytstats/internal/channelinfo"
	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxtemplate"
	"fknsrs.biz/p/ytstats/internal/godatautil"
	"fknsrs.biz/p/ytstats/internal/httputil"
	"fknsrs.biz/p/ytstats/internal/ytresolver"
	"fknsrs.biz/p/ytstats/models"
)

// parseODataQuery picks out the query options we support and hands them to
// the OData parser. Unsupported options are ignored rather than rejected.
func parseODataQuery(r *http.Request) (*godata.GoDataQuery, error) {
	values := url.Values{}

	for _, key := range []string{"$filter", "$orderby", "$top", "$skip"} {
		if v := r.URL.Query().Get(key); v != "" {
			values.Set(key, v)
		}
	}

	if len(values) == 0 {
		return nil, nil
	}

	return godata.ParseUrlQuery(values)
}

func Channels(rw http.ResponseWriter, r *http.Request) {
	var channels []models.ChannelOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&channels,
		nil,
		[]sb.AsOrderingTerm{sb.OrderDesc(models.ChannelOverviewTable.C("ChannelCreatedAt"))},
		sb.OffsetLimit(nil, sb.Literal("1000")),
	); err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_channels", map[string]interface{}{
		"Channels": channels,
	}); err != nil {
		panic(err)
	}
}

func Channel(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var channel models.ChannelOverview
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &channel, "where channel_id = ? or channel_external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	var history []models.ChannelStatsLog
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &history, "where channel_id = ? order by created_at desc limit 100", channel.ChannelID); err != nil {
		panic(err)
	}

	var videos []models.VideoOverview
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &videos, "where channel_id = ? order by video_published_at desc", channel.ChannelID); err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_channel", map[string]interface{}{
		"Channel": channel,
		"History": history,
		"Videos":  videos,
	}); err != nil {
		panic(err)
	}
}

func APIChannelsCreate(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.JSONBadRequest(rw, "could not parse request")
		return
	}

	input := r.Form.Get("input")
	if input == "" {
		httputil.JSONBadRequest(rw, "input is required")
		return
	}

	channel, err := channelinfo.FetchAndStore(r.Context(), input)
	if err != nil {
		if errors.Is(err, ytresolver.ErrNotFound) {
			httputil.JSONNotFound(rw, "could not find a channel for that input")
			return
		}

		httputil.JSONInternalError(rw, "could not fetch channel")
		return
	}

	httputil.JSONCreated(rw, "channel stored", channel)
}

func APIChannels(rw http.ResponseWriter, r *http.Request) {
	q, err := parseODataQuery(r)
	if err != nil {
		httputil.JSONBadRequest(rw, "could not parse query options")
		return
	}

	condition, err := godatautil.MakeCondition(q, models.ChannelOverviewTable)
	if err != nil {
		httputil.JSONBadRequest(rw, "could not understand filter")
		return
	}

	orders, err := godatautil.MakeOrders(q, models.ChannelOverviewTable, sb.OrderDesc(models.ChannelOverviewTable.C("ChannelCreatedAt")))
	if err != nil {
		httputil.JSONBadRequest(rw, "could not understand ordering")
		return
	}

	var channels []models.ChannelOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&channels,
		condition,
		orders,
		godatautil.MakeOffsetLimit(q, 0, 100),
	); err != nil {
		panic(err)
	}

	httputil.JSONOK(rw, "channels", channels)
}

func APIChannel(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	// Every access refreshes from upstream. If the path value matches a
	// stored channel we refresh by its external id, otherwise the value is
	// treated as free text and resolved from scratch.
	input := vars["id"]

	var existing models.Channel
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &existing, "where id = ? or external_id = ?", vars["id"], vars["id"]); err != nil {
		if err != sql.ErrNoRows {
			panic(err)
		}
	} else {
		input = existing.ExternalID
	}

	channel, err := channelinfo.FetchAndStore(r.Context(), input)
	if err != nil {
		if errors.Is(err, ytresolver.ErrNotFound) {
			httputil.JSONNotFound(rw, "could not find a channel for that input")
			return
		}

		httputil.JSONInternalError(rw, "could not fetch channel")
		return
	}

	httputil.JSONOK(rw, "channel", channel)
}

func APIChannelHistory(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var channel models.Channel
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &channel, "where id = ? or external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.JSONNotFound(rw, "channel not found")
			return
		}

		panic(err)
	}

	var history []models.ChannelStatsLog
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &history, "where channel_id = ? order by created_at asc", channel.ID); err != nil {
		panic(err)
	}

	httputil.JSONOK(rw, "channel history", history)
}

func APIChannelVideos(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var channel models.Channel
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &channel, "where id = ? or external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.JSONNotFound(rw, "channel not found")
			return
		}

		panic(err)
	}

	var videos []models.VideoOverview
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &videos, "where channel_id = ? order by video_published_at desc", channel.ID); err != nil {
		panic(err)
	}

	httputil.JSONOK(rw, "channel videos", videos)
}
