package handlers

import (
	"database/sql"
	"net/http"

	"fknsrs.biz/p/sorm"
	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"
	"github.com/gorilla/mux"

	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxtemplate"
	"fknsrs.biz/p/ytstats/internal/godatautil"
	"fknsrs.biz/p/ytstats/internal/httputil"
	"fknsrs.biz/p/ytstats/models"
)

func Videos(rw http.ResponseWriter, r *http.Request) {
	var videos []models.VideoOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&videos,
		nil,
		[]sb.AsOrderingTerm{sb.OrderDesc(models.VideoOverviewTable.C("VideoPublishedAt"))},
		sb.OffsetLimit(nil, sb.Literal("1000")),
	); err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_videos", map[string]interface{}{
		"Videos": videos,
	}); err != nil {
		panic(err)
	}
}

func Video(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var video models.VideoOverview
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &video, "where video_id = ? or video_external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.NotFound(rw, r)
			return
		}

		panic(err)
	}

	var history []models.VideoStatsLog
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &history, "where video_id = ? order by fetched_at desc limit 200", video.VideoID); err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_video", map[string]interface{}{
		"Video":   video,
		"History": history,
	}); err != nil {
		panic(err)
	}
}

func APIVideos(rw http.ResponseWriter, r *http.Request) {
	q, err := parseODataQuery(r)
	if err != nil {
		httputil.JSONBadRequest(rw, "could not parse query options")
		return
	}

	condition, err := godatautil.MakeCondition(q, models.VideoOverviewTable)
	if err != nil {
		httputil.JSONBadRequest(rw, "could not understand filter")
		return
	}

	orders, err := godatautil.MakeOrders(q, models.VideoOverviewTable, sb.OrderDesc(models.VideoOverviewTable.C("VideoPublishedAt")))
	if err != nil {
		httputil.JSONBadRequest(rw, "could not understand ordering")
		return
	}

	var videos []models.VideoOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&videos,
		condition,
		orders,
		godatautil.MakeOffsetLimit(q, 0, 100),
	); err != nil {
		panic(err)
	}

	httputil.JSONOK(rw, "videos", videos)
}

func APIVideo(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var video models.VideoOverview
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &video, "where video_id = ? or video_external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.JSONNotFound(rw, "video not found")
			return
		}

		panic(err)
	}

	httputil.JSONOK(rw, "video", video)
}

func APIVideoHistory(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var video models.Video
	if err := sorm.FindFirstWhere(r.Context(), ctxdb.GetDB(r.Context()), &video, "where id = ? or external_id = ?", vars["id"], vars["id"]); err != nil {
		if err == sql.ErrNoRows {
			httputil.JSONNotFound(rw, "video not found")
			return
		}

		panic(err)
	}

	var history []models.VideoStatsLog
	if err := sorm.FindWhere(r.Context(), ctxdb.GetDB(r.Context()), &history, "where video_id = ? order by fetched_at asc", video.ID); err != nil {
		panic(err)
	}

	httputil.JSONOK(rw, "video history", history)
}
