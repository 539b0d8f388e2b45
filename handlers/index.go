package handlers

import (
	"net/http"

	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"

	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/internal/ctxtemplate"
	"fknsrs.biz/p/ytstats/models"
)

func Index(rw http.ResponseWriter, r *http.Request) {
	var channels []models.ChannelOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&channels,
		nil,
		[]sb.AsOrderingTerm{sb.OrderDesc(models.ChannelOverviewTable.C("ChannelCreatedAt"))},
		sb.OffsetLimit(nil, sb.Literal("50")),
	); err != nil {
		panic(err)
	}

	// Soonest-due first so the top of the page shows what the scheduler will
	// pick up next.
	var videos []models.VideoOverview
	if err := qsorm.FindWhere(
		r.Context(),
		ctxdb.GetDB(r.Context()),
		&videos,
		sb.BinaryOperator("is not", models.VideoOverviewTable.C("NextStatFetchAt"), sb.Literal("null")),
		[]sb.AsOrderingTerm{sb.OrderAsc(models.VideoOverviewTable.C("NextStatFetchAt"))},
		sb.OffsetLimit(nil, sb.Literal("100")),
	); err != nil {
		panic(err)
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_index", map[string]interface{}{
		"Channels": channels,
		"Videos":   videos,
	}); err != nil {
		panic(err)
	}
}
