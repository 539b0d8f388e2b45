package handlers

import (
	"net/http"

	"fknsrs.biz/p/ytstats/internal/httputil"
	"fknsrs.biz/p/ytstats/internal/statsched"
)

func APIRefreshVideos(rw http.ResponseWriter, r *http.Request) {
	processed, err := statsched.RefreshDueVideos(r.Context())
	if err != nil {
		httputil.JSONInternalError(rw, "refresh pass failed")
		return
	}

	httputil.JSONOK(rw, "refresh pass complete", map[string]interface{}{
		"processed": processed,
	})
}
