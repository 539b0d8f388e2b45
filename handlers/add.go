package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/ytstats/internal/channelinfo"
	"fknsrs.biz/p/ytstats/internal/ctxtemplate"
	"fknsrs.biz/p/ytstats/internal/httputil"
	"fknsrs.biz/p/ytstats/internal/ytresolver"
)

func Add(rw http.ResponseWriter, r *http.Request) {
	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_add", map[string]interface{}{}); err != nil {
		panic(err)
	}
}

func AddAction(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		panic(err)
	}

	var input struct {
		Input string `formam:"input"`
	}

	if err := formam.Decode(r.PostForm, &input); err != nil {
		panic(err)
	}

	input.Input = strings.TrimSpace(input.Input)

	if input.Input == "" {
		httputil.RedirectWithError(rw, r, "/add", "No channel URL, ID, or name given")
		return
	}

	channel, err := channelinfo.FetchAndStore(r.Context(), input.Input)
	if err != nil {
		if errors.Is(err, ytresolver.ErrNotFound) {
			httputil.RedirectWithError(rw, r, "/add", "Could not find a channel for that input")
			return
		}

		httputil.RedirectWithError(rw, r, "/add", "Could not fetch channel: "+err.Error())
		return
	}

	httputil.RedirectWithSuccess(rw, r, "/channels/"+channel.ExternalID, "Channel added. Videos will be discovered shortly.")
}
