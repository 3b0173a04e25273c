package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/stats"
)

// Suggest handles GET /api/review/suggest.
//
//	@Summary		Rank review-enrolled nodes by how overdue they are
//	@Tags			review
//	@Produce		json
//	@Param			limit	query		int	false	"Max suggestions (default 10)"
//	@Success		200		{object}	studyservice.Suggestions
//	@Security		BearerAuth
//	@Router			/review/suggest [get]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, h.svc.Suggest(r.Context(), limit))
}

// Totals handles GET /api/stats/totals.
//
//	@Summary		Subtree totals of every node
//	@Tags			stats
//	@Produce		json
//	@Param			mode	query		string	false	"learn (default) or review"
//	@Param			from	query		string	false	"First day, YYYY-MM-DD"
//	@Param			to		query		string	false	"Last day, YYYY-MM-DD"
//	@Success		200		{object}	TotalsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats/totals [get]
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	mode := models.ModeLearn
	if m := r.URL.Query().Get("mode"); m != "" {
		parsed, err := models.ParseMode(m)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		mode = parsed
	}
	totals, err := h.svc.Totals(r.Context(), mode, rangeQuery(r))
	if err != nil {
		writeError(w, "totals", err)
		return
	}
	writeJSON(w, http.StatusOK, TotalsResponse{Mode: mode, Totals: totals})
}

// Summary handles GET /api/stats/summary.
//
//	@Summary		Whole-tree learn and review totals
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Security		BearerAuth
//	@Router			/stats/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Learn:       t.Learn,
		Review:      t.Review,
		LearnLabel:  stats.FormatSeconds(t.Learn),
		ReviewLabel: stats.FormatSeconds(t.Review),
	})
}

// NodeStats handles GET /api/stats/nodes/{id}.
//
//	@Summary		Daily, monthly and share statistics of a node
//	@Tags			stats
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	studyservice.NodeStats
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats/nodes/{id} [get]
func (h *Handler) NodeStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.NodeStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "node stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Timeline handles GET /api/stats/timeline.
//
//	@Summary		Recent intervals in 8-hour segments
//	@Tags			stats
//	@Produce		json
//	@Param			segments	query		int	false	"Number of segments (default from settings)"
//	@Success		200			{object}	TimelineResponse
//	@Security		BearerAuth
//	@Router			/stats/timeline [get]
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	segments, _ := strconv.Atoi(r.URL.Query().Get("segments"))
	segs, err := h.svc.Timeline(r.Context(), segments)
	if err != nil {
		writeError(w, "timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Segments: segs})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get the settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	models.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings(r.Context()))
}

// UpdateSettings handles PUT and POST /api/settings. Keys missing from the
// body keep their current value.
//
//	@Summary		Update the settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Settings	true	"Settings; missing keys are unchanged"
//	@Success		200		{object}	models.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	cfg := h.svc.Settings(r.Context())
	if !decode(w, r, &cfg) {
		return
	}
	saved, err := h.svc.UpdateSettings(r.Context(), cfg)
	if err != nil {
		writeError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Status handles GET /api/status.
//
//	@Summary		Health of the documents and the active session
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	studyservice.Status
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}
