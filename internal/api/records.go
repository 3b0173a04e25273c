package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/visproject/internal/models"
)

func modeParam(w http.ResponseWriter, r *http.Request) (models.Mode, bool) {
	mode, err := models.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return "", false
	}
	return mode, true
}

func rangeQuery(r *http.Request) models.DateRange {
	q := r.URL.Query()
	return models.DateRange{From: q.Get("from"), To: q.Get("to")}
}

// NodeRecords handles GET /api/records/{mode}/{nodeID}.
//
//	@Summary		List the records of one node
//	@Tags			records
//	@Produce		json
//	@Param			mode	path	string	true	"learn or review"
//	@Param			nodeID	path	string	true	"Node id"
//	@Param			from	query	string	false	"First day, YYYY-MM-DD"
//	@Param			to		query	string	false	"Last day, YYYY-MM-DD"
//	@Success		200		{array}	models.Record
//	@Security		BearerAuth
//	@Router			/records/{mode}/{nodeID} [get]
func (h *Handler) NodeRecords(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	recs, err := h.svc.NodeRecords(r.Context(), mode, chi.URLParam(r, "nodeID"), rangeQuery(r))
	if err != nil {
		writeError(w, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// AddRecord handles POST /api/records/{mode}.
//
//	@Summary		Append one timed record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			mode	path		string			true	"learn or review"
//	@Param			body	body		models.Record	true	"Record; date defaults to the local day of end"
//	@Success		201		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{mode} [post]
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	var rec models.Record
	if !decode(w, r, &rec) {
		return
	}
	saved, err := h.svc.AddRecord(r.Context(), mode, rec)
	if err != nil {
		writeError(w, "add record", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// CompleteTimer handles POST /api/timer/complete.
//
//	@Summary		Persist a session timed by the client
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TimerCompleteRequest	true	"Node, mode and intervals"
//	@Success		200		{object}	studyservice.Completion
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/complete [post]
func (h *Handler) CompleteTimer(w http.ResponseWriter, r *http.Request) {
	var req TimerCompleteRequest
	if !decode(w, r, &req) {
		return
	}
	done, err := h.svc.CompleteSession(r.Context(), req.NodeID, req.Mode, req.Intervals)
	if err != nil {
		writeError(w, "complete timer", err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

// GetSession handles GET /api/session.
//
//	@Summary		Get the active timer session
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{}
	if v, ok := h.svc.Session(r.Context()); ok {
		resp.Active, resp.Session = true, &v
	}
	writeJSON(w, http.StatusOK, resp)
}

// StartSession handles POST /api/session/start.
//
//	@Summary		Start or resume the timer
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SessionRequest	true	"Node and mode"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/start [post]
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.StartSession(r.Context(), req.NodeID, req.Mode)
	if err != nil {
		writeError(w, "start session", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Active: true, Session: &v})
}

// PauseSession handles POST /api/session/pause.
//
//	@Summary		Pause the running timer
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/pause [post]
func (h *Handler) PauseSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.PauseSession(r.Context())
	if err != nil {
		writeError(w, "pause session", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Active: true, Session: &v})
}

// EndSession handles POST /api/session/end.
//
//	@Summary		End the session and store its intervals
//	@Description	On a failed write the session stays held and the call can be retried.
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	studyservice.Completion
//	@Failure		404	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/end [post]
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	done, err := h.svc.EndSession(r.Context())
	if err != nil {
		writeError(w, "end session", err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}
