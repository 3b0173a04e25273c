package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/visproject/internal/checksum"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/studyservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *studyservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *studyservice.Service) *Handler {
	return &Handler{svc: svc}
}

// GetTree handles GET /api/projects.
//
//	@Summary		Get the laid-out project tree
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	models.Node
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	root, sum := h.svc.Tree(r.Context())
	if sum != "" {
		w.Header().Set("ETag", checksum.ETag(sum))
	}
	writeJSON(w, http.StatusOK, root)
}

// Colors handles GET /api/projects/colors.
//
//	@Summary		Resolve node display colors for one view
//	@Tags			projects
//	@Produce		json
//	@Param			view	query		string	false	"project (default), review or stats"
//	@Success		200		{object}	ColorsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/colors [get]
func (h *Handler) Colors(w http.ResponseWriter, r *http.Request) {
	view, err := models.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, ColorsResponse{View: view, Colors: h.svc.Colors(r.Context(), view)})
}

// ReplaceTree handles PUT and POST /api/projects.
//
//	@Summary		Replace the whole tree document
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string		false	"Checksum from a previous ETag"
//	@Param			body		body	models.Node	true	"Tree document"
//	@Success		200	{object}	models.Node
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [put]
func (h *Handler) ReplaceTree(w http.ResponseWriter, r *http.Request) {
	var doc models.Node
	if !decode(w, r, &doc) {
		return
	}
	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	root, err := h.svc.ReplaceTree(r.Context(), &doc, ifMatch)
	if err != nil {
		writeError(w, "replace tree", err)
		return
	}
	_, sum := h.svc.Tree(r.Context())
	w.Header().Set("ETag", checksum.ETag(sum))
	writeJSON(w, http.StatusOK, root)
}

// AddNode handles POST /api/projects/node.
//
//	@Summary		Add a child node
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddNodeRequest	true	"Node to add"
//	@Success		201		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node [post]
func (h *Handler) AddNode(w http.ResponseWriter, r *http.Request) {
	var req AddNodeRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.AddNode(r.Context(), req.ParentID, req.Name)
	if err != nil {
		writeError(w, "add node", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// DeleteNode handles DELETE /api/projects/node/{id}.
//
//	@Summary		Delete a leaf node
//	@Tags			projects
//	@Param			id	path	string	true	"Node id"
//	@Success		204	"Node deleted"
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameNode handles PATCH /api/projects/node/{id}.
//
//	@Summary		Rename a node
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		RenameRequest	true	"New name"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id} [patch]
func (h *Handler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.RenameNode(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, "rename node", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// MoveNode handles POST /api/projects/node/{id}/move.
//
//	@Summary		Move a node one place among its siblings
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Node id"
//	@Param			body	body		MoveRequest	true	"up or down"
//	@Success		200		{object}	MoveResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/move [post]
func (h *Handler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	moved, err := h.svc.MoveNode(r.Context(), chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		writeError(w, "move node", err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Moved: moved})
}

// ToggleDone handles POST /api/projects/node/{id}/toggle-done.
//
//	@Summary		Flip a node's done flag
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/toggle-done [post]
func (h *Handler) ToggleDone(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ToggleDone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle done", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// SetReview handles PUT /api/projects/node/{id}/review.
//
//	@Summary		Enroll a node in review or change its period
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		ReviewRequest	true	"Review period in days"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/review [put]
func (h *Handler) SetReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.SetReview(r.Context(), chi.URLParam(r, "id"), req.Period)
	if err != nil {
		writeError(w, "set review", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// UnsetReview handles DELETE /api/projects/node/{id}/review.
//
//	@Summary		Remove a node from review
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/review [delete]
func (h *Handler) UnsetReview(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnsetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "unset review", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// SetColor handles PUT /api/projects/node/{id}/color.
//
//	@Summary		Set a node's custom color
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		ColorRequest	true	"Color as #RRGGBB"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/color [put]
func (h *Handler) SetColor(w http.ResponseWriter, r *http.Request) {
	var req ColorRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.SetColor(r.Context(), chi.URLParam(r, "id"), req.Color)
	if err != nil {
		writeError(w, "set color", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ClearColor handles DELETE /api/projects/node/{id}/color.
//
//	@Summary		Clear a node's custom color
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/node/{id}/color [delete]
func (h *Handler) ClearColor(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearColor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "clear color", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
