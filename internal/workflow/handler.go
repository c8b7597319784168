package workflow

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/transport"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, req authority.CreateResolutionRequest) (*resolution.Resolution, error)
	Get(ctx context.Context, publicID string) (*resolution.Resolution, error)
	Interactions(ctx context.Context, publicID string) (*authority.InteractionsPage, error)
	PostInteraction(ctx context.Context, publicID string, req authority.PostInteractionRequest) (*interaction.Interaction, error)
	Progress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error)
	PostProgress(ctx context.Context, publicID string, req authority.PostProgressRequest) (*interaction.ProgressUpdate, error)
	Transition(ctx context.Context, publicID string, req resolution.Request) (*resolution.Resolution, error)
	Timeline(ctx context.Context, publicID string) ([]timeline.Event, error)
	CheckHierarchy(ctx context.Context, userID int64, supervisorIDs []int64) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// Routes mounts the resolution endpoints on r. Authentication is applied by
// the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/resolutions", h.CreateResolution)
	r.Route("/resolutions/{publicID}", func(rr chi.Router) {
		rr.Get("/", h.GetResolution)
		rr.Get("/interactions", h.ListInteractions)
		rr.Post("/interactions", h.PostInteraction)
		rr.Get("/progress", h.ListProgress)
		rr.Post("/progress", h.PostProgress)
		rr.Post("/transitions", h.Transition)
		rr.Get("/timeline", h.GetTimeline)
	})
	r.Post("/hierarchy/check", h.CheckHierarchy)
}

func publicID(r *http.Request) (context.Context, string) {
	id := chi.URLParam(r, "publicID")
	return logger.WithResolution(r.Context(), id), id
}

func (h *Handler) CreateResolution(w http.ResponseWriter, r *http.Request) {
	var req authority.CreateResolutionRequest
	if err := transport.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetResolution(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	res, err := h.Service.Get(ctx, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	page, err := h.Service.Interactions(ctx, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) PostInteraction(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	var req authority.PostInteractionRequest
	if err := transport.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	created, err := h.Service.PostInteraction(ctx, id, req)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	items, err := h.Service.Progress(ctx, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) PostProgress(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	var req authority.PostProgressRequest
	if err := transport.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	created, err := h.Service.PostProgress(ctx, id, req)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	var req resolution.Request
	if err := transport.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	updated, err := h.Service.Transition(ctx, id, req)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, id := publicID(r)
	items, err := h.Service.Timeline(ctx, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handler) CheckHierarchy(w http.ResponseWriter, r *http.Request) {
	var req authority.HierarchyCheckRequest
	if err := transport.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	ok, err := h.Service.CheckHierarchy(r.Context(), req.UserID, req.SupervisorIDs)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, authority.HierarchyCheckResponse{IsSubordinate: ok})
}
