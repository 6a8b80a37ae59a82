package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"reel/internal/httpkit"
	"reel/internal/models"
	rerrors "reel/internal/pkg/errors"
	"reel/internal/pkg/ids"
	"reel/internal/ports"
	"reel/internal/render"
	"reel/internal/repositories"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type CreateRenderRequest struct {
	CompositionID    string `json:"composition_id"`
	Source           string `json:"source"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	FPS              int    `json:"fps,omitempty"`
	DurationInFrames int    `json:"duration_in_frames,omitempty"`
}

// PostRender stores the source, inserts a QUEUED row and enqueues the id.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req CreateRenderRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.CompositionID = strings.TrimSpace(req.CompositionID)
	if err := render.ValidateParams(req.CompositionID, req.Width, req.Height, req.FPS, req.DurationInFrames); err != nil {
		writeValidation(w, err)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "source is required", map[string]any{"field": "source"})
		return
	}

	eff := render.Request{
		CompositionID:    req.CompositionID,
		Width:            req.Width,
		Height:           req.Height,
		FPS:              req.FPS,
		DurationInFrames: req.DurationInFrames,
	}.WithDefaults()

	id := ids.NewID("rnd")
	m := &models.Render{
		ID:               id,
		CompositionID:    eff.CompositionID,
		SourceKey:        models.SourceKey(id),
		Width:            eff.Width,
		Height:           eff.Height,
		FPS:              eff.FPS,
		DurationInFrames: eff.DurationInFrames,
	}

	if _, err := h.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   m.SourceKey,
		ContentType: "text/plain; charset=utf-8",
		Reader:      strings.NewReader(req.Source),
		Size:        int64(len(req.Source)),
	}); err != nil {
		log.Error("store source failed", "render_id", id, "error", err.Error())
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "store source failed", nil)
		return
	}

	if err := h.store.Create(ctx, m); err != nil {
		log.Error("db insert failed", "render_id", id, "error", err.Error())
		_ = h.sp.DeleteObject(ctx, m.SourceKey)
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	if err := h.queue.Push(ctx, id); err != nil {
		log.Error("queue push failed", "render_id", id, "error", err.Error())
		if ferr := h.store.MarkFailed(ctx, id, "enqueue failed: "+err.Error()); ferr != nil {
			log.Warn("mark failed after enqueue error", "render_id", id, "error", ferr.Error())
		}
		_ = h.sp.DeleteObject(ctx, m.SourceKey)
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "queue push failed", nil)
		return
	}

	log.Info("render queued", "render_id", id, "composition_id", m.CompositionID)
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{"render": m})
}

func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := models.RenderStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", map[string]any{"field": "status", "value": string(status)})
		return
	}

	limit := defaultListLimit
	if v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit"))); err == nil && v > 0 && v <= maxListLimit {
		limit = v
	}

	out, err := h.store.List(ctx, status, limit)
	if err != nil {
		h.log.FromContext(ctx).Error("db query failed", "error", err.Error())
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"renders": out})
}

func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"render": m})
}

// StreamRender serves the rendered video of a DONE render.
func (h *Handler) StreamRender(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if m.Status != models.StatusDone || m.OutputKey == nil {
		httpkit.WriteErr(w, http.StatusConflict, "RENDER_NOT_READY", "render has no output yet",
			map[string]any{"render_id": m.ID, "status": string(m.Status)})
		return
	}

	rc, ct, size, err := h.sp.GetObject(r.Context(), *m.OutputKey)
	if err != nil {
		httpkit.WriteErr(w, http.StatusNotFound, "RENDER_FILE_MISSING", "render output missing", map[string]any{"render_id": m.ID})
		return
	}
	defer rc.Close()

	if ct == "" {
		ct = "video/mp4"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `inline; filename="`+m.ID+`.mp4"`)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*models.Render, bool) {
	ctx := r.Context()
	id := chi.URLParam(r, "renderId")

	m, err := h.store.Get(ctx, id)
	if errors.Is(err, repositories.ErrRenderNotFound) {
		httpkit.WriteErr(w, http.StatusNotFound, "RENDER_NOT_FOUND", "render not found", map[string]any{"render_id": id})
		return nil, false
	}
	if err != nil {
		h.log.FromContext(ctx).Error("db query failed", "render_id", id, "error", err.Error())
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "db query failed", nil)
		return nil, false
	}
	return m, true
}

func writeValidation(w http.ResponseWriter, err error) {
	var e *rerrors.Error
	if rerrors.As(err, &e) {
		httpkit.WriteErr(w, e.HTTPStatus(), string(e.Code), e.Message, e.Fields)
		return
	}
	httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}
