package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/templates"
)

// RenderRequest is either a full scene script or a template name with params.
// Resolution, fps and watermark apply in both forms.
type RenderRequest struct {
	Template string           `json:"template,omitempty"`
	Params   templates.Params `json:"params,omitempty"`
	scene.VideoRequest
}

// Health reports whether ffmpeg can be run.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	version, err := h.ffmpegVersion(ctx, h.ffmpegPath)
	ffmpeg := map[string]any{"latency_ms": time.Since(start).Milliseconds()}
	if err != nil {
		ffmpeg["status"] = "error"
		ffmpeg["error"] = err.Error()
		h.log.FromContext(ctx).Warn("health check degraded", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"checks": map[string]any{"ffmpeg": ffmpeg},
		})
		return
	}
	ffmpeg["status"] = "ok"
	ffmpeg["version"] = version
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"checks": map[string]any{"ffmpeg": ffmpeg},
	})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates.Names()})
}

// PostRender runs a job synchronously and answers with the artifact.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	log := h.log.With("request_id", middleware.GetReqID(r.Context()))

	var body RenderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body: "+err.Error(), nil)
		return
	}
	if body.Output != "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "output cannot be set over http", map[string]any{"field": "output"})
		return
	}

	req := &body.VideoRequest
	if name := strings.TrimSpace(body.Template); name != "" {
		if len(body.Scenes) > 0 {
			writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "template and scenes are mutually exclusive", map[string]any{"field": "scenes"})
			return
		}
		expanded, err := h.expand(name, body)
		if err != nil {
			writeError(w, err)
			return
		}
		req = expanded
	}

	res, err := h.engine.Render(r.Context(), req)
	if err != nil {
		log.Warn("render failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Artifact)
}

func (h *Handler) expand(name string, body RenderRequest) (*scene.VideoRequest, error) {
	req, err := templates.Expand(name, body.Params)
	if err != nil {
		return nil, err
	}
	if body.Title != "" {
		req.Title = body.Title
	}
	if body.Resolution != (scene.Resolution{}) {
		req.Resolution = body.Resolution
	}
	if body.FPS != 0 {
		req.FPS = body.FPS
	}
	req.Watermark = body.Watermark
	return req, nil
}
