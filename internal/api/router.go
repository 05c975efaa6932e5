// Package api exposes the render engine over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/scene2video/internal/engine"
	"github.com/ivlev/scene2video/internal/logging"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/system"
)

// Renderer runs a render job.
type Renderer interface {
	Render(ctx context.Context, req *scene.VideoRequest) (*engine.Result, error)
}

type Deps struct {
	Engine     Renderer
	FFmpegPath string
	Logger     *logging.Logger
	// FFmpegVersion overrides the ffmpeg probe used by /healthz.
	FFmpegVersion func(ctx context.Context, ffmpegPath string) (string, error)
}

type Handler struct {
	engine        Renderer
	ffmpegPath    string
	ffmpegVersion func(ctx context.Context, ffmpegPath string) (string, error)
	log           *logging.Logger
}

func NewRouter(d Deps) http.Handler {
	h := newHandler(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/templates", h.ListTemplates)
	r.Post("/render", h.PostRender)

	return r
}

func newHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = logging.Discard()
	}
	version := d.FFmpegVersion
	if version == nil {
		version = system.FFmpegVersion
	}
	return &Handler{
		engine:        d.Engine,
		ffmpegPath:    d.FFmpegPath,
		ffmpegVersion: version,
		log:           log.WithComponent("api"),
	}
}
