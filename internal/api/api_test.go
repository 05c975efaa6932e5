package api

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/engine"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/source"
	"github.com/ivlev/scene2video/internal/video"
)

type fakeEngine struct {
	mu   sync.Mutex
	got  *scene.VideoRequest
	err  error
	done time.Time
}

func (f *fakeEngine) Render(_ context.Context, req *scene.VideoRequest) (*engine.Result, error) {
	f.mu.Lock()
	f.got = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Result{Artifact: scene.VideoArtifact{
		ID:              "job_1_deadbeef",
		Path:            "/out/video.mp4",
		DurationSeconds: req.DurationSeconds(),
		Resolution:      req.Resolution,
		SizeBytes:       1234,
		CreatedAt:       f.done,
	}}, nil
}

func (f *fakeEngine) request() *scene.VideoRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

func newServer(t *testing.T, eng Renderer, version func(context.Context, string) (string, error)) *httptest.Server {
	t.Helper()
	if version == nil {
		version = func(context.Context, string) (string, error) { return "ffmpeg version 7.0", nil }
	}
	srv := httptest.NewServer(NewRouter(Deps{Engine: eng, FFmpegPath: "ffmpeg", FFmpegVersion: version}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/render", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	env, ok := body["error"].(map[string]any)
	require.True(t, ok, "error envelope missing: %v", body)
	return env["code"].(string)
}

func TestPostRenderScript(t *testing.T) {
	eng := &fakeEngine{done: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	srv := newServer(t, eng, nil)

	resp, body := post(t, srv, `{
		"title": "Launch",
		"fps": 30,
		"resolution": {"width": 1280, "height": 720},
		"scenes": [
			{"kind": "title", "duration": 3, "content": {"title": "Hello"}},
			{"kind": "feature_list", "duration": 5, "content": {"features": ["a", "b"]}}
		]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "job_1_deadbeef", body["id"])
	assert.InDelta(t, 8.0, body["duration_seconds"], 1e-9)
	assert.Equal(t, "2026-01-02T03:04:05Z", body["created_at"])

	got := eng.request()
	require.NotNil(t, got)
	assert.Equal(t, "Launch", got.Title)
	require.Len(t, got.Scenes, 2)
	assert.Equal(t, scene.KindFeatureList, got.Scenes[1].Kind)
}

func TestPostRenderTemplate(t *testing.T) {
	eng := &fakeEngine{}
	srv := newServer(t, eng, nil)

	resp, body := post(t, srv, `{"template": "demo", "params": {"product": "Acme"}, "fps": 30, "watermark": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 19.0, body["duration_seconds"], 1e-9)

	got := eng.request()
	require.NotNil(t, got)
	assert.Equal(t, "Acme Demo", got.Title)
	assert.Len(t, got.Scenes, 5)
	require.NotNil(t, got.Watermark)
	assert.False(t, *got.Watermark)
}

func TestPostRenderValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"title":`},
		{name: "unknown field", body: `{"titel": "x"}`},
		{name: "output path", body: `{"output": "/etc/passwd", "scenes": []}`},
		{name: "template and scenes", body: `{"template": "demo", "scenes": [{"kind": "title", "duration": 1}]}`},
		{name: "unknown template", body: `{"template": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{}
			srv := newServer(t, eng, nil)
			resp, body := post(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
			assert.Nil(t, eng.request())
		})
	}
}

func TestPostRenderMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "render", err: errs.Render(errors.New("bad payload"), "renderer.prepare", 2, 0), status: 422, code: "RENDER_ERROR"},
		{name: "encode", err: errs.Encode(errors.New("exit status 1"), "video.encode", "ffmpeg failed"), status: 502, code: "ENCODE_ERROR"},
		{name: "validation", err: errs.Validation("request.validate", "at least one scene is required"), status: 400, code: "VALIDATION_ERROR"},
		{name: "plain", err: errors.New("boom"), status: 500, code: "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, &fakeEngine{err: tt.err}, nil)
			resp, body := post(t, srv, `{"scenes": [{"kind": "title", "duration": 1, "content": {"title": "x"}}]}`)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

func TestRenderErrorDetails(t *testing.T) {
	srv := newServer(t, &fakeEngine{err: errs.Render(errors.New("bad"), "renderer.prepare", 3, 0)}, nil)
	_, body := post(t, srv, `{"scenes": [{"kind": "title", "duration": 1}]}`)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.EqualValues(t, 3, details["scene"])
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &fakeEngine{}, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	ffmpeg := body["checks"].(map[string]any)["ffmpeg"].(map[string]any)
	assert.Equal(t, "ffmpeg version 7.0", ffmpeg["version"])
}

func TestHealthDegraded(t *testing.T) {
	srv := newServer(t, &fakeEngine{}, func(context.Context, string) (string, error) {
		return "", errors.New("executable file not found")
	})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListTemplates(t *testing.T) {
	srv := newServer(t, &fakeEngine{}, nil)
	resp, err := http.Get(srv.URL + "/templates")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Templates []string `json:"templates"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"app-showcase", "demo", "version-release"}, body.Templates)
}

// stubEncoder writes a placeholder file instead of running ffmpeg.
type stubEncoder struct{}

func (stubEncoder) Encode(_ context.Context, p video.EncodeParams) (string, error) {
	if err := os.MkdirAll(filepath.Dir(p.Output), 0o755); err != nil {
		return "", err
	}
	return p.Output, os.WriteFile(p.Output, []byte("mp4"), 0o644)
}

func TestPostRenderKeepsScreensInScreensDir(t *testing.T) {
	root := t.TempDir()
	screens := filepath.Join(root, "screens")
	require.NoError(t, os.MkdirAll(screens, 0o755))
	for _, path := range []string{filepath.Join(screens, "home.png"), filepath.Join(root, "secret.png")} {
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 16, 9))))
		require.NoError(t, f.Close())
	}

	cfg := config.Default()
	cfg.Render.TempDir = t.TempDir()
	cfg.Render.OutputDir = t.TempDir()
	cfg.Render.Workers = 2
	eng, err := engine.New(engine.Options{
		Config:  &cfg,
		Encoder: stubEncoder{},
		Screens: source.Loader{BaseDir: screens, Restrict: true},
	})
	require.NoError(t, err)
	srv := newServer(t, eng, nil)

	body := func(screen string) string {
		return `{"title": "Screens", "fps": 5, "resolution": {"width": 64, "height": 36},
			"scenes": [{"kind": "demo_screens", "duration": 1,
				"content": {"title": "Tour", "screens": [{"name": "Home", "image": "` + screen + `"}]}}]}`
	}

	resp, _ := post(t, srv, body("home.png"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{filepath.Join(root, "secret.png"), "../secret.png"} {
		resp, out := post(t, srv, body(path))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, path)
		assert.Equal(t, "RENDER_ERROR", errorCode(t, out), path)
	}
}
