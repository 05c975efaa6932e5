// Package engine runs a render job end to end: it validates the request,
// renders every frame into a private namespace, encodes the sequence and
// removes the namespace whatever the outcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/effects"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/logging"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/report"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/sequencer"
	"github.com/ivlev/scene2video/internal/system"
	"github.com/ivlev/scene2video/internal/video"
)

// Options configures an Engine. Config and Encoder are required.
type Options struct {
	Config  *config.Config
	Encoder video.Encoder
	// Screens resolves demo screen images. Nil draws placeholders.
	Screens renderer.ScreenLoader
	Logger  *logging.Logger
	// Progress is called after every written frame.
	Progress func(done, total int)
}

// Engine renders VideoRequests. It is safe for concurrent use; every job gets
// its own namespace and sequencer.
type Engine struct {
	cfg      *config.Config
	encoder  video.Encoder
	renderer *renderer.Renderer
	pool     *system.FramePool
	base     *logging.Logger
	log      *logging.Logger
	progress func(done, total int)

	// filterSupported probes ffmpeg for an encoder-side filter.
	filterSupported func(ctx context.Context, ffmpegPath, name string) bool
	now             func() time.Time
}

// Result is a finished job.
type Result struct {
	Artifact scene.VideoArtifact
	Stats    report.Stats
}

func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("engine: config is required")
	}
	if opts.Encoder == nil {
		return nil, errors.New("engine: encoder is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	pool := system.NewFramePool()
	r, err := renderer.New(renderer.Options{Screens: opts.Screens, Pool: pool})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{
		cfg:             opts.Config,
		encoder:         opts.Encoder,
		renderer:        r,
		pool:            pool,
		base:            log,
		log:             log.WithComponent("engine"),
		progress:        opts.Progress,
		filterSupported: system.FilterSupported,
		now:             time.Now,
	}, nil
}

// Render runs one job. On failure no artifact is returned and the job's
// temporary frames are gone.
func (e *Engine) Render(ctx context.Context, in *scene.VideoRequest) (res *Result, err error) {
	if in == nil {
		return nil, errs.Validation("engine.render", "request is nil")
	}
	req := e.withDefaults(in)
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := e.now()
	jobID := newJobID(start)
	ctx = logging.ContextWithJobID(ctx, jobID)
	log := e.log.FromContext(ctx)

	ns, err := sequencer.NewNamespace(e.cfg.Render.TempDir, jobID)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "engine.render", "create frame namespace")
	}

	stats := report.Stats{
		JobID:  jobID,
		Scenes: len(req.Scenes),
		Frames: req.TotalFrames(),
		Codec:  e.cfg.Encoder.Codec,
	}
	defer func() {
		cleanupStart := time.Now()
		removed, failures := ns.Cleanup()
		for _, f := range failures {
			log.Warn("temporary frame not removed", "error", f)
		}
		log.Debug("namespace cleaned", "removed", removed, "failures", len(failures))
		if res != nil {
			res.Stats.Cleanup = time.Since(cleanupStart)
			res.Stats.Total = time.Since(start)
		}
	}()

	workers := e.cfg.Render.Workers
	if workers <= 0 {
		workers = system.RecommendedWorkers(ctx, req.Resolution.Width, req.Resolution.Height)
	}
	stats.Workers = workers

	frameEffects, filters, err := e.watermark(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info("job started",
		"title", req.Title,
		"scenes", stats.Scenes,
		"frames", stats.Frames,
		"resolution", req.Resolution.String(),
		"fps", req.FPS,
		"workers", workers,
	)

	seq := sequencer.New(e.renderer, sequencer.Options{
		Workers:  workers,
		Effects:  frameEffects,
		Pool:     e.pool,
		Logger:   e.base,
		Progress: e.progress,
	})

	renderStart := time.Now()
	frames, err := seq.Run(ctx, ns, req.Scenes, req.Resolution, req.FPS)
	stats.Render = time.Since(renderStart)
	if err != nil {
		log.Error("frame rendering failed", "error", err)
		return nil, err
	}
	if err := checkFrames(ns, len(frames), stats.Frames); err != nil {
		return nil, err
	}
	log.Info("frames rendered", "frames", len(frames), "elapsed", stats.Render.Round(time.Millisecond).String())

	output := req.Output
	if output == "" {
		output = filepath.Join(e.cfg.Render.OutputDir, fmt.Sprintf("%s_%s.mp4", slug(req.Title), jobID))
	}

	encodeStart := time.Now()
	path, err := e.encoder.Encode(ctx, video.EncodeParams{
		Pattern:    ns.Pattern(),
		FPS:        req.FPS,
		Resolution: req.Resolution,
		Output:     output,
		Filters:    filters,
	})
	stats.Encode = time.Since(encodeStart)
	if err != nil {
		log.Error("encoding failed", "error", err)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Encode(err, "engine.render", "stat encoded video")
	}

	stats.Output = path
	stats.SizeBytes = info.Size()
	stats.Total = time.Since(start)

	log.Info("video encoded",
		"output", path,
		"size", humanize.Bytes(uint64(info.Size())),
		"elapsed", stats.Total.Round(time.Millisecond).String(),
	)

	if e.cfg.Render.BenchmarkLog != "" {
		if err := report.AppendBenchmark(e.cfg.Render.BenchmarkLog, stats, e.now()); err != nil {
			log.Warn("benchmark log not written", "path", e.cfg.Render.BenchmarkLog, "error", err)
		}
	}

	return &Result{
		Artifact: scene.VideoArtifact{
			ID:              jobID,
			Path:            path,
			DurationSeconds: req.DurationSeconds(),
			Resolution:      req.Resolution,
			SizeBytes:       info.Size(),
			CreatedAt:       e.now().UTC(),
		},
		Stats: stats,
	}, nil
}

// withDefaults copies in and fills unset job settings from the config.
func (e *Engine) withDefaults(in *scene.VideoRequest) *scene.VideoRequest {
	req := *in
	req.Scenes = append([]scene.Descriptor(nil), in.Scenes...)
	if req.Resolution.Width == 0 && req.Resolution.Height == 0 {
		req.Resolution = scene.Resolution{Width: e.cfg.Render.Width, Height: e.cfg.Render.Height}
	}
	if req.FPS == 0 {
		req.FPS = e.cfg.Render.FPS
	}
	return &req
}

// watermark resolves where the branding label is applied for req. An
// encoder-stage watermark falls back to frames when ffmpeg lacks drawtext.
func (e *Engine) watermark(ctx context.Context, req *scene.VideoRequest) ([]effects.Effect, []string, error) {
	if !req.WatermarkEnabled(e.cfg.Watermark.Enabled) {
		return nil, nil, nil
	}
	wm, err := effects.NewWatermark(e.cfg.Watermark.Label, e.cfg.Watermark.Opacity, nil)
	if err != nil {
		return nil, nil, errs.Wrap(err, errs.CodeValidation, "engine.watermark", "invalid watermark settings")
	}

	onFrames, inEncoder := effects.Placement(e.cfg.Watermark.Stage)
	if inEncoder && !e.filterSupported(ctx, e.cfg.Encoder.FFmpegPath, "drawtext") {
		e.log.FromContext(ctx).Warn("ffmpeg has no drawtext filter, watermarking frames instead")
		onFrames, inEncoder = true, false
	}

	var frameEffects []effects.Effect
	var filters []string
	if onFrames {
		frameEffects = append(frameEffects, wm)
	}
	if inEncoder {
		filters = append(filters, wm.Filter(req.Resolution))
	}
	return frameEffects, filters, nil
}

// checkFrames confirms the namespace holds exactly the frames the request
// implies before they are handed to the encoder.
func checkFrames(ns *sequencer.Namespace, written, want int) error {
	paths, err := ns.Frames()
	if err != nil {
		return errs.Wrap(err, errs.CodeInternal, "engine.frames", "list frames")
	}
	if written != want || len(paths) != want {
		return errs.Newf(errs.CodeInternal, "engine.frames", "expected %d frames, sequencer wrote %d and %d are on disk", want, written, len(paths))
	}
	return nil
}

func newJobID(t time.Time) string {
	return fmt.Sprintf("job_%d_%s", t.UnixNano(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// slug turns a title into a file name fragment.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if len(s) > 48 {
		s = strings.TrimSuffix(s[:48], "-")
	}
	if s == "" {
		return "video"
	}
	return s
}
