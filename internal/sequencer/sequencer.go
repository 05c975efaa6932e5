// Package sequencer drives the frame loop of a job: it prepares every scene,
// renders each frame on a bounded worker pool, applies frame effects and
// writes the result to a path whose name fixes its place in the video.
package sequencer

import (
	"bufio"
	"context"
	"image"
	"image/png"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scene2video/internal/effects"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/logging"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/system"
)

// Options configures a Sequencer.
type Options struct {
	// Workers bounds concurrent frame renders. 0 means one per CPU.
	Workers int
	// Effects run on every frame after the scene is drawn, in order.
	Effects []effects.Effect
	Pool    *system.FramePool
	Logger  *logging.Logger
	// Progress, when set, is called after every written frame. Calls never
	// overlap and done increases by one each time.
	Progress func(done, total int)
}

type Sequencer struct {
	renderer *renderer.Renderer
	effects  []effects.Effect
	pool     *system.FramePool
	workers  int
	log      *logging.Logger
	progress func(done, total int)
	encoder  *png.Encoder
}

func New(r *renderer.Renderer, opts Options) *Sequencer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := opts.Pool
	if pool == nil {
		pool = system.NewFramePool()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Sequencer{
		renderer: r,
		effects:  opts.Effects,
		pool:     pool,
		workers:  workers,
		log:      log.WithComponent("sequencer"),
		progress: opts.Progress,
		encoder: &png.Encoder{
			CompressionLevel: png.BestSpeed,
			BufferPool:       &pngBufferPool{},
		},
	}
}

// Run renders every frame of scenes into ns and returns them in generation
// order. The first failure cancels the remaining work; frames already written
// stay in ns for the caller to clean up.
func (s *Sequencer) Run(ctx context.Context, ns *Namespace, scenes []scene.Descriptor, res scene.Resolution, fps int) ([]Frame, error) {
	const op = "sequencer.run"

	prepared := make([]*renderer.Scene, len(scenes))
	total := 0
	for i, d := range scenes {
		sc, err := s.renderer.Prepare(i, d, res)
		if err != nil {
			return nil, err
		}
		prepared[i] = sc
		total += d.Frames(fps)
	}

	s.log.FromContext(ctx).Debug("frame loop starting",
		"scenes", len(scenes), "frames", total, "workers", s.workers, "dir", ns.Dir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	frames := make([]Frame, 0, total)
	var (
		progressMu sync.Mutex
		done       int
	)
	global := 0

loop:
	for si, sc := range prepared {
		n := scenes[si].Frames(fps)
		for fi := 0; fi < n; fi++ {
			if gctx.Err() != nil {
				break loop
			}
			frame := Frame{JobID: ns.JobID, SceneIndex: si, Index: global, Path: ns.FramePath(si, global)}
			frames = append(frames, frame)
			g.Go(func() error {
				if err := s.renderFrame(gctx, sc, frame, fi, n, res); err != nil {
					return err
				}
				if s.progress != nil {
					progressMu.Lock()
					done++
					s.progress(done, total)
					progressMu.Unlock()
				}
				return nil
			})
			global++
		}
	}

	if err := g.Wait(); err != nil {
		if errs.IsContextError(err) {
			return nil, errs.Wrap(err, errs.CodeCanceled, op, "frame loop canceled")
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeCanceled, op, "frame loop canceled")
	}
	return frames, nil
}

func (s *Sequencer) renderFrame(ctx context.Context, sc *renderer.Scene, f Frame, local, total int, res scene.Resolution) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img := s.pool.Get(image.Rect(0, 0, res.Width, res.Height))
	defer s.pool.Put(img)

	if err := sc.Frame(img, local, total); err != nil {
		return err
	}
	for _, e := range s.effects {
		e.Apply(img)
	}
	if err := s.writePNG(f.Path, img); err != nil {
		return errs.Render(err, "sequencer.write", f.SceneIndex, local)
	}
	return nil
}

// writePNG creates path exclusively: a frame is written exactly once.
func (s *Sequencer) writePNG(path string, img image.Image) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(file, 256<<10)
	if err := s.encoder.Encode(w, img); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type pngBufferPool struct {
	pool sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *pngBufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}
