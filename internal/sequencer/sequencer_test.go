package sequencer

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scene2video/internal/effects"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/scene"
)

var tiny = scene.Resolution{Width: 64, Height: 36}

func newSequencer(t *testing.T, opts Options) *Sequencer {
	t.Helper()
	r, err := renderer.New(renderer.Options{})
	require.NoError(t, err)
	return New(r, opts)
}

func twoScenes() []scene.Descriptor {
	return []scene.Descriptor{
		{Kind: scene.KindTitle, Duration: 0.3, Content: map[string]any{"title": "Hello"}},
		{Kind: scene.KindFeatureList, Duration: 0.2, Content: map[string]any{"features": []any{"a", "b"}}},
	}
}

func TestNewNamespace(t *testing.T) {
	root := t.TempDir()

	ns, err := NewNamespace(root, "job_1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "job_1"), ns.Dir)
	assert.DirExists(t, ns.Dir)

	_, err = NewNamespace(root, "job_1")
	assert.Error(t, err, "namespaces are never shared")

	_, err = NewNamespace(root, "../escape")
	assert.Error(t, err)
	_, err = NewNamespace(root, "")
	assert.Error(t, err)
}

func TestFramePathsSortInGenerationOrder(t *testing.T) {
	ns := &Namespace{JobID: "job", Dir: "/tmp/job"}

	var generated []string
	global := 0
	for si, frames := range []int{5, 1200, 3} {
		for fi := 0; fi < frames; fi++ {
			generated = append(generated, ns.FramePath(si, global))
			global++
		}
	}
	sorted := append([]string(nil), generated...)
	sort.Strings(sorted)
	assert.Equal(t, generated, sorted)

	assert.Equal(t, "/tmp/job/s001_f001204.png", ns.FramePath(1, 1204))
	assert.Equal(t, "/tmp/job/s*_f*.png", ns.Pattern())
}

func TestRunWritesOrderedFrames(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_run")
	require.NoError(t, err)

	var progressed atomic.Int64
	seq := newSequencer(t, Options{Workers: 3, Progress: func(done, total int) {
		progressed.Add(1)
		assert.Equal(t, 5, total)
	}})

	frames, err := seq.Run(context.Background(), ns, twoScenes(), tiny, 10)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.Equal(t, int64(5), progressed.Load())

	for i, f := range frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, "job_run", f.JobID)
	}
	assert.Equal(t, 0, frames[2].SceneIndex)
	assert.Equal(t, 1, frames[3].SceneIndex)

	onDisk, err := ns.Frames()
	require.NoError(t, err)
	want := make([]string, len(frames))
	for i, f := range frames {
		want[i] = f.Path
	}
	assert.Equal(t, want, onDisk)

	file, err := os.Open(frames[0].Path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 36), img.Bounds())
}

func TestRunIsIndependentOfWorkerCount(t *testing.T) {
	read := func(workers int) [][]byte {
		ns, err := NewNamespace(t.TempDir(), "job")
		require.NoError(t, err)
		frames, err := newSequencer(t, Options{Workers: workers}).Run(context.Background(), ns, twoScenes(), tiny, 10)
		require.NoError(t, err)
		var out [][]byte
		for _, f := range frames {
			b, err := os.ReadFile(f.Path)
			require.NoError(t, err)
			out = append(out, b)
		}
		return out
	}
	assert.Equal(t, read(1), read(4))
}

func TestRunAppliesEffects(t *testing.T) {
	wm, err := effects.NewWatermark("brand", 0.7, nil)
	require.NoError(t, err)

	plain, err := NewNamespace(t.TempDir(), "plain")
	require.NoError(t, err)
	marked, err := NewNamespace(t.TempDir(), "marked")
	require.NoError(t, err)

	scenes := twoScenes()[:1]
	res := scene.Resolution{Width: 320, Height: 180}
	a, err := newSequencer(t, Options{}).Run(context.Background(), plain, scenes, res, 10)
	require.NoError(t, err)
	b, err := newSequencer(t, Options{Effects: []effects.Effect{wm}}).Run(context.Background(), marked, scenes, res, 10)
	require.NoError(t, err)

	pa, err := os.ReadFile(a[0].Path)
	require.NoError(t, err)
	pb, err := os.ReadFile(b[0].Path)
	require.NoError(t, err)
	assert.NotEqual(t, pa, pb)
}

func TestRunRenderErrorThenCleanupEmptiesNamespace(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_bad")
	require.NoError(t, err)

	scenes := append(twoScenes(), scene.Descriptor{Kind: scene.KindStatistics, Duration: 1, Content: map[string]any{"stats": []any{}}})
	_, err = newSequencer(t, Options{}).Run(context.Background(), ns, scenes, tiny, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrRender))

	_, failures := ns.Cleanup()
	assert.Empty(t, failures)
	assert.NoDirExists(t, ns.Dir)
}

func TestRunCanceled(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_cancel")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newSequencer(t, Options{Workers: 2}).Run(ctx, ns, twoScenes(), tiny, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))

	_, failures := ns.Cleanup()
	assert.Empty(t, failures)
	assert.NoDirExists(t, ns.Dir)
}

func TestCleanupAfterSuccess(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_ok")
	require.NoError(t, err)
	frames, err := newSequencer(t, Options{}).Run(context.Background(), ns, twoScenes(), tiny, 10)
	require.NoError(t, err)

	removed, failures := ns.Cleanup()
	assert.Equal(t, len(frames), removed)
	assert.Empty(t, failures)
	assert.NoDirExists(t, ns.Dir)

	// a second pass is a no-op
	removed, failures = ns.Cleanup()
	assert.Zero(t, removed)
	assert.Empty(t, failures)
}

func TestCleanupContinuesPastFailures(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_stuck")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(ns.Dir, "s000_f000000.png"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(ns.Dir, "stuck"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ns.Dir, "stuck", "inner"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ns.Dir, "s000_f000001.png"), []byte("x"), 0o644))

	removed, failures := ns.Cleanup()
	assert.Equal(t, 2, removed)
	require.Len(t, failures, 2, "the non-empty entry and the namespace itself")
	for _, f := range failures {
		assert.True(t, errors.Is(f, errs.ErrCleanup))
	}

	frames, err := ns.Frames()
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestRunReportsProgressInOrder(t *testing.T) {
	ns, err := NewNamespace(t.TempDir(), "job_progress")
	require.NoError(t, err)

	// appended without a lock: progress calls never overlap
	var seen []int
	seq := newSequencer(t, Options{Workers: 4, Progress: func(done, total int) {
		seen = append(seen, done)
	}})

	_, err = seq.Run(context.Background(), ns, twoScenes(), tiny, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}
