// Package video invokes ffmpeg to turn an ordered frame sequence into an
// H.264 MP4.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/logging"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/system"
)

// outputTail bounds how much ffmpeg output an EncodeError carries.
const outputTail = 4 << 10

// EncodeParams describes one encode.
type EncodeParams struct {
	// Pattern is a glob matching the frames; lexicographic order is frame order.
	Pattern    string
	FPS        int
	Resolution scene.Resolution
	Output     string
	// Filters are appended to the video filter chain, e.g. a drawtext watermark.
	Filters []string
}

// Encoder produces a video file from frames on disk.
type Encoder interface {
	Encode(ctx context.Context, p EncodeParams) (string, error)
}

type FFmpegEncoder struct {
	Path    string
	Codec   string
	Quality int
	Preset  string
	Timeout time.Duration

	log       *logging.Logger
	detect    sync.Once
	autoCodec string
}

var _ Encoder = (*FFmpegEncoder)(nil)

func NewFFmpegEncoder(cfg config.Encoder, log *logging.Logger) *FFmpegEncoder {
	if log == nil {
		log = logging.Discard()
	}
	return &FFmpegEncoder{
		Path:    cfg.FFmpegPath,
		Codec:   cfg.Codec,
		Quality: cfg.Quality,
		Preset:  cfg.Preset,
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:     log.WithComponent("encoder"),
	}
}

// Encode runs ffmpeg and returns the output path. It succeeds only when ffmpeg
// exits zero and leaves a non-empty file behind.
func (e *FFmpegEncoder) Encode(ctx context.Context, p EncodeParams) (string, error) {
	const op = "video.encode"

	if err := os.MkdirAll(filepath.Dir(p.Output), 0o755); err != nil {
		return "", errs.Encode(err, op, "create output directory")
	}

	codec := e.resolveCodec(ctx)
	err := e.run(ctx, codec, p)
	if err != nil && e.Codec == "auto" && codec != system.DefaultEncoder && !errors.Is(err, errs.ErrCanceled) {
		e.log.FromContext(ctx).Warn("hardware encoder failed, retrying with software encoder",
			"codec", codec, "error", err)
		err = e.run(ctx, system.DefaultEncoder, p)
	}
	if err != nil {
		e.discard(ctx, p.Output)
		return "", err
	}

	info, err := os.Stat(p.Output)
	if err != nil {
		return "", errs.Encode(err, op, "ffmpeg produced no output")
	}
	if info.Size() == 0 {
		e.discard(ctx, p.Output)
		return "", errs.Encode(fmt.Errorf("%s is empty", p.Output), op, "ffmpeg produced no output")
	}
	return p.Output, nil
}

// discard removes whatever a failed ffmpeg run left at path.
func (e *FFmpegEncoder) discard(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.log.FromContext(ctx).Warn("partial output not removed", "path", path, "error", err)
	}
}

func (e *FFmpegEncoder) run(ctx context.Context, codec string, p EncodeParams) error {
	const op = "video.encode"

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := buildArgs(p, codec, e.Quality, e.Preset)
	e.log.FromContext(ctx).Debug("running ffmpeg", "codec", codec, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(runCtx, e.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err := cmd.Run()
	switch {
	case ctx.Err() != nil:
		return errs.Wrap(ctx.Err(), errs.CodeCanceled, op, "encode canceled")
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return errs.Encode(fmt.Errorf("ffmpeg timed out after %s", e.Timeout), op, lastLine(out.Bytes())).
			WithField("output", tail(out.Bytes()))
	case err != nil:
		return errs.Encode(err, op, lastLine(out.Bytes())).
			WithField("output", tail(out.Bytes())).
			WithField("codec", codec)
	}

	e.log.FromContext(ctx).Debug("ffmpeg finished", "codec", codec, "elapsed", time.Since(start).String())
	return nil
}

func (e *FFmpegEncoder) resolveCodec(ctx context.Context) string {
	if e.Codec != "" && e.Codec != "auto" {
		return e.Codec
	}
	// Detection outlives the job that triggers it, so its cancellation must
	// not cache the fallback codec.
	e.detect.Do(func() {
		e.autoCodec = system.DetectH264Encoder(context.WithoutCancel(ctx), e.Path)
		e.log.Info("selected encoder", "codec", e.autoCodec)
	})
	return e.autoCodec
}

func buildArgs(p EncodeParams, codec string, quality int, preset string) []string {
	fps := strconv.Itoa(p.FPS)
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-framerate", fps,
		"-pattern_type", "glob",
		"-i", p.Pattern,
	}

	filters := append([]string{fmt.Sprintf("scale=%d:%d", p.Resolution.Width, p.Resolution.Height)}, p.Filters...)
	args = append(args, "-vf", strings.Join(filters, ","))
	args = append(args, "-c:v", codec)
	args = append(args, qualityArgs(codec, quality, preset)...)
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-r", fps,
		"-movflags", "+faststart",
		p.Output,
	)
	return args
}

// qualityArgs maps one quality knob onto each encoder's own rate control.
// Zero picks the encoder default.
func qualityArgs(codec string, quality int, preset string) []string {
	switch codec {
	case "h264_videotoolbox":
		// VideoToolbox has no CRF; quality is a bitrate in 100 kbit/s steps.
		if quality <= 0 {
			quality = 75
		}
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		if quality <= 0 {
			quality = 28
		}
		return []string{"-cq", strconv.Itoa(quality)}
	default:
		if quality <= 0 {
			quality = 23
		}
		if preset == "" {
			preset = "medium"
		}
		return []string{"-crf", strconv.Itoa(quality), "-preset", preset}
	}
}

func tail(b []byte) string {
	if len(b) > outputTail {
		b = b[len(b)-outputTail:]
	}
	return string(b)
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return "ffmpeg failed"
	}
	return "ffmpeg: " + last
}
