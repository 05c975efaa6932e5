package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/engine"
	"github.com/ivlev/scene2video/internal/scene"
	"github.com/ivlev/scene2video/internal/source"
	"github.com/ivlev/scene2video/internal/templates"
	"github.com/ivlev/scene2video/internal/video"
)

type renderFlags struct {
	script    string
	template  string
	params    []string
	output    string
	width     int
	height    int
	fps       int
	workers   int
	quality   int
	codec     string
	dpi       int
	watermark bool
	stats     bool
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene script or template to MP4",
		Example: `  scene2video render --script launch.yaml
  scene2video render --template demo -p product=Acme -p url=https://acme.test --stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			applyConfigFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}

			req, baseDir, err := loadRequest(f)
			if err != nil {
				return err
			}
			applyRequestFlags(cmd, req, f)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errOut := cmd.ErrOrStderr()
			log := ctx.logger(errOut)
			dpi := f.dpi
			if dpi <= 0 {
				dpi = source.DefaultDPI
			}

			eng, err := engine.New(engine.Options{
				Config:   &cfg,
				Encoder:  video.NewFFmpegEncoder(cfg.Encoder, log),
				Screens:  source.Loader{BaseDir: baseDir, DPI: dpi},
				Logger:   log,
				Progress: progressPrinter(errOut),
			})
			if err != nil {
				return err
			}

			res, err := eng.Render(runCtx, req)
			if err != nil {
				if errors.Is(err, context.Canceled) || runCtx.Err() != nil {
					return fmt.Errorf("render interrupted: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[+] %s (%gs, %s, %s)\n",
				res.Artifact.Path,
				res.Artifact.DurationSeconds,
				res.Artifact.Resolution,
				humanize.Bytes(uint64(res.Artifact.SizeBytes)),
			)
			if f.stats || cfg.Render.ShowStats {
				fmt.Fprintln(out, res.Stats.Table())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.script, "script", "s", "", "Scene script (YAML or JSON)")
	flags.StringVarP(&f.template, "template", "t", "", "Template name instead of a script (see `templates list`)")
	flags.StringArrayVarP(&f.params, "param", "p", nil, "Template parameter key=value (repeatable)")
	flags.StringVarP(&f.output, "output", "o", "", "Output video path (default: <output_dir>/<title>_<job>.mp4)")
	flags.IntVar(&f.width, "width", 0, "Frame width")
	flags.IntVar(&f.height, "height", 0, "Frame height")
	flags.IntVar(&f.fps, "fps", 0, "Frames per second")
	flags.IntVar(&f.workers, "workers", 0, "Frame render workers (0 = auto)")
	flags.IntVar(&f.quality, "quality", 0, "Quality (0 = codec default; x264 CRF, NVENC CQ, VideoToolbox Q*100 kbit/s)")
	flags.StringVar(&f.codec, "codec", "", "Encoder: auto, libx264, h264_nvenc, h264_videotoolbox")
	flags.IntVar(&f.dpi, "dpi", source.DefaultDPI, "DPI for PDF demo screens")
	flags.BoolVar(&f.watermark, "watermark", true, "Burn the branding watermark in")
	flags.BoolVar(&f.stats, "stats", false, "Print the performance report")
	cmd.MarkFlagsMutuallyExclusive("script", "template")
	cmd.MarkFlagsOneRequired("script", "template")

	return cmd
}

func applyConfigFlags(cmd *cobra.Command, cfg *config.Config, f renderFlags) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Render.Workers = f.workers
	}
	if flags.Changed("quality") {
		cfg.Encoder.Quality = f.quality
	}
	if flags.Changed("codec") {
		cfg.Encoder.Codec = strings.ToLower(strings.TrimSpace(f.codec))
	}
}

// applyRequestFlags lets explicit flags win over script values.
func applyRequestFlags(cmd *cobra.Command, req *scene.VideoRequest, f renderFlags) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		req.Resolution.Width = f.width
	}
	if flags.Changed("height") {
		req.Resolution.Height = f.height
	}
	if flags.Changed("fps") {
		req.FPS = f.fps
	}
	if flags.Changed("watermark") {
		wm := f.watermark
		req.Watermark = &wm
	}
	if f.output != "" {
		req.Output = f.output
	}
}

// loadRequest returns the request and the directory relative screen paths
// resolve against.
func loadRequest(f renderFlags) (*scene.VideoRequest, string, error) {
	if f.template != "" {
		p, err := parseParams(f.params)
		if err != nil {
			return nil, "", err
		}
		req, err := templates.Expand(f.template, p)
		if err != nil {
			return nil, "", err
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		return req, wd, nil
	}
	if len(f.params) > 0 {
		return nil, "", errors.New("--param only applies to --template")
	}
	req, err := scene.ReadRequest(f.script)
	if err != nil {
		return nil, "", fmt.Errorf("read script: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(f.script))
	if err != nil {
		return nil, "", err
	}
	return req, dir, nil
}

// progressPrinter reports frame progress on a terminal and stays silent
// otherwise.
func progressPrinter(w io.Writer) func(done, total int) {
	file, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		return nil
	}
	return func(done, total int) {
		step := max(total/100, 1)
		if done%step != 0 && done != total {
			return
		}
		fmt.Fprintf(file, "\r[>] Frames: %d/%d", done, total)
		if done == total {
			fmt.Fprintln(file)
		}
	}
}
