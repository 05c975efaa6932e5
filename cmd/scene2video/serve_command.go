package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/api"
	"github.com/ivlev/scene2video/internal/engine"
	"github.com/ivlev/scene2video/internal/renderer"
	"github.com/ivlev/scene2video/internal/source"
	"github.com/ivlev/scene2video/internal/video"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var screensDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}

			log := ctx.logger(cmd.ErrOrStderr())
			// Without --screens-dir, demo screens referencing files are rejected.
			var screens renderer.ScreenLoader
			if screensDir != "" {
				screens = source.Loader{BaseDir: screensDir, DPI: source.DefaultDPI, Restrict: true}
			}
			eng, err := engine.New(engine.Options{
				Config:  cfg,
				Encoder: video.NewFFmpegEncoder(cfg.Encoder, log),
				Screens: screens,
				Logger:  log,
			})
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", bind)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", bind, err)
			}

			srv := &http.Server{
				Handler: api.NewRouter(api.Deps{
					Engine:     eng,
					FFmpegPath: cfg.Encoder.FFmpegPath,
					Logger:     log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return signalCtx },
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Serve(listener)
			}()
			log.Info("render api listening", "addr", listener.Addr().String())

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-signalCtx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config server.bind)")
	cmd.Flags().StringVar(&screensDir, "screens-dir", "", "Directory relative demo screen paths resolve against")
	return cmd
}
