// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"os"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devblok/koruhal/core"
	"github.com/devblok/koruhal/gfx"
	"github.com/devblok/koruhal/gfx/sdlwindow"
	"github.com/devblok/koruhal/gfx/soft"
	"github.com/devblok/koruhal/metrics"
)

// Window kinds accepted by --window.
const (
	windowOffscreen = "offscreen"
	windowSDL       = "sdl"
)

type runOptions struct {
	frames      int
	fps         int
	pngPath     string
	window      string
	metricsAddr string
}

func newRunCmd(opts *options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap the backend and drive the frame cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("fps") {
				opts.configuration.Time.FramesPerSecond = ro.fps
			}
			return ro.run(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&ro.frames, "frames", 0, "number of frames to present, 0 runs until interrupted")
	flags.IntVar(&ro.fps, "fps", 60, "frame rate cap, 0 for unlimited (overrides the configuration)")
	flags.StringVar(&ro.pngPath, "png", "", "write the last presented frame to this PNG file")
	flags.StringVar(&ro.window, "window", windowOffscreen, "window kind: offscreen|sdl")
	flags.StringVar(&ro.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func (ro *runOptions) run(ctx context.Context, opts *options) error {
	s := &session{}
	defer s.close()

	backend, err := opts.bootstrap(s)
	if err != nil {
		return err
	}
	collector := metrics.New()
	collector.ObserveBackend(backend)

	if i, dev, err := backend.PreferredDevice(); err == nil {
		log.WithFields(log.Fields{
			"index": i,
			"name":  dev.Properties.Name,
			"type":  dev.Properties.Type,
		}).Info("preferred device")
	} else {
		log.WithError(err).Warn("no preferred device, rendering in software only")
	}

	if ro.metricsAddr != "" {
		if err := serveMetrics(s, ro.metricsAddr, collector); err != nil {
			return err
		}
	}

	pace := core.NewTime(opts.configuration.Time)
	s.onClose(pace.Stop)

	cfg := opts.configuration.Window
	var (
		window  gfx.Window
		target  soft.Target
		sdlWin  *sdlwindow.Window
		readout func() image.Image
	)
	switch ro.window {
	case windowOffscreen:
		w := soft.NewWindow(cfg.Width, cfg.Height, pace.Frames())
		window, target = w, w
		readout = func() image.Image { return w.Front() }
	case windowSDL:
		if err := s.initSDL(); err != nil {
			return err
		}
		w, err := sdlwindow.New(cfg.Title, cfg.Width, cfg.Height)
		if err != nil {
			return err
		}
		s.onClose(func() { w.Destroy() })
		window, target, sdlWin = w, w, w
		readout = func() image.Image { return w.BackBuffer() }
	default:
		return fmt.Errorf("unknown window %q", ro.window)
	}

	factory := soft.NewFactory()
	canvas := gfx.NewCanvas(window, soft.NewDevice(), factory)
	r, _ := canvas.Access()
	rec := r.(*soft.Renderer)

	log.WithFields(log.Fields{
		"window": ro.window,
		"width":  cfg.Width,
		"height": cfg.Height,
		"fps":    pace.Fps(),
	}).Info("frame cycle started")

	start := time.Now()
	for i := 0; ro.frames == 0 || i < ro.frames; i++ {
		if ctx.Err() != nil {
			break
		}
		if sdlWin != nil {
			if sdlWin.PollEvents() {
				break
			}
			if tick := pace.Frames(); tick != nil {
				<-tick
			}
		}
		drawFrame(rec, factory, target, i)
		if err := collector.Present(canvas); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"frames":  canvas.Frames(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("frame cycle finished")

	if ro.pngPath != "" {
		return writePNG(ro.pngPath, readout())
	}
	return nil
}

// drawFrame draws a square sliding over a slowly changing background.
func drawFrame(r *soft.Renderer, factory *soft.Factory, target soft.Target, frame int) {
	width, height := target.Size()
	phase := float32(frame%120) / 120
	r.Clear(target, glm.Vec4{0.1, 0.1 + 0.2*phase, 0.2, 1})

	const size = 32
	if width <= size || height <= size {
		return
	}
	sprite := factory.NewTransientImage(size, size)
	r.Clear(sprite, glm.Vec4{0.9, 0.4, 0.1, 1})
	r.FillRect(sprite, image.Rect(8, 8, size-8, size-8), glm.Vec4{1, 1, 1, 0.5})
	at := image.Pt((frame*4)%(width-size), (height-size)/2)
	r.Blit(target, sprite, at)
}

func serveMetrics(s *session, addr string, collector *metrics.Collector) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	s.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
