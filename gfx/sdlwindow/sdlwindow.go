// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdlwindow shows software rendered frames in an SDL2 window.
//
// SDL must be initialised with the video subsystem before New, and all
// calls must come from the thread that initialised it.
package sdlwindow

import (
	"errors"
	"image"
	"image/draw"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// ErrInvalidSize is returned by New for a window without pixels.
var ErrInvalidSize = errors.New("sdlwindow: width and height must be positive")

// Window is an SDL window with an RGBA back buffer.
type Window struct {
	window *sdl.Window
	back   *image.RGBA
	quit   bool
}

// New creates and shows a window.
func New(title string, width, height int) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, err
	}
	return &Window{
		window: window,
		back:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Size implements gfx.Output.
func (w *Window) Size() (int, int) {
	s := w.back.Bounds().Size()
	return s.X, s.Y
}

// BackBuffer implements soft.Target.
func (w *Window) BackBuffer() draw.Image {
	return w.back
}

// SwapBuffers implements gfx.Window. The back buffer is copied
// to the window surface, which is then shown.
func (w *Window) SwapBuffers() error {
	if len(w.back.Pix) == 0 {
		return nil
	}
	width, height := w.Size()
	// ABGR8888 has the byte order of image.RGBA on little endian machines.
	src, err := sdl.CreateRGBSurfaceWithFormatFrom(unsafe.Pointer(&w.back.Pix[0]),
		int32(width), int32(height), 32, int32(w.back.Stride), uint32(sdl.PIXELFORMAT_ABGR8888))
	if err != nil {
		return err
	}
	defer src.Free()

	dst, err := w.window.GetSurface()
	if err != nil {
		return err
	}
	if err := src.Blit(nil, dst, nil); err != nil {
		return err
	}
	return w.window.UpdateSurface()
}

// PollEvents drains pending events and reports whether
// the user asked to close the window.
func (w *Window) PollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				w.quit = true
			}
		case *sdl.QuitEvent:
			w.quit = true
		}
	}
	return w.quit
}

// Destroy closes the window.
func (w *Window) Destroy() error {
	return w.window.Destroy()
}
