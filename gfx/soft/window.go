// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft

import (
	"image"
	"image/draw"
	"time"
)

// Window is an offscreen double buffered window.
type Window struct {
	front, back *image.RGBA
	vsync       <-chan time.Time
	swaps       uint64
}

// NewWindow creates a window. When vsync is not nil
// SwapBuffers waits for a tick before swapping.
func NewWindow(width, height int, vsync <-chan time.Time) *Window {
	return &Window{
		front: image.NewRGBA(image.Rect(0, 0, width, height)),
		back:  image.NewRGBA(image.Rect(0, 0, width, height)),
		vsync: vsync,
	}
}

// Size implements gfx.Output.
func (w *Window) Size() (int, int) {
	s := w.back.Bounds().Size()
	return s.X, s.Y
}

// BackBuffer implements Target.
func (w *Window) BackBuffer() draw.Image {
	return w.back
}

// SwapBuffers implements gfx.Window.
func (w *Window) SwapBuffers() error {
	if w.vsync != nil {
		<-w.vsync
	}
	w.front, w.back = w.back, w.front
	w.swaps++
	return nil
}

// Front returns the last presented image.
func (w *Window) Front() *image.RGBA {
	return w.front
}

// Swaps returns the number of presented frames.
func (w *Window) Swaps() uint64 {
	return w.swaps
}
