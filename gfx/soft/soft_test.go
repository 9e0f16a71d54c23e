// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft_test

import (
	"image"
	"image/color"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koruhal/gfx"
	"github.com/devblok/koruhal/gfx/soft"
)

var (
	red   = glm.Vec4{1, 0, 0, 1}
	blue  = glm.Vec4{0, 0, 1, 1}
	black = color.RGBA{A: 255}
)

type foreignBuffer struct{}

func (foreignBuffer) Len() int { return 0 }

func newCanvas(w, h int) (*gfx.Canvas, *soft.Window, *soft.Device, *soft.Factory) {
	window := soft.NewWindow(w, h, nil)
	device := soft.NewDevice()
	factory := soft.NewFactory()
	return gfx.NewCanvas(window, device, factory), window, device, factory
}

func TestRGBA(t *testing.T) {
	c := qt.New(t)
	c.Assert(soft.RGBA(red), qt.Equals, color.RGBA{R: 255, A: 255})
	c.Assert(soft.RGBA(glm.Vec4{0.5, 2, -1, 1}), qt.Equals, color.RGBA{R: 128, G: 255, B: 0, A: 255})
}

func TestDrawFrame(t *testing.T) {
	c := qt.New(t)
	canvas, window, device, _ := newCanvas(4, 4)

	r, out := canvas.Access()
	renderer := r.(*soft.Renderer)
	target := out.(soft.Target)
	renderer.Clear(target, glm.Vec4{0, 0, 0, 1})
	renderer.FillRect(target, image.Rect(1, 1, 3, 3), red)
	c.Assert(renderer.Buffer().Len(), qt.Equals, 2)

	c.Assert(canvas.Present(), qt.IsNil)
	c.Assert(renderer.Buffer().Len(), qt.Equals, 0)
	c.Assert(device.InFlight(), qt.IsFalse)
	c.Assert(device.Submitted(), qt.Equals, uint64(1))
	c.Assert(device.Frames(), qt.Equals, uint64(1))
	c.Assert(window.Swaps(), qt.Equals, uint64(1))

	front := window.Front()
	c.Assert(front.RGBAAt(0, 0), qt.Equals, black)
	c.Assert(front.RGBAAt(1, 1), qt.Equals, color.RGBA{R: 255, A: 255})
	c.Assert(front.RGBAAt(2, 2), qt.Equals, color.RGBA{R: 255, A: 255})
	c.Assert(front.RGBAAt(3, 3), qt.Equals, black)

	w, h := window.Size()
	c.Assert([]int{w, h}, qt.DeepEquals, []int{4, 4})
}

func TestFramesDoNotLeakCommands(t *testing.T) {
	c := qt.New(t)
	canvas, window, _, _ := newCanvas(2, 2)

	r, out := canvas.Access()
	renderer := r.(*soft.Renderer)
	renderer.Clear(out.(soft.Target), red)
	c.Assert(canvas.Present(), qt.IsNil)

	// Second frame records nothing, so the back buffer keeps
	// whatever it held before the first swap.
	c.Assert(canvas.Present(), qt.IsNil)
	c.Assert(window.Front().RGBAAt(0, 0), qt.Equals, color.RGBA{})
}

func TestTransientImages(t *testing.T) {
	c := qt.New(t)
	canvas, window, _, factory := newCanvas(4, 4)

	r, out := canvas.Access()
	renderer := r.(*soft.Renderer)
	c.Assert(renderer.Factory(), qt.Equals, factory)

	sprite := factory.NewTransientImage(2, 2)
	renderer.Clear(sprite, blue)
	renderer.Clear(out.(soft.Target), glm.Vec4{0, 0, 0, 1})
	renderer.Blit(out.(soft.Target), sprite, image.Pt(2, 0))
	c.Assert(factory.Transient(), qt.Equals, 1)

	c.Assert(canvas.Present(), qt.IsNil)
	c.Assert(factory.Transient(), qt.Equals, 0)
	c.Assert(sprite.Pix, qt.IsNil)

	front := window.Front()
	c.Assert(front.RGBAAt(3, 1), qt.Equals, color.RGBA{B: 255, A: 255})
	c.Assert(front.RGBAAt(1, 1), qt.Equals, black)
}

func TestDeviceRejectsForeignBuffer(t *testing.T) {
	c := qt.New(t)
	device := soft.NewDevice()
	c.Assert(device.Submit(foreignBuffer{}), qt.Equals, soft.ErrForeignBuffer)
	c.Assert(device.InFlight(), qt.IsFalse)

	renderer := soft.NewFactory().CreateRenderer()
	c.Assert(device.Submit(renderer.Buffer()), qt.IsNil)
	c.Assert(device.InFlight(), qt.IsTrue)
	device.AfterFrame()
	c.Assert(device.InFlight(), qt.IsFalse)
}

func TestDeviceRejectsMissingTarget(t *testing.T) {
	c := qt.New(t)
	canvas, _, _, _ := newCanvas(2, 2)
	r, _ := canvas.Access()
	r.(*soft.Renderer).Clear(nil, red)

	err := canvas.Present()
	c.Assert(err, qt.ErrorMatches, "canvas: submit: soft: command has no target")
	c.Assert(r.Buffer().Len(), qt.Equals, 0)
}

func TestSubmitLeavesTargetsUntouchedOnError(t *testing.T) {
	c := qt.New(t)
	canvas, window, device, _ := newCanvas(2, 2)
	r, out := canvas.Access()
	renderer := r.(*soft.Renderer)
	renderer.Clear(out.(soft.Target), red)
	renderer.Clear(nil, blue)

	c.Assert(canvas.Present(), qt.ErrorMatches, "canvas: submit: soft: command has no target")
	c.Assert(window.BackBuffer().At(0, 0), qt.Equals, color.RGBA{})
	c.Assert(device.Submitted(), qt.Equals, uint64(0))
	c.Assert(device.InFlight(), qt.IsFalse)
}

func TestWindowWaitsForVsync(t *testing.T) {
	c := qt.New(t)
	vsync := make(chan time.Time, 1)
	window := soft.NewWindow(1, 1, vsync)

	done := make(chan error)
	go func() {
		done <- window.SwapBuffers()
	}()
	select {
	case <-done:
		c.Fatal("swap did not wait for vsync")
	case <-time.After(10 * time.Millisecond):
	}
	vsync <- time.Now()
	c.Assert(<-done, qt.IsNil)
	c.Assert(window.Swaps(), qt.Equals, uint64(1))
}

func BenchmarkSoftPresent(b *testing.B) {
	canvas, _, _, _ := newCanvas(320, 240)
	r, out := canvas.Access()
	renderer := r.(*soft.Renderer)
	target := out.(soft.Target)
	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		renderer.Clear(target, blue)
		renderer.FillRect(target, image.Rect(10, 10, 100, 100), red)
		if err := canvas.Present(); err != nil {
			b.Fatal(err)
		}
	}
}
