// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft

import (
	"image"
	"image/draw"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/koruhal/gfx"
)

// Device rasterises command buffers on the CPU.
type Device struct {
	inFlight  *CommandBuffer
	submitted uint64
	frames    uint64
}

// NewDevice creates a software device.
func NewDevice() *Device {
	return &Device{}
}

// Submit implements gfx.Device. The buffer is executed right away and
// stays in flight until AfterFrame. A buffer with a command lacking a
// target is rejected before anything is drawn.
func (d *Device) Submit(buf gfx.CommandBuffer) error {
	cb, ok := buf.(*CommandBuffer)
	if !ok || cb == nil {
		return ErrForeignBuffer
	}
	for _, cmd := range cb.commands {
		if cmd.target == nil {
			return ErrNoTarget
		}
	}
	if d.inFlight != nil {
		log.WithField("commands", d.inFlight.Len()).Debug("soft: previous frame never finished")
	}
	for _, cmd := range cb.commands {
		execute(cmd)
	}
	d.inFlight = cb
	d.submitted++
	return nil
}

func execute(cmd command) {
	dst := cmd.target.BackBuffer()
	switch cmd.op {
	case opClear:
		draw.Draw(dst, dst.Bounds(), image.NewUniform(RGBA(cmd.color)), image.Point{}, draw.Src)
	case opFillRect:
		draw.Draw(dst, cmd.rect.Intersect(dst.Bounds()), image.NewUniform(RGBA(cmd.color)), image.Point{}, draw.Over)
	case opBlit:
		if cmd.image == nil {
			return
		}
		src := cmd.image.Bounds()
		r := image.Rectangle{Min: cmd.at, Max: cmd.at.Add(src.Size())}
		draw.Draw(dst, r, cmd.image, src.Min, draw.Over)
	}
}

// AfterFrame implements gfx.Device.
func (d *Device) AfterFrame() {
	d.inFlight = nil
	d.frames++
}

// InFlight reports whether a submitted buffer awaits its frame boundary.
func (d *Device) InFlight() bool {
	return d.inFlight != nil
}

// Submitted returns the number of buffers executed.
func (d *Device) Submitted() uint64 {
	return d.submitted
}

// Frames returns the number of frame boundaries seen.
func (d *Device) Frames() uint64 {
	return d.frames
}
