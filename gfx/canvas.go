// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Frame steps that may fail.
const (
	StepSubmit = "submit"
	StepSwap   = "swap"
)

// ErrPresentInProgress is returned when Present is called
// before a previous call returned.
var ErrPresentInProgress = errors.New("canvas: present already in progress")

// FrameError is a failure of one step of Present.
type FrameError struct {
	Step string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("canvas: %s: %s", e.Step, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Canvas composes a window, a device and a factory into the frame cycle.
// The renderer is created by the factory and owned by the Canvas.
type Canvas struct {
	// frames is first to keep it 64-bit aligned for atomic access.
	frames uint64

	output   Window
	device   Device
	factory  Factory
	renderer Renderer

	presenting int32
}

// NewCanvas creates a canvas. The factory creates the renderer once.
func NewCanvas(output Window, device Device, factory Factory) *Canvas {
	return &Canvas{
		output:   output,
		device:   device,
		factory:  factory,
		renderer: factory.CreateRenderer(),
	}
}

// Present finishes the recorded frame: the commands are submitted, the
// buffers swapped, the device and the factory reclaim the frame's resources
// and the renderer is reset, in that order.
//
// If submitting or swapping fails the remaining steps are skipped, the
// renderer is still reset and a *FrameError is returned.
func (c *Canvas) Present() error {
	if !atomic.CompareAndSwapInt32(&c.presenting, 0, 1) {
		return ErrPresentInProgress
	}
	defer atomic.StoreInt32(&c.presenting, 0)

	if err := c.device.Submit(c.renderer.Buffer()); err != nil {
		c.renderer.Reset()
		return &FrameError{Step: StepSubmit, Err: err}
	}
	if err := c.output.SwapBuffers(); err != nil {
		c.renderer.Reset()
		return &FrameError{Step: StepSwap, Err: err}
	}
	c.device.AfterFrame()
	c.factory.Cleanup()
	c.renderer.Reset()

	atomic.AddUint64(&c.frames, 1)
	return nil
}

// Output implements Stream.
func (c *Canvas) Output() Output {
	return c.output
}

// Access implements Stream.
func (c *Canvas) Access() (Renderer, Output) {
	return c.renderer, c.output
}

// Device returns the device frames are submitted to.
func (c *Canvas) Device() Device {
	return c.device
}

// Factory returns the factory of the renderer.
func (c *Canvas) Factory() Factory {
	return c.factory
}

// Frames returns the number of frames presented successfully.
func (c *Canvas) Frames() uint64 {
	return atomic.LoadUint64(&c.frames)
}
