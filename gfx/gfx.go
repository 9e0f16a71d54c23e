// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the collaborators a frame is made of and the Canvas
// that sequences them.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// CommandBuffer is a recorded list of drawing commands.
type CommandBuffer interface {

	// Len returns the number of recorded commands.
	Len() int
}

// Renderer records drawing commands for the current frame.
type Renderer interface {

	// Buffer returns the commands recorded since the last Reset.
	Buffer() CommandBuffer

	// Reset discards recorded commands, making
	// the renderer ready to record a new frame.
	Reset()
}

// Device executes recorded commands.
type Device interface {

	// Submit hands the command buffer over for execution.
	Submit(CommandBuffer) error

	// AfterFrame marks the frame boundary. Resources referenced
	// by submitted work may be recycled after it returns.
	AfterFrame()
}

// Factory creates renderers and the transient resources they use.
type Factory interface {

	// CreateRenderer creates a renderer bound to this factory.
	CreateRenderer() Renderer

	// Cleanup reclaims the transient resources of the finished frame.
	Cleanup()
}

// Output is a surface that is drawn on.
type Output interface {
	Size() (width, height int)
}

// Window is an Output that is shown by swapping buffers.
type Window interface {
	Output

	// SwapBuffers presents the back buffer. It may block
	// until the display is ready, e.g. on vertical sync.
	SwapBuffers() error
}

// Stream gives upstream code the renderer and output
// to record the next frame against.
type Stream interface {
	Output() Output
	Access() (Renderer, Output)
}
