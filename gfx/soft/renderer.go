// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft

import (
	"image"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koruhal/gfx"
)

// Renderer records drawing commands.
type Renderer struct {
	factory *Factory
	buffer  *CommandBuffer
}

// Clear fills the whole target with c.
func (r *Renderer) Clear(t Target, c glm.Vec4) {
	r.record(command{op: opClear, target: t, color: c})
}

// FillRect blends c over rect.
func (r *Renderer) FillRect(t Target, rect image.Rectangle, c glm.Vec4) {
	r.record(command{op: opFillRect, target: t, rect: rect, color: c})
}

// Blit draws img over the target with its top left corner at at.
func (r *Renderer) Blit(t Target, img image.Image, at image.Point) {
	r.record(command{op: opBlit, target: t, image: img, at: at})
}

func (r *Renderer) record(cmd command) {
	r.buffer.commands = append(r.buffer.commands, cmd)
}

// Buffer implements gfx.Renderer.
func (r *Renderer) Buffer() gfx.CommandBuffer {
	return r.buffer
}

// Reset implements gfx.Renderer. The previous buffer is left intact,
// it may still be in flight.
func (r *Renderer) Reset() {
	r.buffer = &CommandBuffer{}
}

// Factory returns the factory that created the renderer.
func (r *Renderer) Factory() *Factory {
	return r.factory
}
