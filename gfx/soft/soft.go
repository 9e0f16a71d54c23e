// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package soft is a software implementation of the gfx collaborators.
// Commands are recorded by a Renderer and rasterised on the CPU by
// Device.Submit.
package soft

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/koruhal/gfx"
)

// package errors
var (
	ErrForeignBuffer = errors.New("soft: command buffer was not recorded by a soft renderer")
	ErrNoTarget      = errors.New("soft: command has no target")
)

// Target is an Output with a back buffer the device can draw into.
type Target interface {
	gfx.Output
	BackBuffer() draw.Image
}

type opcode int

const (
	opClear opcode = iota
	opFillRect
	opBlit
)

type command struct {
	op     opcode
	target Target
	rect   image.Rectangle
	color  glm.Vec4
	image  image.Image
	at     image.Point
}

// CommandBuffer holds the commands of one frame.
type CommandBuffer struct {
	commands []command
}

// Len implements gfx.CommandBuffer.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.commands)
}

// RGBA converts a color with components in [0, 1] to 8-bit RGBA.
// Components out of range are clamped.
func RGBA(c glm.Vec4) color.RGBA {
	ch := func(v float32) uint8 {
		return uint8(glm.Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.RGBA{R: ch(c.X()), G: ch(c.Y()), B: ch(c.Z()), A: ch(c.W())}
}
