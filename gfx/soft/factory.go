// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft

import (
	"image"
	"image/draw"

	"github.com/devblok/koruhal/gfx"
)

// Image is a transient RGBA image owned by a Factory.
type Image struct {
	*image.RGBA
}

// Release implements gfx.Releasable.
func (i *Image) Release() {
	i.Pix = nil
	i.Rect = image.Rectangle{}
}

// Size implements gfx.Output.
func (i *Image) Size() (int, int) {
	s := i.Rect.Size()
	return s.X, s.Y
}

// BackBuffer implements Target, so transient images can be drawn into.
func (i *Image) BackBuffer() draw.Image {
	return i.RGBA
}

// Factory creates renderers and frame scoped images.
type Factory struct {
	transient []gfx.Releasable
}

// NewFactory creates a factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateRenderer implements gfx.Factory.
func (f *Factory) CreateRenderer() gfx.Renderer {
	return &Renderer{factory: f, buffer: &CommandBuffer{}}
}

// NewTransientImage creates an image that lives until the next Cleanup.
func (f *Factory) NewTransientImage(width, height int) *Image {
	img := &Image{RGBA: image.NewRGBA(image.Rect(0, 0, width, height))}
	f.transient = append(f.transient, img)
	return img
}

// Transient returns the number of live transient resources.
func (f *Factory) Transient() int {
	return len(f.transient)
}

// Cleanup implements gfx.Factory.
func (f *Factory) Cleanup() {
	for _, r := range f.transient {
		r.Release()
	}
	f.transient = f.transient[:0]
}
