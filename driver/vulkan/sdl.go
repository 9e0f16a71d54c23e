// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vulkan

import (
	"errors"
	"unsafe"

	"github.com/devblok/koruhal/core"
	"github.com/veandco/go-sdl2/sdl"
)

// SDLDriverName is the name of the driver loading through SDL.
const SDLDriverName = "vulkan-sdl"

var errLibraryClosed = errors.New("vulkan: library already closed")

// NewSDL returns a driver that lets SDL locate and load the Vulkan loader.
// The SDL video subsystem must be initialised before Create.
func NewSDL() *Driver {
	return &Driver{
		name:    SDLDriverName,
		library: DefaultLibraryName(),
		open:    openSDL,
	}
}

type sdlLibrary struct {
	name   string
	closed bool
}

func openSDL(name string) (core.Library, error) {
	// An empty path makes SDL search its default locations.
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return nil, err
	}
	return &sdlLibrary{name: name}, nil
}

func (l *sdlLibrary) Name() string {
	return l.name
}

func (l *sdlLibrary) Symbol(name string) (unsafe.Pointer, error) {
	if l.closed {
		return nil, errLibraryClosed
	}
	if name != EntryPointName {
		return nil, core.ErrSymbolNotFound
	}
	return sdl.VulkanGetVkGetInstanceProcAddr(), nil
}

func (l *sdlLibrary) Close() error {
	if l.closed {
		return errLibraryClosed
	}
	sdl.VulkanUnloadLibrary()
	l.closed = true
	return nil
}
