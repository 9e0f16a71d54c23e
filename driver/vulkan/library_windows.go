// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vulkan

import (
	"unsafe"

	"github.com/devblok/koruhal/core"
	"golang.org/x/sys/windows"
)

type nativeLibrary struct {
	name   string
	handle windows.Handle
}

func openNative(name string) (core.Library, error) {
	handle, err := windows.LoadLibrary(name)
	if err != nil {
		return nil, err
	}
	return &nativeLibrary{name: name, handle: handle}, nil
}

func (l *nativeLibrary) Name() string {
	return l.name
}

func (l *nativeLibrary) Symbol(name string) (unsafe.Pointer, error) {
	if l.handle == 0 {
		return nil, errLibraryClosed
	}
	proc, err := windows.GetProcAddress(l.handle, name)
	if err != nil {
		return nil, core.ErrSymbolNotFound
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&proc)), nil
}

func (l *nativeLibrary) Close() error {
	if l.handle == 0 {
		return errLibraryClosed
	}
	if err := windows.FreeLibrary(l.handle); err != nil {
		return err
	}
	l.handle = 0
	return nil
}
