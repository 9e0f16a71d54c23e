// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !windows
// +build !windows

package vulkan

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/devblok/koruhal/core"
)

// dlerror state is per thread in most libcs, but not in all of them.
var dlMu sync.Mutex

type nativeLibrary struct {
	name   string
	handle unsafe.Pointer
}

func openNative(name string) (core.Library, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	dlMu.Lock()
	defer dlMu.Unlock()
	handle := C.dlopen(cname, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, dlError("dlopen failed")
	}
	return &nativeLibrary{name: name, handle: handle}, nil
}

func (l *nativeLibrary) Name() string {
	return l.name
}

func (l *nativeLibrary) Symbol(name string) (unsafe.Pointer, error) {
	if l.handle == nil {
		return nil, errLibraryClosed
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	dlMu.Lock()
	defer dlMu.Unlock()
	C.dlerror()
	sym := C.dlsym(l.handle, cname)
	if sym == nil {
		return nil, core.ErrSymbolNotFound
	}
	return sym, nil
}

func (l *nativeLibrary) Close() error {
	if l.handle == nil {
		return errLibraryClosed
	}
	dlMu.Lock()
	defer dlMu.Unlock()
	if C.dlclose(l.handle) != 0 {
		return dlError("dlclose failed")
	}
	l.handle = nil
	return nil
}

// dlError must be called with dlMu held.
func dlError(fallback string) error {
	if msg := C.dlerror(); msg != nil {
		return errors.New(C.GoString(msg))
	}
	return errors.New(fallback)
}
