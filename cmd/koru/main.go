// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command koru bootstraps a graphics backend, lists its devices
// and drives the frame cycle.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"

	log "github.com/sirupsen/logrus"
)

func init() {
	// SDL and most native drivers want to be called from the main thread.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
