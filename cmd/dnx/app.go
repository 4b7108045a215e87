package main

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/mfld-dnx/dnx/pkg/protocol"
	"github.com/mfld-dnx/dnx/pkg/session"
	"github.com/mfld-dnx/dnx/pkg/transport"
)

// newContext constructs a *gousb.Context off the main goroutine and
// recovers any panic libusb initialization raises (missing/unreadable
// udev rules surface this way on Linux), turning it into a plain error
// the way the teacher's own newContext does.
func newContext() (*gousb.Context, error) {
	resC := make(chan *gousb.Context)
	errC := make(chan error)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errC <- fmt.Errorf("%v", r)
			}
		}()
		resC <- gousb.NewContext()
	}()

	select {
	case err := <-errC:
		return nil, err
	case ctx := <-resC:
		return ctx, nil
	}
}

// openROMStageTransport opens the first connected DnX device found under
// any known ROM-stage PID.
func openROMStageTransport(ctx *gousb.Context) (transport.Transport, error) {
	return session.OpenAny(ctx, protocol.ROMStagePIDs)
}
