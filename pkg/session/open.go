package session

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/hashicorp/go-multierror"

	"github.com/mfld-dnx/dnx/pkg/protocol"
	"github.com/mfld-dnx/dnx/pkg/transport"
)

// OpenAny tries every candidate PID against protocol.IntelVID in turn,
// aggregating every failed attempt with multierror the way the teacher's
// App.New/App.NewAny aggregate failures across their device-descriptor
// list, rather than surfacing only the last error the way a single
// transport.OpenUSB call does.
func OpenAny(ctx *gousb.Context, pids []uint16) (transport.Transport, error) {
	var errs error
	for _, pid := range pids {
		tr, err := transport.OpenUSB(ctx, protocol.IntelVID, []uint16{pid})
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		return tr, nil
	}
	if errs == nil {
		return nil, fmt.Errorf("session: no device found for vid=%04x pids=%v", protocol.IntelVID, pids)
	}
	return nil, errs
}

// NewUSBOpenFunc adapts OpenAny into the OpenFunc signature Run calls on
// RESET re-enumeration, closing over the *gousb.Context a production
// caller already holds.
func NewUSBOpenFunc(ctx *gousb.Context) OpenFunc {
	return func(pids []uint16) (transport.Transport, error) {
		return OpenAny(ctx, pids)
	}
}
