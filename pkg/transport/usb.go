package transport

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// USBTransport is the production Transport, backed by a claimed bulk
// IN/OUT endpoint pair on a gousb.Device. Construction and endpoint
// claiming mirror the teacher's App.prepareUSB/UseDiskInterface: grab the
// active config, the first interface, and whichever endpoints declare
// themselves IN/OUT.
type USBTransport struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	vid    gousb.ID
	pid    gousb.ID
	readTO time.Duration
}

// OpenUSB opens the first device matching vid and any of pids, claims its
// default interface, and locates its bulk endpoints.
func OpenUSB(ctx *gousb.Context, vid uint16, pids []uint16) (*USBTransport, error) {
	var lastErr error
	for _, pid := range pids {
		dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
		if err != nil {
			lastErr = err
			continue
		}
		if dev == nil {
			continue
		}
		return newUSBTransport(ctx, dev, gousb.ID(vid), gousb.ID(pid))
	}
	if lastErr != nil {
		return nil, fmt.Errorf("transport: opening usb device: %w", lastErr)
	}
	return nil, fmt.Errorf("transport: no device found for vid=%04x pids=%v", vid, pids)
}

func newUSBTransport(ctx *gousb.Context, dev *gousb.Device, vid, pid gousb.ID) (*USBTransport, error) {
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("transport: active config: %w", err)
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("transport: claim config: %w", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: claim interface: %w", err)
	}

	t := &USBTransport{
		ctx:    ctx,
		dev:    dev,
		vid:    vid,
		pid:    pid,
		readTO: DefaultReadTimeout,
	}

	eps := dev.Desc.Configs[cfg.Desc.Number].Interfaces[0].AltSettings[0].Endpoints
	for _, ep := range eps {
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			t.in, err = intf.InEndpoint(ep.Number)
		case gousb.EndpointDirectionOut:
			t.out, err = intf.OutEndpoint(ep.Number)
		}
		if err != nil {
			return nil, fmt.Errorf("transport: claim endpoint %d: %w", ep.Number, err)
		}
	}
	if t.in == nil || t.out == nil {
		return nil, fmt.Errorf("transport: device did not expose both bulk endpoints")
	}
	glog.V(1).Infof("transport: opened vid=%04x pid=%04x", vid, pid)
	return t, nil
}

// SetReadTimeout overrides the per-Read deadline.
func (t *USBTransport) SetReadTimeout(d time.Duration) {
	t.readTO = d
}

// Write retries partial writes until every byte has been handed to the
// kernel, the same loop shape as the teacher's dfu.SendImage chunk loop.
func (t *USBTransport) Write(data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := t.out.Write(data[total:])
		if err != nil {
			if err == gousb.ErrorTimeout {
				return total, ErrTimeout
			}
			return total, fmt.Errorf("%w: %v", ErrIO, err)
		}
		total += n
	}
	return total, nil
}

// Read blocks until exactly n bytes have arrived or the read timeout
// elapses.
func (t *USBTransport) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(t.readTO)
	for got < n {
		if time.Now().After(deadline) {
			return buf[:got], ErrTimeout
		}
		m, err := t.in.Read(buf[got:])
		if err != nil {
			if err == gousb.ErrorTimeout {
				return buf[:got], ErrTimeout
			}
			if err == gousb.ErrorNoDevice {
				return buf[:got], ErrDisconnected
			}
			return buf[:got], fmt.Errorf("%w: %v", ErrIO, err)
		}
		got += m
	}
	return buf, nil
}

// ReadAck decodes one variable-length ACK off the bulk IN endpoint.
func (t *USBTransport) ReadAck() (protocol.AckCode, error) {
	return readAck(t.Read)
}

// IsConnected is a best-effort liveness probe: it asks the device for its
// active config number, which fails immediately once the device handle is
// stale.
func (t *USBTransport) IsConnected() bool {
	_, err := t.dev.ActiveConfigNum()
	return err == nil
}

// Close releases the device handle. Like the teacher's disk-interface path
// (App.UseDiskInterface), this doesn't separately close the claimed config
// or interface -- closing the device releases both.
func (t *USBTransport) Close() error {
	if t.dev != nil {
		return t.dev.Close()
	}
	return nil
}
