package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mfld-dnx/dnx/pkg/payload"
	"github.com/mfld-dnx/dnx/pkg/protocol"
	"github.com/mfld-dnx/dnx/pkg/session"
)

var (
	flashOS          string
	flashOSPartition int
	flashIFWIWipe    bool
)

var flashCmd = &cobra.Command{
	Use:   "flash <firmware>",
	Short: "Flash a device currently sitting in DnX recovery mode",
	Long: `Drives a connected device through the DnX ROM->FW->OS bootstrap: opens the
device, runs the firmware download to completion, and -- if --os is given --
continues into the OS recovery image download after the device's RESET
re-enumeration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if prev, at, ok := session.ReadRecoveryMarker(); ok {
			slog.Warn("a previous flash did not complete cleanly", "state", prev, "at", at)
		}

		fw, err := loadFirmware(args[0])
		if err != nil {
			return fmt.Errorf("loading firmware: %w", err)
		}

		cfg := session.Config{FW: fw, IFWIWipe: flashIFWIWipe}
		if flashOS != "" {
			osImage, err := loadOsImage(flashOS)
			if err != nil {
				return fmt.Errorf("loading OS image: %w", err)
			}
			cfg.OS = osImage
			cfg.OSPartition = flashOSPartition
		}

		ctx, err := newContext()
		if err != nil {
			return fmt.Errorf("initializing USB: %w", err)
		}
		defer ctx.Close()

		tr, err := openROMStageTransport(ctx)
		if err != nil {
			return fmt.Errorf("opening device: %w", err)
		}

		sess := session.New(tr, session.NewUSBOpenFunc(ctx), cfg, session.ObserverFunc(logEvent))

		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return sess.Run(runCtx)
	},
}

func init() {
	flashCmd.Flags().StringVar(&flashOS, "os", "", "Path to an OS recovery image (dnx_osr.img) to flash after the firmware completes")
	flashCmd.Flags().IntVar(&flashOSPartition, "os-partition", 0, "OSIP partition index to serve on RIMG")
	flashCmd.Flags().BoolVar(&flashIFWIWipe, "ifwi-wipe", false, "Take the IFWI wipe-mode branch when the device sends DxxM")
}

// loadFirmware reads a dnx_fwr.bin image and parses it against each known
// FUPH variant in turn (D0, then C0, then the old Medfield 0x1C layout) and
// keeps the first that parses. The choice is made before any device is
// open and is not checked against the image's contents: NewFirmwarePayload
// accepts any of the three sizes for an image that passes its other checks,
// so the D0 size is the one used in practice.
func loadFirmware(path string) (*payload.FirmwarePayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, size := range []int{protocol.FuphHeaderSizeD0, protocol.FuphHeaderSizeC0, protocol.FuphHeaderSizeOldMFD} {
		fw, err := payload.NewFirmwarePayload(data, size)
		if err == nil {
			return fw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func loadOsImage(path string) (*payload.OsPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return payload.NewOsPayload(data)
}

func logEvent(e session.Event) {
	switch ev := e.(type) {
	case session.DeviceConnected:
		slog.Info("device connected", "vid", fmt.Sprintf("%04x", ev.VID))
	case session.DeviceDisconnected:
		slog.Info("device disconnected, waiting for re-enumeration")
	case session.StateChanged:
		slog.Info("state transition", "from", ev.From, "to", ev.To)
	case session.Progress:
		slog.Debug("progress", "phase", ev.Phase, "current", ev.Current, "total", ev.Total)
	case session.Log:
		slog.Debug(ev.Message)
	case session.Error:
		slog.Error("device error", "ack", ev.Code.String(), "message", ev.Message)
	case session.Complete:
		slog.Info("flash complete")
	}
}
