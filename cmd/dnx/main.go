// Command dnx drives Intel DnX-capable SoCs (Medfield/Clovertrail/
// Merrifield/Moorefield) through the ROM->FW->OS recovery protocol, and
// performs offline static analysis of the firmware/OS images involved.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfld-dnx/dnx/pkg/payload"
	"github.com/mfld-dnx/dnx/pkg/state"
	"github.com/mfld-dnx/dnx/pkg/transport"
)

var rootCmd = &cobra.Command{
	Use:   "dnx",
	Short: "dnx drives Intel DnX recovery mode to flash Medfield/Merrifield/Moorefield firmware",
	Long: `dnx speaks Intel's USB Download-and-eXecute (DnX) recovery protocol used to
bootstrap Medfield/Clovertrail/Merrifield/Moorefield mobile SoCs out of a dead
or unprovisioned state, plus offline static analysis of the firmware and OS
recovery images it flashes.`,
	SilenceUsage: true,
}

var verboseLog bool

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	rootCmd.PersistentFlags().BoolVarP(&verboseLog, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verboseLog {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(flashCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(devicesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode classifies a command's returned error per the error families
// each pkg assigns its own sentinel: a protocol-layer abort (the device's
// own state machine rejected something), a transport failure (USB I/O), or
// a payload defect (a malformed firmware/OS file) each get a distinct
// non-zero code so scripts driving `dnx flash` can tell them apart without
// parsing output text.
func exitCode(err error) int {
	var pv *state.ProtocolViolationError
	var de *state.DeviceError
	switch {
	case errors.As(err, &pv), errors.As(err, &de):
		return 1
	case errors.Is(err, transport.ErrIO), errors.Is(err, transport.ErrTimeout), errors.Is(err, transport.ErrDisconnected):
		return 2
	case errors.Is(err, payload.ErrInvalidFirmware), errors.Is(err, payload.ErrInvalidOsImage), errors.Is(err, payload.ErrChecksumMismatch):
		return 3
	default:
		return 1
	}
}
