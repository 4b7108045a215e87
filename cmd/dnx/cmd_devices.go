package main

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected DnX-capable devices",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext()
		if err != nil {
			return fmt.Errorf("initializing USB: %w", err)
		}
		defer ctx.Close()

		found := false
		for _, pid := range protocol.ROMStagePIDs {
			dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(protocol.IntelVID), gousb.ID(pid))
			if err != nil || dev == nil {
				continue
			}
			found = true
			fmt.Printf("%04x:%04x  bus=%d addr=%d\n", protocol.IntelVID, pid, dev.Desc.Bus, dev.Desc.Address)
			dev.Close()
		}
		if !found {
			fmt.Println("no DnX devices found")
		}
		return nil
	},
}
