package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfld-dnx/dnx/pkg/analyzer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Statically inspect a dnx_fwr.bin, dnx_osr.img or IFWI image",
	Long: `Scans a firmware or OS recovery image on disk for its magic markers, RSA
signature region, Chaabi bounds and embedded component versions, without
needing a connected device.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyzer.Analyze(args[0])
		if err != nil {
			return err
		}
		fmt.Print(a.Report())
		if !a.IsValid() {
			return fmt.Errorf("analyze: %s", a.ValidationSummary())
		}
		return nil
	},
}
