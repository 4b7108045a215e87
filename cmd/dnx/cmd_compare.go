package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfld-dnx/dnx/pkg/analyzer"
)

var compareCmd = &cobra.Command{
	Use:   "compare <file1> <file2>",
	Short: "Byte-diff two firmware or OS recovery images",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := analyzer.Compare(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Print(c.Report())
		return nil
	},
}
