package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/selector"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setup(); err != nil {
			return err
		}
		return runDevices(capture.PcapLister{}, cmd.OutOrStdout())
	},
}

func runDevices(lister capture.DeviceLister, out io.Writer) error {
	devices, err := lister.List()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found.")
		return core.ErrNoDevices
	}
	selector.RenderTable(out, devices)
	return nil
}
