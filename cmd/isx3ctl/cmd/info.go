package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "print device info",
	Long:  `Print identity, firmware versions and the current front-end and sweep settings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, port, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		ctx := cmd.Context()

		id, err := s.GetDeviceID(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %s\n", "serial", cyan(id.Serial()))
		fmt.Printf("%-14s %d-%02d\n", "delivered", id.DeliveryYear(), id.DeliveryMonth)

		if fw, err := s.GetARMFirmwareID(ctx); err == nil {
			fmt.Printf("%-14s %s\n", "arm firmware", fw)
		} else {
			fmt.Printf("%-14s %s\n", "arm firmware", red("%v", err))
		}
		if fw, err := s.GetFPGAFirmwareID(ctx); err == nil {
			fmt.Printf("%-14s %s\n", "fpga firmware", fw)
		} else {
			fmt.Printf("%-14s %s\n", "fpga firmware", red("%v", err))
		}
		if fe, err := s.GetFrontEnd(ctx); err == nil {
			fmt.Printf("%-14s mode=%d channel=%d range=%d\n", "front end", fe.Mode, fe.Channel, fe.Range)
		}
		if m, err := s.GetExtensionPortModule(ctx); err == nil {
			fmt.Printf("%-14s external=0x%02X internal=0x%02X\n", "modules", m.External, m.Internal)
		}
		if us, err := s.GetSyncTime(ctx); err == nil {
			fmt.Printf("%-14s %d us\n", "sync time", us)
		}
		if n, err := s.GetFrequencyCount(ctx); err == nil {
			fmt.Printf("%-14s %d\n", "points", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
