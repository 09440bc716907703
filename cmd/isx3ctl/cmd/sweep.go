package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

var (
	sweepStart     float32
	sweepStop      float32
	sweepSteps     uint32
	sweepLog       bool
	sweepPrecision float32
	sweepAmplitude float32
	sweepCurrent   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "configure a frequency sweep",
	Long:  `Replace the device setup with a frequency list and print the configured frequencies`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sw := cfg.Sweep
		flags := cmd.Flags()
		if flags.Changed("start") {
			sw.StartFreq = sweepStart
		}
		if flags.Changed("stop") {
			sw.StopFreq = sweepStop
		}
		if flags.Changed("steps") {
			sw.Steps = sweepSteps
		}
		if flags.Changed("log") {
			sw.Scale = protocol.ScaleLinear
			if sweepLog {
				sw.Scale = protocol.ScaleLogarithmic
			}
		}
		if flags.Changed("precision") {
			sw.Precision = sweepPrecision
		}
		if flags.Changed("amplitude") {
			sw.Amplitude = sweepAmplitude
		}
		if flags.Changed("current") {
			sw.Excitation = protocol.ExcitationVoltage
			if sweepCurrent {
				sw.Excitation = protocol.ExcitationCurrent
			}
		}
		if err := sw.Validate(); err != nil {
			return err
		}

		s, port, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		ctx := cmd.Context()

		if err := s.Setup(ctx, sw); err != nil {
			return err
		}
		freqs, err := s.GetFrequencyList(ctx)
		if err != nil {
			return err
		}
		for i, f := range freqs {
			fmt.Printf("%4d %12.3f Hz\n", i+1, f)
		}
		fmt.Println(green("%d points configured", len(freqs)))
		return nil
	},
}

func init() {
	f := sweepCmd.Flags()
	f.Float32Var(&sweepStart, "start", 100, "start frequency in Hz")
	f.Float32Var(&sweepStop, "stop", 1e6, "stop frequency in Hz")
	f.Uint32Var(&sweepSteps, "steps", 50, "number of points")
	f.BoolVar(&sweepLog, "log", true, "logarithmic spacing")
	f.Float32Var(&sweepPrecision, "precision", 1, "precision")
	f.Float32Var(&sweepAmplitude, "amplitude", 0.01, "excitation amplitude in V or A")
	f.BoolVar(&sweepCurrent, "current", false, "current excitation instead of voltage")
	rootCmd.AddCommand(sweepCmd)
}
