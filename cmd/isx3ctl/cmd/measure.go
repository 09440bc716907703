package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/session"
	"github.com/linjuya-lu/device-isx3-go/internal/storage"
)

var (
	measureRepeat    uint16
	measureTimestamp string
	measureRange     bool
)

// printSink 无进度条时每个采样打印一行；设置了进度条时只推进进度条，进度条画在 stderr 上
type printSink struct {
	freqs []float64
	bar   *progressbar.ProgressBar
}

func (p *printSink) HandleSample(_ context.Context, s protocol.MeasurementSample) error {
	if p.bar != nil {
		p.bar.Add(1)
		return nil
	}
	freq, _ := storage.FrequencyOf(p.freqs, s.PointID)
	phase := math.Atan2(float64(s.Imaginary), float64(s.Real)) * 180 / math.Pi
	line := fmt.Sprintf("%4d %12.3f Hz  |Z|=%-12.5g phase=%8.3f°  re=%-12.5g im=%-12.5g",
		s.PointID, freq, s.Magnitude(), phase, s.Real, s.Imaginary)
	if s.HasTimestamp {
		line += fmt.Sprintf(" t=%d", s.Timestamp)
	}
	if s.HasCurrentRange {
		line += fmt.Sprintf(" range=%d", s.CurrentRange)
	}
	fmt.Println(line)
	return nil
}

func (p *printSink) HandleError(err error) {
	fmt.Println(red("error: %v", err))
}

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "run a measurement",
	Long:  `Start a measurement with the configured sweep and print the samples. Ctrl-C stops a continuous measurement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		format := protocol.ReplyFormat{CurrentRange: measureRange}
		switch measureTimestamp {
		case "", "none":
		case "ms":
			format.Timestamp = protocol.TimestampMillis
		case "us":
			format.Timestamp = protocol.TimestampMicros
		default:
			return fmt.Errorf("unknown timestamp mode %q", measureTimestamp)
		}

		s, port, err := openSession(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer port.Close()
		ctx := cmd.Context()

		if err := s.SetReplyFormat(ctx, format); err != nil {
			return err
		}
		if err := s.Setup(ctx, cfg.Sweep); err != nil {
			return err
		}

		sink := &printSink{freqs: cfg.Sweep.Frequencies()}
		if measureRepeat > 0 && !debug {
			total := int(measureRepeat) * int(cfg.Sweep.Steps)
			sink.bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(30),
				progressbar.OptionSetDescription("[cyan]measuring[reset]"),
			)
		}

		res, err := s.Acquire(ctx, session.AcquireRequest{Repeat: measureRepeat}, sink)
		if sink.bar != nil {
			sink.bar.Finish()
			fmt.Println()
		}
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("%d samples in %v", res.Samples, res.Duration.Round(1e6))
		if res.Stopped {
			fmt.Println(yellow("stopped: %s", msg))
		} else {
			fmt.Println(green("%s", msg))
		}
		return nil
	},
}

func init() {
	f := measureCmd.Flags()
	f.Uint16VarP(&measureRepeat, "repeat", "r", 1, "number of spectra, 0 = continuous until ctrl-c")
	f.StringVarP(&measureTimestamp, "timestamp", "t", "none", "timestamp in replies: none, ms or us")
	f.BoolVar(&measureRange, "range", false, "report the current range of each point")
	rootCmd.AddCommand(measureCmd)
}
