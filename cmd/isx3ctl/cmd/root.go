package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	goserial "go.bug.st/serial"

	"github.com/linjuya-lu/device-isx3-go/internal/config"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
	"github.com/linjuya-lu/device-isx3-go/internal/session"
)

var rootCmd = &cobra.Command{
	Use:          "isx3ctl",
	Short:        "Sciospec ISX-3 bench tool",
	Long:         `Query, configure and measure an ISX-3 impedance analyzer over its serial port`,
	SilenceUsage: true,
}

// Execute 执行根命令并返回进程退出码
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

var (
	comPort    string
	baudRate   int
	debug      bool
	configFile string
)

var (
	cyan   = color.New(color.FgCyan).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgHiYellow).SprintfFunc()
)

var errNoPort = errors.New("no port selected")

func init() {
	log.SetFlags(0)
	rootCmd.PersistentFlags().StringVarP(&comPort, "port", "p", "*", "com-port, * = print available")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baudrate", "b", serial.DefaultBaudRate, "baudrate")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug mode, log every frame")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "driver config file for idle policy and sweep defaults")
}

// loadConfig 指定了配置文件时加载该文件，否则返回默认配置
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.GetDefaultConfig(), nil
	}
	return config.LoadConfig(configFile)
}

func openSession(ctx context.Context, cfg *config.Config) (*session.Session, goserial.Port, error) {
	if comPort == "*" || comPort == "" {
		ports, err := serial.ListPorts()
		if err != nil {
			return nil, nil, err
		}
		fmt.Println("available ports:")
		for _, p := range ports {
			fmt.Println("  " + p)
		}
		return nil, nil, errNoPort
	}

	sc := cfg.Serial
	sc.Port, sc.BaudRate = comPort, baudRate
	port, err := serial.Open(ctx, sc)
	if err != nil {
		return nil, nil, err
	}

	level := models.InfoLog
	if debug {
		level = models.TraceLog
	}
	s := session.New(port,
		session.WithLogger(logger.NewClient("isx3ctl", level)),
		session.WithIdleOptions(cfg.Idle),
		session.WithReplyPolls(cfg.ReplyPolls),
	)
	return s, port, nil
}
