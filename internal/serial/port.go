// Package serial 提供 ISX-3 串口的打开与按空闲超时读取功能。
package serial

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	goserial "go.bug.st/serial"
)

// 默认串口参数：9600 8N1，读超时 1 秒
const (
	DefaultBaudRate     = 9600
	DefaultReadTimeout  = time.Second
	DefaultOpenAttempts = 3
	DefaultOpenDelay    = 500 * time.Millisecond
)

// Config 串口配置
type Config struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baudRate"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	OpenAttempts uint          `yaml:"openAttempts"`
	OpenDelay    time.Duration `yaml:"openDelay"`
}

// withDefaults 为未设置的字段填入默认值
func (c Config) withDefaults() Config {
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.OpenAttempts == 0 {
		c.OpenAttempts = DefaultOpenAttempts
	}
	if c.OpenDelay <= 0 {
		c.OpenDelay = DefaultOpenDelay
	}
	return c
}

// Open 以 8N1 打开串口并设置读超时。
// 读超时即空闲窗口：超时后 Read 返回 (0, nil)，ReadUntilIdle 以此判断设备不再发送数据。
// 打开失败时按 OpenAttempts 重试，ctx 取消则立即放弃。
func Open(ctx context.Context, cfg Config) (goserial.Port, error) {
	cfg = cfg.withDefaults()
	if cfg.Port == "" {
		return nil, fmt.Errorf("串口名称为空")
	}
	mode := &goserial.Mode{
		BaudRate: cfg.BaudRate,
		Parity:   goserial.NoParity,
		DataBits: 8,
		StopBits: goserial.OneStopBit,
	}

	var port goserial.Port
	err := retry.Do(func() error {
		p, err := goserial.Open(cfg.Port, mode)
		if err != nil {
			return err
		}
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			p.Close()
			return err
		}
		port = p
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(cfg.OpenAttempts),
		retry.Delay(cfg.OpenDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("打开串口 %q 失败: %w", cfg.Port, err)
	}
	return port, nil
}

// ListPorts 返回系统中可用的串口名称
func ListPorts() ([]string, error) {
	return goserial.GetPortsList()
}
