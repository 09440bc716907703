package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
	"github.com/linjuya-lu/device-isx3-go/internal/storage"
)

// Config 为驱动服务的配置文件
type Config struct {
	// DeviceName 为 EdgeX 中的设备名；为空时按设备序列号在映射表中查找
	DeviceName  string                      `yaml:"deviceName"`
	Serial      serial.Config               `yaml:"serial"`
	Idle        serial.IdleOptions          `yaml:"idle"`
	ReplyPolls  int                         `yaml:"replyPolls"`
	ReplyFormat protocol.ReplyFormat        `yaml:"replyFormat"`
	Sweep       protocol.FrequencySweepSpec `yaml:"sweep"`
	// FrontEnd 与 SyncTimeUs 为空时保持设备当前设置
	FrontEnd    *protocol.FrontEndSettings `yaml:"frontEnd"`
	SyncTimeUs  *uint32                    `yaml:"syncTimeUs"`
	Acquisition AcquisitionConfig          `yaml:"acquisition"`
	Redis       storage.Options            `yaml:"redis"`
	Monitor     MonitorConfig              `yaml:"monitor"`
	Resources   ResourcesConfig            `yaml:"resources"`
	// Devices 为序列号到设备名的映射
	Devices map[string]string `yaml:"devices"`
}

type AcquisitionConfig struct {
	// Repeat 为测量的频谱数，0 表示连续测量
	Repeat uint16 `yaml:"repeat"`
	// AutoStart 为 true 时服务启动后立即开始测量
	AutoStart bool `yaml:"autoStart"`
	// BufferSize 为测量点通道的缓冲长度
	BufferSize int `yaml:"bufferSize"`
	// StopTimeout 为停止测量时等待设备确认的最长时间
	StopTimeout time.Duration `yaml:"stopTimeout"`
}

type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ResourcesConfig struct {
	DevicesFile string `yaml:"devicesFile"`
	ProfilesDir string `yaml:"profilesDir"`
}

// LoadConfig 加载配置文件，未填写的字段使用默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// GetDefaultConfig 返回默认配置
func GetDefaultConfig() *Config {
	return &Config{
		Serial: serial.Config{
			Port:         "/dev/ttyACM0",
			BaudRate:     serial.DefaultBaudRate,
			ReadTimeout:  serial.DefaultReadTimeout,
			OpenAttempts: serial.DefaultOpenAttempts,
			OpenDelay:    serial.DefaultOpenDelay,
		},
		Idle: serial.IdleOptions{
			IdleThreshold: serial.DefaultIdleThreshold,
			MaxBurst:      serial.DefaultMaxBurst,
		},
		ReplyPolls: 3,
		Sweep: protocol.FrequencySweepSpec{
			StartFreq:  100,
			StopFreq:   1_000_000,
			Steps:      50,
			Scale:      protocol.ScaleLogarithmic,
			Precision:  1,
			Amplitude:  0.01,
			Excitation: protocol.ExcitationVoltage,
		},
		Acquisition: AcquisitionConfig{
			BufferSize:  256,
			StopTimeout: 10 * time.Second,
		},
		Redis: storage.Options{
			Addr:     "localhost:6379",
			PoolSize: 10,
			Channel:  storage.DefaultChannel,
			MaxLen:   storage.DefaultMaxLen,
		},
		Monitor: MonitorConfig{
			Enabled: true,
			Addr:    ":9102",
		},
		Resources: ResourcesConfig{
			DevicesFile: "./res/devices/devices.yaml",
			ProfilesDir: "./res/profiles",
		},
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port 不能为空")
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	if c.ReplyFormat.Timestamp > protocol.TimestampMicros {
		return fmt.Errorf("replyFormat.timestamp 无效: %d", c.ReplyFormat.Timestamp)
	}
	if c.SyncTimeUs != nil && *c.SyncTimeUs > protocol.MaxSyncTime {
		return fmt.Errorf("syncTimeUs %d 超过最大值 %d", *c.SyncTimeUs, protocol.MaxSyncTime)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("启用 redis 时 redis.addr 不能为空")
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return fmt.Errorf("启用 monitor 时 monitor.addr 不能为空")
	}
	return nil
}
