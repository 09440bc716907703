package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Scale 频率列表的间隔方式
type Scale byte

const (
	ScaleLinear      Scale = 0
	ScaleLogarithmic Scale = 1
)

// Excitation 频点的激励类型
type Excitation uint32

const (
	ExcitationVoltage Excitation = 1
	ExcitationCurrent Excitation = 2
)

// MaxSteps 为 float32 能精确表示的最大频点数
const MaxSteps = 1 << 24

// FrequencySweepSpec 描述添加到设备配置中的频率列表
type FrequencySweepSpec struct {
	// StartFreq 起始频率 (Hz)
	StartFreq float32 `yaml:"startFreq"`

	// StopFreq 终止频率 (Hz)
	StopFreq float32 `yaml:"stopFreq"`

	// Steps 频点数 (>= 1)
	Steps uint32 `yaml:"steps"`

	// Scale 线性或对数间隔
	Scale Scale `yaml:"scale"`

	// Precision 精度，越高测量越慢
	Precision float32 `yaml:"precision"`

	// Amplitude 激励幅值 (V 或 A)
	Amplitude float32 `yaml:"amplitude"`

	// Excitation 电压或电流激励
	Excitation Excitation `yaml:"excitation"`

	// PointDelayUs 每个频点前的稳定延时 (µs)
	PointDelayUs uint32 `yaml:"pointDelayUs"`

	// PhaseSync 启用相位同步
	PhaseSync bool `yaml:"phaseSync"`
}

// Validate 在编码前检查扫频参数
func (s FrequencySweepSpec) Validate() error {
	const op = "validate sweep"
	if s.Steps < 1 {
		return newError(ErrPayloadOutOfRange, op, "steps must be >= 1")
	}
	if s.Steps > MaxSteps {
		return newError(ErrPayloadOutOfRange, op, "steps %d exceeds %d", s.Steps, MaxSteps)
	}
	switch s.Scale {
	case ScaleLinear:
	case ScaleLogarithmic:
		if s.StartFreq <= 0 || s.StopFreq <= 0 || s.StartFreq > s.StopFreq {
			return newError(ErrPayloadOutOfRange, op,
				"logarithmic scale requires 0 < start <= stop, got %g..%g", s.StartFreq, s.StopFreq)
		}
	default:
		return newError(ErrPayloadOutOfRange, op, "unknown scale %d", s.Scale)
	}
	switch s.Excitation {
	case ExcitationVoltage, ExcitationCurrent:
	default:
		return newError(ErrPayloadOutOfRange, op, "unknown excitation type %d", s.Excitation)
	}
	return nil
}

// Frequencies 返回设备按该扫频测量的频率网格，下标为频点 ID - 1
func (s FrequencySweepSpec) Frequencies() []float64 {
	if s.Steps == 0 {
		return nil
	}
	out := make([]float64, s.Steps)
	start, stop := float64(s.StartFreq), float64(s.StopFreq)
	if s.Steps == 1 {
		out[0] = start
		return out
	}
	n := float64(s.Steps - 1)
	for i := range out {
		if s.Scale == ScaleLogarithmic {
			out[i] = start * math.Pow(stop/start, float64(i)/n)
		} else {
			out[i] = start + (stop-start)*float64(i)/n
		}
	}
	return out
}

// DeviceIdentity 为 GetDeviceID 应答中的通用信息块
type DeviceIdentity struct {
	InfoVersion        uint8
	DeviceID           uint16
	SerialNumber       uint16
	DeliveryYearOffset uint8
	DeliveryMonth      uint8
}

// DeliveryYear 返回出厂年份
func (d DeviceIdentity) DeliveryYear() int {
	return DeliveryBaseYear + int(d.DeliveryYearOffset)
}

func (d DeviceIdentity) bytes() []byte {
	b := make([]byte, 0, DeviceIDInfoSize)
	b = append(b, d.InfoVersion)
	b = binary.BigEndian.AppendUint16(b, d.DeviceID)
	b = binary.BigEndian.AppendUint16(b, d.SerialNumber)
	return append(b, d.DeliveryYearOffset, d.DeliveryMonth)
}

// Serial 按设备铭牌上的格式输出序列号：
// 十六进制数字先反转，每四位一组用 '-' 连接，再整体反转，
// 因此分组从最后一位开始
func (d DeviceIdentity) Serial() string {
	digits := []rune(fmt.Sprintf("%X", d.bytes()))
	reverseRunes(digits)
	groups := make([]string, 0, len(digits)/4+1)
	for i := 0; i < len(digits); i += 4 {
		end := i + 4
		if end > len(digits) {
			end = len(digits)
		}
		groups = append(groups, string(digits[i:end]))
	}
	out := []rune(strings.Join(groups, "-"))
	reverseRunes(out)
	return string(out)
}

func reverseRunes(r []rune) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// FirmwareID 为 ARM/FPGA 固件 ID 命令的应答
type FirmwareID struct {
	// Developer 内部开发信息 (5 字节)
	Developer [5]byte

	// Revision 固件修订号
	Revision uint16

	// Build 固件构建号
	Build uint16
}

func (f FirmwareID) String() string {
	return fmt.Sprintf("%d.%d", f.Revision, f.Build)
}

// FreqPoint 为配置中的单个频点
type FreqPoint struct {
	Frequency float32
	Precision float32
	Amplitude float32
}

// 前端测量模式
const (
	Mode2Point = 0x01
	Mode4Point = 0x02
	Mode3Point = 0x03
)

// 前端通道
const (
	ChannelBNC            = 0x01
	ChannelExtensionPort  = 0x02
	ChannelExtensionPort2 = 0x03
)

// 电流量程
const (
	RangeAuto  = 0x00
	Range10mA  = 0x01
	Range100uA = 0x02
	Range1uA   = 0x04
	Range10nA  = 0x06
)

// FrontEndSettings 测量模式、通道与电流量程
type FrontEndSettings struct {
	Mode    byte `yaml:"mode"`
	Channel byte `yaml:"channel"`
	Range   byte `yaml:"range"`
}

// ExtensionPortChannel 选择已连接扩展模块的端口
type ExtensionPortChannel struct {
	Counter      byte `yaml:"counter"`
	Reference    byte `yaml:"reference"`
	WorkingSense byte `yaml:"workingSense"`
	Work         byte `yaml:"work"`
}

// ExtensionModule 描述已连接的外部与内部模块
type ExtensionModule struct {
	External byte
	Internal byte

	// ExternalChannels 与 InternalChannels 只有 Mux32any2any2202 模块才会上报，其余为 0
	ExternalChannels uint16
	InternalChannels uint16
}

// Mux32any2any2202 为会上报通道数的模块码
const Mux32any2any2202 = 0x09
