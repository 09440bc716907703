package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildSaveSettingsCmd 构造保存设置命令帧，仅在没有测量运行时有效
//
//	[90][00][90]
func BuildSaveSettingsCmd() Frame {
	return BuildQuery(CmdSaveSettings)
}

// BuildResetSystemCmd 构造系统复位命令帧，设备会重启
//
//	[A1][00][A1]
func BuildResetSystemCmd() Frame {
	return BuildQuery(CmdResetSystem)
}

// BuildSetOptionsCmd 构造 Set Options 命令帧，开启或关闭测量应答中的一个字段
//
//	[97][02][OPTION][VALUE][97]
func BuildSetOptionsCmd(option, value byte) (Frame, error) {
	switch option {
	case OptionTimestamp:
		if value > byte(TimestampMicros) {
			return Frame{}, newError(ErrPayloadOutOfRange, "set options", "timestamp mode %d", value)
		}
	case OptionCurrentRange:
		if value > 1 {
			return Frame{}, newError(ErrPayloadOutOfRange, "set options", "current range flag %d", value)
		}
	default:
		return Frame{}, newError(ErrPayloadOutOfRange, "set options", "unknown option 0x%02X", option)
	}
	return Build(CmdSetOptions, []byte{option, value})
}

// BuildReplyFormatCmds 返回配置 f 所需的 Set Options 帧
func BuildReplyFormatCmds(f ReplyFormat) ([]Frame, error) {
	ts, err := BuildSetOptionsCmd(OptionTimestamp, byte(f.Timestamp))
	if err != nil {
		return nil, err
	}
	var cr byte
	if f.CurrentRange {
		cr = 1
	}
	rng, err := BuildSetOptionsCmd(OptionCurrentRange, cr)
	if err != nil {
		return nil, err
	}
	return []Frame{ts, rng}, nil
}

// BuildSetFrontEndCmd 构造前端设置命令帧
//
//	[B0][03][MODE][CHANNEL][RANGE][B0]
func BuildSetFrontEndCmd(fe FrontEndSettings) (Frame, error) {
	return Build(CmdSetFrontEnd, []byte{fe.Mode, fe.Channel, fe.Range})
}

// BuildGetFrontEndCmd 构造读取前端设置命令帧
func BuildGetFrontEndCmd() Frame {
	return BuildQuery(CmdGetFrontEnd)
}

// BuildSetExtensionPortChannelCmd 构造设置扩展口通道命令帧
//
//	[B2][04][CP][RP][WS][WP][B2]
func BuildSetExtensionPortChannelCmd(ch ExtensionPortChannel) (Frame, error) {
	return Build(CmdSetExtensionPortChannel, []byte{ch.Counter, ch.Reference, ch.WorkingSense, ch.Work})
}

// BuildGetExtensionPortChannelCmd 构造读取扩展口通道命令帧
func BuildGetExtensionPortChannelCmd() Frame {
	return BuildQuery(CmdGetExtensionPortChannel)
}

// BuildGetExtensionPortModuleCmd 构造读取扩展模块命令帧
func BuildGetExtensionPortModuleCmd() Frame {
	return BuildQuery(CmdGetExtensionPortModule)
}

// BuildInitSetupCmd 构造 Set Setup / Init 命令帧，清空当前配置
//
//	[B6][01][01][B6]
func BuildInitSetupCmd() Frame {
	return Frame{Opcode: CmdSetSetup, Payload: []byte{SetupInit}}
}

// BuildAddFrequencyListCmd 构造 Set Setup / 添加频率列表命令帧
//
//	[B6][25][03][START(4)][STOP(4)][COUNT(4)][SCALE(1)][PRECISION(4)][AMPLITUDE(4)]
//	    [01][POINT_DELAY(4)][02][PHASE_SYNC(4)][03][EXCITATION(4)][B6]
//
// 起止频率、频点数、精度与幅值为浮点数；频点延时、相位同步与激励类型为无符号整数
func BuildAddFrequencyListCmd(s FrequencySweepSpec) (Frame, error) {
	if err := s.Validate(); err != nil {
		return Frame{}, err
	}
	p := make([]byte, 0, AddFreqListPayloadSize)
	p = append(p, SetupAddFreqList)
	p = appendFloat32(p, s.StartFreq)
	p = appendFloat32(p, s.StopFreq)
	p = appendFloat32(p, float32(s.Steps))
	p = append(p, byte(s.Scale))
	p = appendFloat32(p, s.Precision)
	p = appendFloat32(p, s.Amplitude)
	p = appendPointOptions(p, s.PointDelayUs, s.PhaseSync, s.Excitation)
	return Build(CmdSetSetup, p)
}

// BuildAddSingleFrequencyCmd 构造 Set Setup / 添加单个频点命令帧
//
//	[B6][1C][02][FREQ(4)][PRECISION(4)][AMPLITUDE(4)][01][DELAY(4)][02][PHASE(4)][03][EXC(4)][B6]
func BuildAddSingleFrequencyCmd(freq, precision, amplitude float32, delayUs uint32, phaseSync bool, exc Excitation) (Frame, error) {
	if exc != ExcitationVoltage && exc != ExcitationCurrent {
		return Frame{}, newError(ErrPayloadOutOfRange, "add single frequency", "unknown excitation type %d", exc)
	}
	p := make([]byte, 0, AddSingleFreqPayloadSize)
	p = append(p, SetupAddSingleFreq)
	p = appendFloat32(p, freq)
	p = appendFloat32(p, precision)
	p = appendFloat32(p, amplitude)
	p = appendPointOptions(p, delayUs, phaseSync, exc)
	return Build(CmdSetSetup, p)
}

func appendPointOptions(p []byte, delayUs uint32, phaseSync bool, exc Excitation) []byte {
	var sync uint32
	if phaseSync {
		sync = 1
	}
	p = append(p, optPointDelay)
	p = appendUint32(p, delayUs)
	p = append(p, optPhaseSync)
	p = appendUint32(p, sync)
	p = append(p, optExcitation)
	return appendUint32(p, uint32(exc))
}

// BuildSetAmplitudeCmd 构造 Set Setup / 设置幅值命令帧，作用于所有已配置频点
//
//	[B6][06][05][EXCITATION(1)][AMPLITUDE(4)][B6]
func BuildSetAmplitudeCmd(exc Excitation, amplitude float32) (Frame, error) {
	if exc != ExcitationVoltage && exc != ExcitationCurrent {
		return Frame{}, newError(ErrPayloadOutOfRange, "set amplitude", "unknown excitation type %d", exc)
	}
	p := []byte{SetupSetAmplitude, byte(exc)}
	return Build(CmdSetSetup, appendFloat32(p, amplitude))
}

// BuildGetFreqCountCmd 构造 Get Setup / 读取频点数命令帧
//
//	[B7][01][01][B7]
func BuildGetFreqCountCmd() Frame {
	return Frame{Opcode: CmdGetSetup, Payload: []byte{SetupGetFreqCount}}
}

// BuildGetFreqPointCmd 构造 Get Setup / 读取单个频点命令帧
//
//	[B7][03][02][ROW(2)][B7]
func BuildGetFreqPointCmd(row uint16) Frame {
	p := []byte{SetupGetFreqPoint}
	return Frame{Opcode: CmdGetSetup, Payload: binary.BigEndian.AppendUint16(p, row)}
}

// BuildGetFreqListCmd 构造 Get Setup / 读取频率列表命令帧
//
//	[B7][01][04][B7]
func BuildGetFreqListCmd() Frame {
	return Frame{Opcode: CmdGetSetup, Payload: []byte{SetupGetFreqList}}
}

// BuildStartMeasurementCmd 构造启动测量命令帧。
// repeat 为 0 时启动连续测量，直到发送 BuildStopMeasurementCmd
//
//	[B8][03][01][REPEAT(2)][B8]
func BuildStartMeasurementCmd(repeat uint16) Frame {
	p := []byte{MeasureStart}
	return Frame{Opcode: CmdStartMeasure, Payload: binary.BigEndian.AppendUint16(p, repeat)}
}

// BuildStopMeasurementCmd 构造停止测量命令帧
//
//	[B8][01][00][B8]
func BuildStopMeasurementCmd() Frame {
	return Frame{Opcode: CmdStartMeasure, Payload: []byte{MeasureStop}}
}

// BuildSetSyncTimeCmd 构造设置同步时间命令帧，
// 单位 µs，不得超过 MaxSyncTime
//
//	[B9][04][SYNC_TIME(4)][B9]
func BuildSetSyncTimeCmd(us uint32) (Frame, error) {
	if us > MaxSyncTime {
		return Frame{}, newError(ErrPayloadOutOfRange, "set sync time",
			"%d us exceeds maximum %d us", us, MaxSyncTime)
	}
	return Build(CmdSetSyncTime, appendUint32(nil, us))
}

// BuildGetSyncTimeCmd 构造读取同步时间命令帧
func BuildGetSyncTimeCmd() Frame {
	return BuildQuery(CmdGetSyncTime)
}

// BuildGetDeviceIDCmd 构造读取设备 ID 命令帧
//
//	[D1][00][D1]
func BuildGetDeviceIDCmd() Frame {
	return BuildQuery(CmdGetDeviceID)
}

// BuildGetFirmwareIDCmd 构造读取 ARM 或 FPGA 固件 ID 命令帧
func BuildGetFirmwareIDCmd(opcode byte) (Frame, error) {
	if opcode != CmdGetARMFirmwareID && opcode != CmdGetFPGAFirmwareID {
		return Frame{}, fmt.Errorf("opcode 0x%02X is not a firmware ID command", opcode)
	}
	return BuildQuery(opcode), nil
}

// CommandName 返回操作码的简称，用于错误与日志
func CommandName(opcode byte) string {
	switch opcode {
	case CmdSaveSettings:
		return "save settings"
	case CmdSetOptions:
		return "set options"
	case CmdGetOptions:
		return "get options"
	case CmdResetSystem:
		return "reset system"
	case CmdSetFrontEnd:
		return "set fe settings"
	case CmdGetFrontEnd:
		return "get fe settings"
	case CmdSetExtensionPortChannel:
		return "set extension port channel"
	case CmdGetExtensionPortChannel:
		return "get extension port channel"
	case CmdGetExtensionPortModule:
		return "get extension port module"
	case CmdSetSetup:
		return "set setup"
	case CmdGetSetup:
		return "get setup"
	case CmdStartMeasure:
		return "start measure"
	case CmdSetSyncTime:
		return "set sync time"
	case CmdGetSyncTime:
		return "get sync time"
	case CmdGetARMFirmwareID:
		return "get arm firmware id"
	case CmdGetDeviceID:
		return "get device id"
	case CmdGetFPGAFirmwareID:
		return "get fpga firmware id"
	default:
		return fmt.Sprintf("command 0x%02X", opcode)
	}
}
