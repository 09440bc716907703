package protocol

import (
	"encoding/binary"
	"math"
)

// ParseDeviceIDResponse 解析 Get Device ID 应答负载
//
// 数据格式：
//
//	[VERSION(1)][DEVICE_ID(2)][SERIAL(2)][YEAR(1)][MONTH(1)][developer information...]
func ParseDeviceIDResponse(payload []byte) (*DeviceIdentity, error) {
	if len(payload) < DeviceIDInfoSize {
		return nil, newError(ErrMalformedFrame, CommandName(CmdGetDeviceID),
			"got %d bytes, expected at least %d", len(payload), DeviceIDInfoSize)
	}
	return &DeviceIdentity{
		InfoVersion:        payload[0],
		DeviceID:           binary.BigEndian.Uint16(payload[1:3]),
		SerialNumber:       binary.BigEndian.Uint16(payload[3:5]),
		DeliveryYearOffset: payload[5],
		DeliveryMonth:      payload[6],
	}, nil
}

// ParseFirmwareIDResponse 解析 ARM/FPGA 固件 ID 应答负载
//
// 数据格式（9 字节）：
//
//	[DEVELOPER(5)][REVISION(2)][BUILD(2)]
func ParseFirmwareIDResponse(payload []byte) (*FirmwareID, error) {
	if len(payload) != FirmwareIDSize {
		return nil, newError(ErrMalformedFrame, "firmware id", "got %d bytes, expected %d", len(payload), FirmwareIDSize)
	}
	id := &FirmwareID{
		Revision: binary.BigEndian.Uint16(payload[5:7]),
		Build:    binary.BigEndian.Uint16(payload[7:9]),
	}
	copy(id.Developer[:], payload[:5])
	return id, nil
}

// ParseSyncTimeResponse 解析读取同步时间应答 (µs)
func ParseSyncTimeResponse(payload []byte) (uint32, error) {
	if len(payload) != 4 {
		return 0, newError(ErrMalformedFrame, CommandName(CmdGetSyncTime), "got %d bytes, expected 4", len(payload))
	}
	return binary.BigEndian.Uint32(payload), nil
}

// ParseFrontEndResponse 解析读取前端设置应答
func ParseFrontEndResponse(payload []byte) (*FrontEndSettings, error) {
	if len(payload) != 3 {
		return nil, newError(ErrMalformedFrame, CommandName(CmdGetFrontEnd), "got %d bytes, expected 3", len(payload))
	}
	return &FrontEndSettings{Mode: payload[0], Channel: payload[1], Range: payload[2]}, nil
}

// ParseExtensionPortChannelResponse 解析读取扩展口通道应答
//
//	[CP][RP][WS][WP]
func ParseExtensionPortChannelResponse(payload []byte) (*ExtensionPortChannel, error) {
	if len(payload) != 4 {
		return nil, newError(ErrMalformedFrame, CommandName(CmdGetExtensionPortChannel), "got %d bytes, expected 4", len(payload))
	}
	return &ExtensionPortChannel{
		Counter:      payload[0],
		Reference:    payload[1],
		WorkingSense: payload[2],
		Work:         payload[3],
	}, nil
}

// ParseExtensionPortModuleResponse 解析读取扩展模块应答
//
//	[EXT][INT][optional EXT_CHANNELS(2)][optional INT_CHANNELS(2)]
//
// 只有 Mux32any2any2202 模块才携带通道数
func ParseExtensionPortModuleResponse(payload []byte) (*ExtensionModule, error) {
	op := CommandName(CmdGetExtensionPortModule)
	if len(payload) < 2 {
		return nil, newError(ErrMalformedFrame, op, "got %d bytes, expected at least 2", len(payload))
	}
	m := &ExtensionModule{External: payload[0], Internal: payload[1]}
	want := 2
	if m.External == Mux32any2any2202 {
		want += 2
	}
	if m.Internal == Mux32any2any2202 {
		want += 2
	}
	if len(payload) != want {
		return nil, newError(ErrMalformedFrame, op, "got %d bytes, expected %d for modules 0x%02X/0x%02X",
			len(payload), want, m.External, m.Internal)
	}
	idx := 2
	if m.External == Mux32any2any2202 {
		m.ExternalChannels = binary.BigEndian.Uint16(payload[idx : idx+2])
		idx += 2
	}
	if m.Internal == Mux32any2any2202 {
		m.InternalChannels = binary.BigEndian.Uint16(payload[idx : idx+2])
	}
	return m, nil
}

// ParseFreqCountResponse 解析 Get Setup / 频点数应答
//
//	[01][COUNT(2)]
func ParseFreqCountResponse(payload []byte) (uint16, error) {
	op := CommandName(CmdGetSetup)
	if len(payload) != FreqCountReplySize || payload[0] != SetupGetFreqCount {
		return 0, newError(ErrMalformedFrame, op, "invalid frequency count reply % X", payload)
	}
	return binary.BigEndian.Uint16(payload[1:3]), nil
}

// ParseFreqPointResponse 解析 Get Setup / 单个频点应答
//
//	[02][FREQUENCY(4)][PRECISION(4)][AMPLITUDE(4)]
func ParseFreqPointResponse(payload []byte) (*FreqPoint, error) {
	if len(payload) != FreqPointReplySize || payload[0] != SetupGetFreqPoint {
		return nil, newError(ErrMalformedFrame, CommandName(CmdGetSetup), "invalid frequency point reply % X", payload)
	}
	return &FreqPoint{
		Frequency: math.Float32frombits(binary.BigEndian.Uint32(payload[1:5])),
		Precision: math.Float32frombits(binary.BigEndian.Uint32(payload[5:9])),
		Amplitude: math.Float32frombits(binary.BigEndian.Uint32(payload[9:13])),
	}, nil
}

// ParseFreqListResponse 拼接 Get Setup / 频率列表应答各帧负载并解码浮点数组，
// 每帧都带有子操作码：
//
//	[04][FREQ1(4)]...[FREQn(4)]
//
// 超过 MaxPayloadSize 的应答按顺序分多帧到达。expected 大于 0 且频点数不一致时
// 返回 ErrIncompleteMultiFrameReply
func ParseFreqListResponse(payloads [][]byte, expected int) ([]float32, error) {
	op := CommandName(CmdGetSetup)
	if len(payloads) == 0 {
		return nil, newError(ErrMalformedFrame, op, "empty frequency list reply")
	}
	var data []byte
	for i, p := range payloads {
		if len(p) == 0 || p[0] != SetupGetFreqList {
			return nil, newError(ErrMalformedFrame, op, "frame %d is not a frequency list frame", i)
		}
		data = append(data, p[1:]...)
	}
	if len(data)%4 != 0 {
		return nil, newError(ErrMalformedFrame, op, "%d data bytes is not a multiple of 4", len(data))
	}
	freqs := make([]float32, len(data)/4)
	for i := range freqs {
		freqs[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	if expected > 0 && len(freqs) != expected {
		return freqs, newError(ErrIncompleteMultiFrameReply, op, "got %d frequencies, expected %d", len(freqs), expected)
	}
	return freqs, nil
}

// ParseAddFrequencyListCmd 将添加频率列表帧的负载还原为扫频参数，用于在写出前检查帧
func ParseAddFrequencyListCmd(payload []byte) (FrequencySweepSpec, error) {
	const op = "parse add frequency list"
	if len(payload) != AddFreqListPayloadSize || payload[0] != SetupAddFreqList {
		return FrequencySweepSpec{}, newError(ErrMalformedFrame, op, "invalid payload % X", payload)
	}
	if payload[22] != optPointDelay || payload[27] != optPhaseSync || payload[32] != optExcitation {
		return FrequencySweepSpec{}, newError(ErrMalformedFrame, op, "invalid option tags")
	}
	f := func(i int) float32 { return math.Float32frombits(binary.BigEndian.Uint32(payload[i : i+4])) }
	u := func(i int) uint32 { return binary.BigEndian.Uint32(payload[i : i+4]) }
	return FrequencySweepSpec{
		StartFreq:    f(1),
		StopFreq:     f(5),
		Steps:        uint32(f(9)),
		Scale:        Scale(payload[13]),
		Precision:    f(14),
		Amplitude:    f(18),
		PointDelayUs: u(23),
		PhaseSync:    u(28) != 0,
		Excitation:   Excitation(u(33)),
	}, nil
}
