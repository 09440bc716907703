package config

import (
	"fmt"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// SampleValues 将一个测量点转换为资源值
func SampleValues(s protocol.MeasurementSample, freq float64) map[string]interface{} {
	return map[string]interface{}{
		ResPointID:      s.PointID,
		ResFrequency:    freq,
		ResReal:         s.Real,
		ResImaginary:    s.Imaginary,
		ResMagnitude:    s.Magnitude(),
		ResTimestamp:    s.Timestamp,
		ResCurrentRange: s.CurrentRange,
	}
}

// SweepValues 将扫频参数转换为资源值
func SweepValues(sw protocol.FrequencySweepSpec) map[string]interface{} {
	return map[string]interface{}{
		ResStartFrequency: sw.StartFreq,
		ResStopFrequency:  sw.StopFreq,
		ResFrequencySteps: sw.Steps,
		ResFrequencyScale: uint8(sw.Scale),
		ResPrecision:      sw.Precision,
		ResAmplitude:      sw.Amplitude,
		ResExcitation:     uint8(sw.Excitation),
		ResPointDelay:     sw.PointDelayUs,
		ResPhaseSync:      sw.PhaseSync,
	}
}

// SweepFromValues 由资源值组装扫频参数并校验
func SweepFromValues(vals map[string]interface{}) (protocol.FrequencySweepSpec, error) {
	var (
		sw  protocol.FrequencySweepSpec
		err error
		u8  uint8
	)
	if sw.StartFreq, err = get[float32](vals, ResStartFrequency); err != nil {
		return sw, err
	}
	if sw.StopFreq, err = get[float32](vals, ResStopFrequency); err != nil {
		return sw, err
	}
	if sw.Steps, err = get[uint32](vals, ResFrequencySteps); err != nil {
		return sw, err
	}
	if u8, err = get[uint8](vals, ResFrequencyScale); err != nil {
		return sw, err
	}
	sw.Scale = protocol.Scale(u8)
	if sw.Precision, err = get[float32](vals, ResPrecision); err != nil {
		return sw, err
	}
	if sw.Amplitude, err = get[float32](vals, ResAmplitude); err != nil {
		return sw, err
	}
	if u8, err = get[uint8](vals, ResExcitation); err != nil {
		return sw, err
	}
	sw.Excitation = protocol.Excitation(u8)
	if sw.PointDelayUs, err = get[uint32](vals, ResPointDelay); err != nil {
		return sw, err
	}
	if sw.PhaseSync, err = get[bool](vals, ResPhaseSync); err != nil {
		return sw, err
	}
	return sw, sw.Validate()
}

// FrontEndValues 将前端设置转换为资源值
func FrontEndValues(fe protocol.FrontEndSettings) map[string]interface{} {
	return map[string]interface{}{
		ResFrontEndMode:    fe.Mode,
		ResFrontEndChannel: fe.Channel,
		ResFrontEndRange:   fe.Range,
	}
}

// FrontEndFromValues 由资源值组装前端设置
func FrontEndFromValues(vals map[string]interface{}) (protocol.FrontEndSettings, error) {
	var (
		fe  protocol.FrontEndSettings
		err error
	)
	if fe.Mode, err = get[uint8](vals, ResFrontEndMode); err != nil {
		return fe, err
	}
	if fe.Channel, err = get[uint8](vals, ResFrontEndChannel); err != nil {
		return fe, err
	}
	fe.Range, err = get[uint8](vals, ResFrontEndRange)
	return fe, err
}

// ReplyFormatValues 将测量应答格式转换为资源值
func ReplyFormatValues(f protocol.ReplyFormat) map[string]interface{} {
	return map[string]interface{}{
		ResTimestampMode:     uint8(f.Timestamp),
		ResReplyCurrentRange: f.CurrentRange,
	}
}

// ReplyFormatFromValues 由资源值组装测量应答格式
func ReplyFormatFromValues(vals map[string]interface{}) (protocol.ReplyFormat, error) {
	ts, err := get[uint8](vals, ResTimestampMode)
	if err != nil {
		return protocol.ReplyFormat{}, err
	}
	cr, err := get[bool](vals, ResReplyCurrentRange)
	if err != nil {
		return protocol.ReplyFormat{}, err
	}
	if protocol.TimestampMode(ts) > protocol.TimestampMicros {
		return protocol.ReplyFormat{}, fmt.Errorf("资源 %s 取值 %d 无效", ResTimestampMode, ts)
	}
	return protocol.ReplyFormat{Timestamp: protocol.TimestampMode(ts), CurrentRange: cr}, nil
}

// get 从资源值表中取出指定类型的值
func get[T any](vals map[string]interface{}, name string) (T, error) {
	var zero T
	v, ok := vals[name]
	if !ok {
		return zero, fmt.Errorf("缺少资源 %s", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("资源 %s 类型错误: %T", name, v)
	}
	return t, nil
}
