package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TimestampMode 测量应答携带的时间戳类型
type TimestampMode byte

const (
	TimestampNone   TimestampMode = 0
	TimestampMillis TimestampMode = 1
	TimestampMicros TimestampMode = 2
)

// Width 返回时间戳在线上占用的字节数
func (m TimestampMode) Width() int {
	switch m {
	case TimestampMillis:
		return 4
	case TimestampMicros:
		return 5
	default:
		return 0
	}
}

func (m TimestampMode) String() string {
	switch m {
	case TimestampNone:
		return "none"
	case TimestampMillis:
		return "ms"
	case TimestampMicros:
		return "us"
	default:
		return fmt.Sprintf("TimestampMode(%d)", byte(m))
	}
}

// ReplyFormat 为通过 Set Options 配置的测量应答格式
type ReplyFormat struct {
	Timestamp    TimestampMode `yaml:"timestamp"`
	CurrentRange bool          `yaml:"currentRange"`
}

// SampleSize 返回单条测量应答的负载长度：
//
//	[ID(2)][TIMESTAMP(0|4|5)][CURRENT_RANGE(0|1)][REAL(4)][IMAG(4)]
func (f ReplyFormat) SampleSize() int {
	n := 2 + f.Timestamp.Width() + 8
	if f.CurrentRange {
		n++
	}
	return n
}

// MeasurementSample 为解码后的一个阻抗点
type MeasurementSample struct {
	// PointID 频点 ID（从 1 开始）
	PointID uint16 `json:"point_id"`

	// Timestamp 单位随应答格式为 ms 或 µs，HasTimestamp 为 true 时有效
	Timestamp    uint64 `json:"timestamp,omitempty"`
	HasTimestamp bool   `json:"-"`

	// CurrentRange 该频点使用的量程，HasCurrentRange 为 true 时有效
	CurrentRange    uint8 `json:"current_range,omitempty"`
	HasCurrentRange bool  `json:"-"`

	Real      float32 `json:"real"`
	Imaginary float32 `json:"imaginary"`
}

// Impedance 以复数形式返回阻抗
func (s MeasurementSample) Impedance() complex128 {
	return complex(float64(s.Real), float64(s.Imaginary))
}

// Magnitude 返回 |Z|
func (s MeasurementSample) Magnitude() float64 {
	return math.Hypot(float64(s.Real), float64(s.Imaginary))
}

// DecodeSample 按 f 解码测量应答帧的负载
func (f ReplyFormat) DecodeSample(payload []byte) (MeasurementSample, error) {
	if want := f.SampleSize(); len(payload) != want {
		return MeasurementSample{}, newError(ErrMalformedFrame, "decode sample",
			"payload length %d, reply format %s/range=%t expects %d", len(payload), f.Timestamp, f.CurrentRange, want)
	}

	s := MeasurementSample{PointID: binary.BigEndian.Uint16(payload[0:2])}
	idx := 2
	if w := f.Timestamp.Width(); w > 0 {
		ts, err := DecodeUint(payload[idx : idx+w])
		if err != nil {
			return MeasurementSample{}, err
		}
		s.Timestamp, s.HasTimestamp = ts, true
		idx += w
	}
	if f.CurrentRange {
		s.CurrentRange, s.HasCurrentRange = payload[idx], true
		idx++
	}
	s.Real = math.Float32frombits(binary.BigEndian.Uint32(payload[idx : idx+4]))
	s.Imaginary = math.Float32frombits(binary.BigEndian.Uint32(payload[idx+4 : idx+8]))
	return s, nil
}

// EncodeSample 为 DecodeSample 的逆操作，供设备模拟和测试使用
func (f ReplyFormat) EncodeSample(s MeasurementSample) []byte {
	b := make([]byte, 0, f.SampleSize())
	b = binary.BigEndian.AppendUint16(b, s.PointID)
	switch f.Timestamp {
	case TimestampMillis:
		b = binary.BigEndian.AppendUint32(b, uint32(s.Timestamp))
	case TimestampMicros:
		b = append(b, byte(s.Timestamp>>32))
		b = binary.BigEndian.AppendUint32(b, uint32(s.Timestamp))
	}
	if f.CurrentRange {
		b = append(b, s.CurrentRange)
	}
	b = appendFloat32(b, s.Real)
	return appendFloat32(b, s.Imaginary)
}
