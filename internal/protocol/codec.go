package protocol

import (
	"encoding/binary"
	"math"
)

// 线上所有数值字段均为大端序

// EncodeFloat32 将 x 编码为大端 IEEE-754 单精度浮点
func EncodeFloat32(x float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(x))
	return b
}

// DecodeFloat32 将 b 的前 4 字节解码为大端 IEEE-754 单精度浮点
func DecodeFloat32(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, newError(ErrMalformedFrame, "decode float32", "need 4 bytes, got %d", len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// EncodeUint 将 x 按大端编码为 width 字节。width 只能为 1、2 或 4，且 x 必须能容纳
func EncodeUint(x uint64, width int) ([]byte, error) {
	switch width {
	case 1, 2, 4:
	default:
		return nil, newError(ErrPayloadOutOfRange, "encode uint", "unsupported width %d", width)
	}
	if x>>(uint(width)*8) != 0 {
		return nil, newError(ErrPayloadOutOfRange, "encode uint", "value %d does not fit in %d bytes", x, width)
	}
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(x)
		x >>= 8
	}
	return b, nil
}

// DecodeUint 将 b 解码为 len(b) 字节 (1..8) 的大端无符号整数
func DecodeUint(b []byte) (uint64, error) {
	if len(b) == 0 || len(b) > 8 {
		return 0, newError(ErrMalformedFrame, "decode uint", "unsupported width %d", len(b))
	}
	var x uint64
	for _, c := range b {
		x = x<<8 | uint64(c)
	}
	return x, nil
}

func appendUint32(dst []byte, x uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, x)
}

func appendFloat32(dst []byte, x float32) []byte {
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(x))
}
