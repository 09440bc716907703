package protocol

import "fmt"

// Frame 为命令帧或命令应答帧：
//
//	[OPCODE][LE][PAYLOAD(LE)][OPCODE]
//
// 操作码同时作为帧界定符，负载可能以命令相关的子操作码开头。
type Frame struct {
	Opcode  byte
	Payload []byte
}

// Build 构造一帧，负载不得超过 MaxPayloadSize 字节
func Build(opcode byte, payload []byte) (Frame, error) {
	if len(payload) > MaxPayloadSize {
		return Frame{}, newError(ErrPayloadTooLarge, fmt.Sprintf("build 0x%02X", opcode),
			"payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	return Frame{Opcode: opcode, Payload: p}, nil
}

// BuildQuery 构造无负载的查询帧 [OPCODE][00][OPCODE]
func BuildQuery(opcode byte) Frame {
	return Frame{Opcode: opcode}
}

// Len 返回帧的长度字节
func (f Frame) Len() byte { return byte(len(f.Payload)) }

// Bytes 返回帧的线上字节
func (f Frame) Bytes() []byte {
	b := make([]byte, 0, FrameOverhead+len(f.Payload))
	b = append(b, f.Opcode, f.Len())
	b = append(b, f.Payload...)
	return append(b, f.Opcode)
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f.Bytes())
}

// ParseFrame 解析 b 开头操作码为 opcode 的一帧，返回该帧及消耗的字节数。
//
// 声明长度超出 b 末尾时返回 ErrIncompleteMultiFrameReply，
// 调用方据此区分截断与损坏
func ParseFrame(b []byte, opcode byte) (Frame, int, error) {
	op := fmt.Sprintf("parse 0x%02X", opcode)
	if len(b) < FrameOverhead {
		return Frame{}, 0, newError(ErrMalformedFrame, op, "frame too short: got %d bytes, minimum is %d", len(b), FrameOverhead)
	}
	if b[0] != opcode {
		return Frame{}, 0, newError(ErrMalformedFrame, op, "leading opcode 0x%02X", b[0])
	}
	n := int(b[1])
	end := 2 + n
	if end >= len(b) {
		return Frame{}, 0, newError(ErrIncompleteMultiFrameReply, op, "declared length %d, only %d bytes available", n, len(b)-2)
	}
	if b[end] != opcode {
		return Frame{}, 0, newError(ErrMalformedFrame, op, "trailing opcode 0x%02X at offset %d", b[end], end)
	}
	payload := make([]byte, n)
	copy(payload, b[2:end])
	return Frame{Opcode: opcode, Payload: payload}, end + 1, nil
}
