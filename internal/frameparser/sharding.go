package frameparser

import (
	"fmt"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// Assembler 拼接分片应答。
// 负载超过 252 字节的应答由设备拆成多个相同操作码的帧，按到达顺序依次发送，
// 每一帧的负载都以子操作码开头。Assembler 按顺序缓存这些帧，
// 直到收到的数据字节数达到期望值。
type Assembler struct {
	opcode byte
	subOp  byte
	// 期望的数据字节数（不含每帧的子操作码），0 表示未知
	want     int
	got      int
	payloads [][]byte
}

// NewAssembler 创建一个拼接器。want 为期望的数据字节数，未知时传 0。
func NewAssembler(opcode, subOp byte, want int) *Assembler {
	return &Assembler{opcode: opcode, subOp: subOp, want: want}
}

// Add 追加一帧，返回是否已经收齐
func (a *Assembler) Add(f protocol.Frame) (bool, error) {
	if f.Opcode != a.opcode {
		return false, &protocol.Error{
			Kind:   protocol.ErrMalformedFrame,
			Op:     protocol.CommandName(a.opcode),
			Detail: fmt.Sprintf("unexpected opcode 0x%02X in multi-frame reply", f.Opcode),
		}
	}
	if len(f.Payload) == 0 || f.Payload[0] != a.subOp {
		return false, &protocol.Error{
			Kind:   protocol.ErrMalformedFrame,
			Op:     protocol.CommandName(a.opcode),
			Detail: fmt.Sprintf("frame %d does not carry sub-opcode 0x%02X", len(a.payloads), a.subOp),
		}
	}
	a.payloads = append(a.payloads, f.Payload)
	a.got += len(f.Payload) - 1
	return a.Done(), nil
}

// AddReply 依次追加 r 中的所有帧
func (a *Assembler) AddReply(r Reply) (bool, error) {
	for _, f := range r.Frames {
		if _, err := a.Add(f); err != nil {
			return false, err
		}
	}
	return a.Done(), nil
}

// Done 判断是否已收齐；期望长度未知时，只要收到过帧即视为完成
func (a *Assembler) Done() bool {
	if a.want <= 0 {
		return len(a.payloads) > 0
	}
	return a.got >= a.want
}

// Payloads 返回已收到的各帧负载，按到达顺序
func (a *Assembler) Payloads() [][]byte {
	return a.payloads
}

// Frames 返回已收到的帧数
func (a *Assembler) Frames() int {
	return len(a.payloads)
}

// Check 在读取结束后检查是否收齐
func (a *Assembler) Check() error {
	if len(a.payloads) == 0 {
		return &protocol.Error{
			Kind:   protocol.ErrTimeout,
			Op:     protocol.CommandName(a.opcode),
			Detail: "no reply frame received",
		}
	}
	if a.want > 0 && a.got != a.want {
		return &protocol.Error{
			Kind:   protocol.ErrIncompleteMultiFrameReply,
			Op:     protocol.CommandName(a.opcode),
			Detail: fmt.Sprintf("got %d data bytes in %d frames, expected %d", a.got, len(a.payloads), a.want),
		}
	}
	return nil
}

// Reassemble 将连续的同操作码帧拼接为一个逻辑应答的数据（去掉每帧的子操作码）
func Reassemble(frames []protocol.Frame, opcode, subOp byte) ([]byte, error) {
	a := NewAssembler(opcode, subOp, 0)
	var data []byte
	for _, f := range frames {
		if _, err := a.Add(f); err != nil {
			return nil, err
		}
		data = append(data, f.Payload[1:]...)
	}
	if err := a.Check(); err != nil {
		return nil, err
	}
	return data, nil
}
