// Package frameparser 将串口读到的原始字节拆分为命令应答帧和系统消息。
package frameparser

import (
	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// Reply 是一次读取周期内对原始字节的拆分结果
type Reply struct {
	// Frames 为与期望操作码相同的应答帧，按到达顺序排列
	Frames []protocol.Frame
	// Messages 为识别出的系统消息，按到达顺序排列
	Messages []protocol.SystemMessage
	// Raw 为既不是应答帧也不是系统消息的剩余字节
	Raw []byte
}

// Empty 判断本次是否什么都没有收到
func (r Reply) Empty() bool {
	return len(r.Frames) == 0 && len(r.Messages) == 0 && len(r.Raw) == 0
}

// Acknowledged 判断是否收到 CommandAcknowledge
func (r Reply) Acknowledged() bool {
	for _, m := range r.Messages {
		if m == protocol.MsgCommandAcknowledge {
			return true
		}
	}
	return false
}

// Err 返回系统消息所携带的错误。致命消息优先于其它错误。
func (r Reply) Err(op string) error {
	var first error
	for _, m := range r.Messages {
		err := m.Err(op)
		if err == nil {
			continue
		}
		if protocol.IsFatal(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// Payloads 返回各应答帧的负载
func (r Reply) Payloads() [][]byte {
	out := make([][]byte, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Payload
	}
	return out
}

// Demux 拆分一次完整的突发数据 burst。
// 以 opcode 开头的字节按应答帧解析（长度与结尾操作码必须一致），
// 完整的 [18][01][code][18] 以及其余字节交给分类状态机。
//
// 截断的应答帧：若之前已解析出至少一帧，返回 ErrIncompleteMultiFrameReply，否则返回 ErrMalformedFrame。
func Demux(burst []byte, opcode byte) (Reply, error) {
	reply, _, err := demux(burst, opcode, false)
	return reply, err
}

// isMessageAt 判断 b 开头是否为一条完整的系统消息
func isMessageAt(b []byte) bool {
	return len(b) >= 4 &&
		b[0] == protocol.FrameToken &&
		b[1] == protocol.SystemMessageLength &&
		b[3] == protocol.FrameToken
}

// isMessagePrefix 判断 b 是否可能是一条被截断的系统消息的开头
func isMessagePrefix(b []byte) bool {
	if len(b) == 0 || len(b) >= 4 || b[0] != protocol.FrameToken {
		return false
	}
	return len(b) < 2 || b[1] == protocol.SystemMessageLength
}

// demux 为 Demux 与 Stream 共用的拆分逻辑。
// stream 为 true 时，末尾不完整的帧或消息作为 pending 返回，留待下一次突发数据拼接。
func demux(data []byte, opcode byte, stream bool) (Reply, []byte, error) {
	var (
		reply   Reply
		rest    []byte
		pending []byte
	)

	i := 0
scan:
	for i < len(data) {
		tail := data[i:]
		switch {
		case isMessageAt(tail):
			rest = append(rest, tail[:4]...)
			i += 4

		case stream && isMessagePrefix(tail):
			pending = append([]byte(nil), tail...)
			break scan

		case tail[0] == opcode:
			if stream && len(tail) < protocol.FrameOverhead {
				pending = append([]byte(nil), tail...)
				break scan
			}
			f, n, err := protocol.ParseFrame(tail, opcode)
			if err != nil {
				if protocol.KindOf(err) != protocol.ErrIncompleteMultiFrameReply {
					return reply, nil, err
				}
				if stream {
					pending = append([]byte(nil), tail...)
					break scan
				}
				if len(reply.Frames) == 0 {
					return reply, nil, &protocol.Error{
						Kind:   protocol.ErrMalformedFrame,
						Op:     protocol.CommandName(opcode),
						Detail: "truncated reply frame",
						Err:    err,
					}
				}
				return reply, nil, err
			}
			reply.Frames = append(reply.Frames, f)
			i += n

		default:
			rest = append(rest, tail[0])
			i++
		}
	}

	if len(rest) > 0 {
		res, err := Classify(rest)
		reply.Messages = res.Messages
		reply.Raw = res.Raw
		if err != nil {
			return reply, pending, err
		}
	}
	return reply, pending, nil
}

// Stream 在连续采集时跨越多次突发数据拆分应答帧。
// 一次读取末尾被截断的帧会保留下来，与下一次读取的数据拼接。
type Stream struct {
	opcode  byte
	pending []byte
}

// NewStream 创建一个拆分 opcode 应答帧的 Stream
func NewStream(opcode byte) *Stream {
	return &Stream{opcode: opcode}
}

// Feed 追加一次突发数据并返回其中完整的帧与系统消息
func (s *Stream) Feed(burst []byte) (Reply, error) {
	data := burst
	if len(s.pending) > 0 {
		data = append(s.pending, burst...)
	}
	reply, pending, err := demux(data, s.opcode, true)
	s.pending = pending
	return reply, err
}

// Pending 返回尚未拼成完整帧的字节数
func (s *Stream) Pending() int {
	return len(s.pending)
}

// Reset 丢弃未完成的字节
func (s *Stream) Reset() {
	s.pending = nil
}
