package frameparser

import (
	"fmt"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// State 是系统消息分类状态机的状态
type State int

const (
	// Seeking 扫描帧标记 0x18
	Seeking State = iota
	// InLength 已遇到 0x18，等待长度字节 0x01
	InLength
	// InMessage 已取得候选消息码，等待结尾 0x18
	InMessage
	// Done 缓冲区扫描结束
	Done
)

func (s State) String() string {
	switch s {
	case Seeking:
		return "Seeking"
	case InLength:
		return "InLength"
	case InMessage:
		return "InMessage"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result 是一次分类的结果。
// Messages 按出现顺序保存识别出的系统消息；
// 若缓冲区从未进入 InLength，则 Raw 原样返回整个缓冲区，交给命令专用解码。
type Result struct {
	Messages []protocol.SystemMessage
	Raw      []byte
}

// Classifier 是显式的有限状态机：
//
//	Seeking --0x18--> InLength --0x01--> InMessage --(code ... 0x18)--> Seeking
//
// 零值即可使用；每次 Classify 都从 Seeking 开始。
type Classifier struct {
	state   State
	code    byte
	hasCode bool
	partial bool
}

// State 返回当前状态，便于测试观察
func (c *Classifier) State() State { return c.state }

func (c *Classifier) reset() {
	*c = Classifier{state: Seeking}
}

// step 处理一个字节，若完成一条消息则返回 (code, true)
func (c *Classifier) step(b byte) (byte, bool) {
	switch c.state {
	case Seeking:
		if b == protocol.FrameToken {
			c.state = InLength
			c.partial = true
		}
	case InLength:
		switch b {
		case protocol.SystemMessageLength:
			c.state = InMessage
			c.hasCode = false
		case protocol.FrameToken:
			// 连续的 0x18：重新等待长度字节
		default:
			c.state = Seeking
			c.partial = false
		}
	case InMessage:
		if !c.hasCode {
			c.code, c.hasCode = b, true
			return 0, false
		}
		if b == protocol.FrameToken {
			c.state = Seeking
			c.partial = false
			return c.code, true
		}
	}
	return 0, false
}

// Classify 从左到右扫描 buf，提取其中的系统消息。
//
// 扫描结束时：若什么都没有识别出来且仍停在部分匹配中，返回 ErrMalformedFrame；
// 若没有形成任何系统消息，则 buf 作为原始应答返回。未知消息码返回 ErrMalformedFrame。
func (c *Classifier) Classify(buf []byte) (Result, error) {
	c.reset()
	var res Result
	for i, b := range buf {
		code, ok := c.step(b)
		if !ok {
			continue
		}
		msg, known := protocol.LookupSystemMessage(code)
		if !known {
			c.state = Done
			return res, &protocol.Error{
				Kind:   protocol.ErrMalformedFrame,
				Op:     "classify",
				Code:   code,
				Detail: fmt.Sprintf("unknown system message code at offset %d", i),
			}
		}
		res.Messages = append(res.Messages, msg)
	}

	partial := c.partial
	c.state = Done
	if len(res.Messages) == 0 && !partial {
		// 从未进入 InLength，或 0x18 之后不是系统消息
		res.Raw = buf
		return res, nil
	}
	if len(res.Messages) == 0 {
		return res, &protocol.Error{
			Kind:   protocol.ErrMalformedFrame,
			Op:     "classify",
			Detail: fmt.Sprintf("incomplete system message in % X", buf),
		}
	}
	return res, nil
}

// Classify 使用一个新的状态机对 buf 分类
func Classify(buf []byte) (Result, error) {
	var c Classifier
	return c.Classify(buf)
}
