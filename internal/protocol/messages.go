package protocol

import "fmt"

// SystemMessage 为设备发送的单字节状态码，帧格式为
//
//	[0x18][0x01][CODE][0x18]
//
// 与最近发送的命令无关。
type SystemMessage byte

// 系统消息码
const (
	MsgFrameNotAcknowledge        SystemMessage = 0x01
	MsgTimeout                    SystemMessage = 0x02
	MsgWakeUp                     SystemMessage = 0x04
	MsgTCPSocketValid             SystemMessage = 0x11
	MsgNotAcknowledgeNotExecuted  SystemMessage = 0x81
	MsgNotAcknowledgeUnrecognized SystemMessage = 0x82
	MsgCommandAcknowledge         SystemMessage = 0x83
	MsgSystemReady                SystemMessage = 0x84
	MsgOvercurrent                SystemMessage = 0x90
	MsgOvervoltage                SystemMessage = 0x91
	MsgDataHoldup                 SystemMessage = 0x92
)

var messageTable = map[SystemMessage]struct {
	name string
	desc string
}{
	MsgFrameNotAcknowledge:        {"FrameNotAcknowledge", "incorrect syntax"},
	MsgTimeout:                    {"Timeout", "communication timeout, less data than expected"},
	MsgWakeUp:                     {"WakeUp", "system boot ready"},
	MsgTCPSocketValid:             {"TcpSocketValid", "valid TCP client socket connection"},
	MsgNotAcknowledgeNotExecuted:  {"NotAcknowledgeNotExecuted", "command has not been executed"},
	MsgNotAcknowledgeUnrecognized: {"NotAcknowledgeUnrecognized", "command could not be recognized"},
	MsgCommandAcknowledge:         {"CommandAcknowledge", "command has been executed successfully"},
	MsgSystemReady:                {"SystemReady", "system is operational and ready to receive data"},
	MsgOvercurrent:                {"Overcurrent", "DC current on W-ports exceeds the configured current range"},
	MsgOvervoltage:                {"Overvoltage", "DC voltage between R and WS port exceeds the configured voltage range"},
	MsgDataHoldup:                 {"DataHoldup", "measurement data could not be sent via the master interface"},
}

// LookupSystemMessage 返回 code 对应的消息，以及该消息码是否已知
func LookupSystemMessage(code byte) (SystemMessage, bool) {
	m := SystemMessage(code)
	_, ok := messageTable[m]
	return m, ok
}

func (m SystemMessage) String() string {
	if e, ok := messageTable[m]; ok {
		return e.name
	}
	return fmt.Sprintf("SystemMessage(0x%02X)", byte(m))
}

// Description 返回消息的可读含义
func (m SystemMessage) Description() string {
	if e, ok := messageTable[m]; ok {
		return e.desc
	}
	return "unknown system message"
}

// Bytes 返回消息的线上字节
func (m SystemMessage) Bytes() []byte {
	return []byte{FrameToken, SystemMessageLength, byte(m), FrameToken}
}

// Err 将命令应答中的消息映射为对应的错误，
// 提示类消息返回 nil
func (m SystemMessage) Err(op string) error {
	var kind Kind
	switch m {
	case MsgFrameNotAcknowledge:
		kind = ErrMalformedFrame
	case MsgTimeout:
		kind = ErrTimeout
	case MsgNotAcknowledgeNotExecuted:
		kind = ErrNotExecuted
	case MsgNotAcknowledgeUnrecognized:
		kind = ErrUnrecognizedCommand
	case MsgOvercurrent:
		kind = ErrOvercurrent
	case MsgOvervoltage:
		kind = ErrOvervoltage
	case MsgDataHoldup:
		kind = ErrDataHoldup
	default:
		return nil
	}
	return &Error{Kind: kind, Op: op, Code: byte(m), Detail: "device reported " + m.String()}
}
