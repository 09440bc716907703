package protocol

import (
	"errors"
	"fmt"
)

// Kind 为协议错误的分类，可直接作为哨兵值使用：
//
//	if errors.Is(err, protocol.ErrOvercurrent) { ... }
type Kind uint8

const (
	ErrMalformedFrame Kind = iota + 1
	ErrTimeout
	ErrUnrecognizedCommand
	ErrNotExecuted
	ErrOvercurrent
	ErrOvervoltage
	ErrDataHoldup
	ErrIncompleteMultiFrameReply
	ErrPayloadTooLarge
	ErrPayloadOutOfRange
	ErrTransport
)

func (k Kind) Error() string {
	switch k {
	case ErrMalformedFrame:
		return "malformed frame"
	case ErrTimeout:
		return "communication timeout"
	case ErrUnrecognizedCommand:
		return "command not recognized"
	case ErrNotExecuted:
		return "command not executed"
	case ErrOvercurrent:
		return "overcurrent detected"
	case ErrOvervoltage:
		return "overvoltage detected"
	case ErrDataHoldup:
		return "data holdup"
	case ErrIncompleteMultiFrameReply:
		return "incomplete multi-frame reply"
	case ErrPayloadTooLarge:
		return "payload too large"
	case ErrPayloadOutOfRange:
		return "payload out of range"
	case ErrTransport:
		return "transport error"
	default:
		return fmt.Sprintf("unknown error kind %d", uint8(k))
	}
}

// Error 为协议层返回的错误类型
type Error struct {
	// Kind 错误分类
	Kind Kind

	// Op 出错的命令或阶段（可选）
	Op string

	// Code 引发错误的系统消息码（如有）
	Code byte

	// Detail 附加说明（可选）
	Detail string

	// Err 底层错误（可选）
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (0x%02X)", e.Code)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 匹配 Kind 哨兵值
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// KindOf 返回 err 的 Kind；不是协议错误时返回 0
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return 0
}

// IsFatal 判断 err 是否为会中止测量的设备故障
func IsFatal(err error) bool {
	switch KindOf(err) {
	case ErrOvercurrent, ErrOvervoltage, ErrDataHoldup:
		return true
	}
	return false
}
