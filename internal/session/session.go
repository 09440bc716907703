// Package session 通过字节传输通道驱动一台 ISX-3 设备。
//
// Session 持有传输句柄与当前的测量应答格式。命令严格按请求/应答进行：
// Session 串行化调用方，前一条应答读完之前不会写出下一条命令。
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"

	"github.com/linjuya-lu/device-isx3-go/internal/frameparser"
	"github.com/linjuya-lu/device-isx3-go/internal/monitor"
	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
)

// DefaultReplyPolls 命令等待首个应答字节的空闲读取周期数，超过后返回 ErrTimeout
const DefaultReplyPolls = 3

// Option 配置 Session
type Option func(*Session)

// WithLogger 设置日志客户端，默认丢弃所有日志
func WithLogger(lc logger.LoggingClient) Option {
	return func(s *Session) {
		if lc != nil {
			s.lc = lc
		}
	}
}

// WithMetrics 启用 Prometheus 指标
func WithMetrics(m *monitor.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithIdleOptions 设置读取结束策略
func WithIdleOptions(o serial.IdleOptions) Option {
	return func(s *Session) {
		s.idle = o
	}
}

// WithReplyPolls 设置命令在首个应答字节到达前容忍的空读周期数
func WithReplyPolls(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.replyPolls = n
		}
	}
}

// WithReplyFormat 设置设备已知的应答格式，不发送任何命令
func WithReplyFormat(f protocol.ReplyFormat) Option {
	return func(s *Session) {
		s.format = f
	}
}

// Session 为与一台设备的连接
type Session struct {
	mu sync.Mutex
	rw io.ReadWriter

	// stateMu 保护下面的字段，读取这些字段时不持有 mu
	stateMu sync.RWMutex
	format  protocol.ReplyFormat
	sweep   *protocol.FrequencySweepSpec

	lc         logger.LoggingClient
	metrics    *monitor.Metrics
	idle       serial.IdleOptions
	replyPolls int
}

// New 在 rw 上创建 Session。rw 的 Read 返回 (0, nil) 必须表示
// 读超时内没有数据
func New(rw io.ReadWriter, opts ...Option) *Session {
	s := &Session{
		rw:         rw,
		lc:         logger.NewMockClient(),
		replyPolls: DefaultReplyPolls,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplyFormat 返回当前的测量应答格式
func (s *Session) ReplyFormat() protocol.ReplyFormat {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.format
}

// UseReplyFormat 将 f 记为当前应答格式，不发送命令。
// 配置设备请使用 SetReplyFormat
func (s *Session) UseReplyFormat(f protocol.ReplyFormat) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.format = f
}

// Sweep 返回最近一次通过 Setup 配置的扫频，没有则为 nil
func (s *Session) Sweep() *protocol.FrequencySweepSpec {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.sweep == nil {
		return nil
	}
	sw := *s.sweep
	return &sw
}

func (s *Session) setSweep(sw *protocol.FrequencySweepSpec) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.sweep = sw
}

// Exec 写出 f 并返回拆分后的应答。
// 系统消息表示的设备拒绝与应答一并作为错误返回
func (s *Session) Exec(ctx context.Context, f protocol.Frame) (frameparser.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(ctx, f)
}

func (s *Session) exec(ctx context.Context, f protocol.Frame) (reply frameparser.Reply, err error) {
	op := protocol.CommandName(f.Opcode)
	start := time.Now()
	defer func() {
		s.metrics.ObserveCommand(op, err, time.Since(start))
	}()

	if err := s.write(f); err != nil {
		return frameparser.Reply{}, err
	}
	reply, err = s.readReply(ctx, f.Opcode)
	if err != nil {
		return reply, err
	}
	return reply, reply.Err(op)
}

func (s *Session) write(f protocol.Frame) error {
	s.lc.Tracef("-> % X", f.Bytes())
	if _, err := s.rw.Write(f.Bytes()); err != nil {
		return &protocol.Error{Kind: protocol.ErrTransport, Op: protocol.CommandName(f.Opcode), Err: err}
	}
	return nil
}

// readReply 最多等待 replyPolls 个空闲周期读取第一段数据，并按 opcode 拆分
func (s *Session) readReply(ctx context.Context, opcode byte) (frameparser.Reply, error) {
	for i := 0; i < s.replyPolls; i++ {
		data, err := serial.ReadUntilIdle(ctx, s.rw, s.idle)
		s.metrics.AddBytes(len(data))
		if err != nil {
			return frameparser.Reply{}, err
		}
		if len(data) == 0 {
			continue
		}
		s.lc.Tracef("<- % X", data)
		reply, err := frameparser.Demux(data, opcode)
		s.metrics.ObserveMessages(reply.Messages)
		return reply, err
	}
	return frameparser.Reply{}, &protocol.Error{
		Kind:   protocol.ErrTimeout,
		Op:     protocol.CommandName(opcode),
		Detail: fmt.Sprintf("no reply after %d read cycles", s.replyPolls),
	}
}

// command 发送只以确认消息应答的命令
func (s *Session) command(ctx context.Context, f protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandLocked(ctx, f)
}

func (s *Session) commandLocked(ctx context.Context, f protocol.Frame) error {
	reply, err := s.exec(ctx, f)
	if err != nil {
		return err
	}
	if !reply.Acknowledged() {
		return &protocol.Error{
			Kind:   protocol.ErrTimeout,
			Op:     protocol.CommandName(f.Opcode),
			Detail: "command was not acknowledged",
		}
	}
	return nil
}

// query 发送命令并返回其单帧应答的负载
func (s *Session) query(ctx context.Context, f protocol.Frame) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, err := s.exec(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(reply.Frames) == 0 {
		return nil, &protocol.Error{
			Kind:   protocol.ErrTimeout,
			Op:     protocol.CommandName(f.Opcode),
			Detail: "no reply frame received",
		}
	}
	return reply.Frames[0].Payload, nil
}
