package session

import (
	"context"
	"errors"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// Sink 按到达顺序接收解码后的采样，以及测量过程中出现的错误
type Sink interface {
	// HandleSample 每个采样调用一次，返回非 nil 错误会停止测量
	HandleSample(ctx context.Context, s protocol.MeasurementSample) error

	// HandleError 报告解码失败以及中止测量的错误
	HandleError(err error)
}

// ChanSink 通过通道传递采样与错误。向 Samples 发送会阻塞到接收方就绪或 ctx 结束，
// Errors 满时丢弃错误
type ChanSink struct {
	Samples chan<- protocol.MeasurementSample
	Errors  chan<- error
}

func (c ChanSink) HandleSample(ctx context.Context, s protocol.MeasurementSample) error {
	if c.Samples == nil {
		return nil
	}
	select {
	case c.Samples <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c ChanSink) HandleError(err error) {
	if c.Errors == nil {
		return
	}
	select {
	case c.Errors <- err:
	default:
	}
}

// MultiSink 按顺序把每个采样与错误分发给所有 sink
type MultiSink []Sink

func (m MultiSink) HandleSample(ctx context.Context, s protocol.MeasurementSample) error {
	var errs []error
	for _, sink := range m {
		if err := sink.HandleSample(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) HandleError(err error) {
	for _, sink := range m {
		sink.HandleError(err)
	}
}
