package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linjuya-lu/device-isx3-go/internal/frameparser"
	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
)

// AcquireRequest 测量参数
type AcquireRequest struct {
	// Repeat 测量的谱数，0 表示连续测量直到 ctx 取消
	Repeat uint16

	// Points 每个谱的频点数，为 0 时使用最近一次 Setup 的频点数
	Points int
}

// AcquireResult 一次测量的结果汇总
type AcquireResult struct {
	Samples  int
	Stopped  bool
	Duration time.Duration
}

// Acquire 启动测量，并把解码后的采样依次交给 sink。
//
// 以下情况返回：收齐期望的采样数；有限次测量且频点数未知时，收到数据后设备进入空闲；
// ctx 被取消。有限次测量且频点数已知时，收到数据后连续空闲 replyPolls 个周期
// 仍未收齐则返回 ErrIncompleteMultiFrameReply。
// ctx 取消时发送停止命令，继续接收剩余采样，直到停止命令被确认且线路空闲，
// 然后返回并置 Stopped，不视为错误。
//
// 致命系统消息（Overcurrent、Overvoltage、DataHoldup）会中止测量：
// 错误交给 sink 并返回，不再发送任何命令。
func (s *Session) Acquire(ctx context.Context, req AcquireRequest, sink Sink) (res AcquireResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := req.Points
	if points == 0 {
		if sw := s.Sweep(); sw != nil {
			points = int(sw.Steps)
		}
	}
	expected := 0
	if req.Repeat > 0 && points > 0 {
		expected = int(req.Repeat) * points
	}
	format := s.ReplyFormat()

	start := time.Now()
	done := s.metrics.AcquisitionStarted()
	defer func() {
		done()
		res.Duration = time.Since(start)
		s.metrics.ObserveAcquisitionError(err)
		if err != nil {
			sink.HandleError(err)
		}
	}()

	startCmd := protocol.BuildStartMeasurementCmd(req.Repeat)
	if err := s.write(startCmd); err != nil {
		return res, err
	}
	s.lc.Infof("measurement started: repeat=%d points=%d expected=%d", req.Repeat, points, expected)

	// 监听协程不绑定 ctx：取消后仍需等待停止命令的应答并接收在途采样
	listenCtx, cancelListen := context.WithCancel(context.Background())
	bursts := serial.StartListener(listenCtx, s.rw, s.idle)
	defer func() {
		cancelListen()
		for range bursts {
		}
	}()

	var (
		stream   = frameparser.NewStream(protocol.CmdStartMeasure)
		sinkCtx  = context.WithoutCancel(ctx)
		canceled = ctx.Done()
		acked    bool
		gotData  bool
		stopping bool
		stopAck  bool
		sinkErr  error
		idle     int
	)

	stop := func() error {
		stopping = true
		idle = 0
		return s.write(protocol.BuildStopMeasurementCmd())
	}

	for {
		select {
		case <-canceled:
			canceled = nil
			s.lc.Infof("measurement canceled, stopping device")
			res.Stopped = true
			if err := stop(); err != nil {
				return res, err
			}

		case b, ok := <-bursts:
			if !ok {
				return res, &protocol.Error{Kind: protocol.ErrTransport, Op: "acquire", Detail: "listener stopped"}
			}
			if b.Err != nil {
				return res, b.Err
			}
			s.metrics.AddBytes(len(b.Data))

			if len(b.Data) == 0 {
				idle++
				switch {
				case stopping && (stopAck || idle >= s.replyPolls):
					return res, sinkErr
				case stopping:
				case req.Repeat > 0 && gotData && (expected == 0 || idle >= s.replyPolls):
					if res.Samples < expected {
						return res, &protocol.Error{
							Kind:   protocol.ErrIncompleteMultiFrameReply,
							Op:     protocol.CommandName(protocol.CmdStartMeasure),
							Detail: fmt.Sprintf("got %d of %d samples before the device went idle", res.Samples, expected),
						}
					}
					return res, nil
				case !acked && !gotData && idle >= s.replyPolls:
					return res, &protocol.Error{
						Kind:   protocol.ErrTimeout,
						Op:     protocol.CommandName(protocol.CmdStartMeasure),
						Detail: "measurement did not start",
					}
				}
				continue
			}
			idle = 0

			reply, ferr := stream.Feed(b.Data)
			s.metrics.ObserveMessages(reply.Messages)
			// 启动与停止的确认可能在同一次读取中到达
			for _, m := range reply.Messages {
				if m != protocol.MsgCommandAcknowledge {
					continue
				}
				if stopping && acked {
					stopAck = true
				}
				acked = true
			}
			if err := reply.Err("acquire"); err != nil {
				if protocol.IsFatal(err) {
					s.lc.Errorf("measurement aborted: %v", err)
					return res, err
				}
				if !stopping {
					return res, err
				}
				s.lc.Warnf("while stopping: %v", err)
			}
			if ferr != nil {
				s.lc.Warnf("acquire: %v", ferr)
				sink.HandleError(ferr)
			}

			for _, f := range reply.Frames {
				// 启动/停止回显比任何采样都短
				if len(f.Payload) <= protocol.MeasureEchoMaxSize {
					continue
				}
				gotData = true
				sample, derr := format.DecodeSample(f.Payload)
				if derr != nil {
					sink.HandleError(derr)
					continue
				}
				if sinkErr != nil {
					continue
				}
				if herr := sink.HandleSample(sinkCtx, sample); herr != nil {
					s.lc.Errorf("sink rejected sample %d: %v", sample.PointID, herr)
					sinkErr = herr
					if !stopping {
						if err := stop(); err != nil {
							return res, errors.Join(herr, err)
						}
					}
					continue
				}
				res.Samples++
				s.metrics.IncSamples()
			}

			if expected > 0 && res.Samples >= expected && !stopping {
				s.lc.Infof("measurement finished: %d samples", res.Samples)
				return res, nil
			}
		}
	}
}
