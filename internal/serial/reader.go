package serial

import (
	"context"
	"io"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// 读取参数默认值
const (
	DefaultIdleThreshold = 1
	DefaultMaxBurst      = 64 * 1024

	readChunkSize = 256
)

// IdleOptions 控制 ReadUntilIdle 的结束条件
type IdleOptions struct {
	// IdleThreshold 连续空读次数达到该值即结束，默认 1
	IdleThreshold int `yaml:"idleThreshold"`
	// MaxBurst 一次突发数据的最大字节数，默认 64 KiB
	MaxBurst int `yaml:"maxBurst"`
}

func (o IdleOptions) withDefaults() IdleOptions {
	if o.IdleThreshold <= 0 {
		o.IdleThreshold = DefaultIdleThreshold
	}
	if o.MaxBurst <= 0 {
		o.MaxBurst = DefaultMaxBurst
	}
	return o
}

// ReadUntilIdle 循环读取 r，直到连续 IdleThreshold 次读取没有数据。
// 每次读到数据都会清零空读计数并追加到缓冲区；
// r 的 Read 在读超时后应返回 (0, nil)。
//
// 读取错误以 ErrTransport 返回，超过 MaxBurst 以 ErrMalformedFrame 返回，
// 两次读取之间检查 ctx。
func ReadUntilIdle(ctx context.Context, r io.Reader, opts IdleOptions) ([]byte, error) {
	opts = opts.withDefaults()
	var (
		out   []byte
		chunk = make([]byte, readChunkSize)
		idle  int
	)
	for idle < opts.IdleThreshold {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
			idle = 0
			if len(out) > opts.MaxBurst {
				return out, &protocol.Error{
					Kind:   protocol.ErrMalformedFrame,
					Op:     "read",
					Detail: "burst exceeds maximum size",
				}
			}
		} else {
			idle++
		}
		if err != nil {
			return out, &protocol.Error{Kind: protocol.ErrTransport, Op: "read", Err: err}
		}
	}
	return out, nil
}

// Burst 为监听协程读到的一段数据。空的 Data 表示一次空闲超时。
type Burst struct {
	Data []byte
	Err  error
}

// StartListener 启动一个 goroutine 持续读取 r：
// 每次读到数据立即以一个 Burst 推送到返回的通道，不等待线路空闲，
// 因此设备连续发送时数据也会被及时处理；
// 连续 IdleThreshold 次空读后推送一个空 Burst，便于调用方感知设备已停止发送。
// 读取出错或 ctx 取消后协程退出并关闭通道。
//
// 调用示例：
//
//	bursts := serial.StartListener(ctx, port, serial.IdleOptions{})
//	for b := range bursts {
//	    // 处理 b.Data
//	}
func StartListener(ctx context.Context, r io.Reader, opts IdleOptions) <-chan Burst {
	opts = opts.withDefaults()
	ch := make(chan Burst, 16)
	go func() {
		defer close(ch)
		var (
			chunk = make([]byte, readChunkSize)
			idle  int
		)
		for {
			if ctx.Err() != nil {
				return
			}
			n, err := r.Read(chunk)
			var b Burst
			if n > 0 {
				b.Data = append([]byte(nil), chunk[:n]...)
				idle = 0
			}
			if err != nil {
				b.Err = &protocol.Error{Kind: protocol.ErrTransport, Op: "read", Err: err}
			}
			if n == 0 && err == nil {
				idle++
				if idle < opts.IdleThreshold {
					continue
				}
				idle = 0
			}
			select {
			case ch <- b:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
