package serial

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// scriptedReader 按顺序返回预设的读取结果；nil 表示一次读超时 (0, nil)
type scriptedReader struct {
	mu    sync.Mutex
	reads [][]byte
	err   error
	calls int
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.reads) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	next := r.reads[0]
	n := copy(p, next)
	if n < len(next) {
		r.reads[0] = next[n:]
	} else {
		r.reads = r.reads[1:]
	}
	return n, nil
}

func TestReadUntilIdle(t *testing.T) {
	tests := []struct {
		name      string
		reads     [][]byte
		threshold int
		want      []byte
		wantCalls int
	}{
		{
			name:      "concatenates until first empty read",
			reads:     [][]byte{{0x18, 0x01}, {0x83}, {0x18}, nil, {0xFF}},
			threshold: 1,
			want:      []byte{0x18, 0x01, 0x83, 0x18},
			wantCalls: 4,
		},
		{
			name:      "immediate idle",
			reads:     [][]byte{nil, {0x01}},
			threshold: 1,
			want:      nil,
			wantCalls: 1,
		},
		{
			name:      "threshold two survives a single gap",
			reads:     [][]byte{{0x01}, nil, {0x02}, nil, nil, {0x03}},
			threshold: 2,
			want:      []byte{0x01, 0x02},
			wantCalls: 5,
		},
		{
			name:      "large read split into chunks",
			reads:     [][]byte{bytes.Repeat([]byte{0xAB}, 600), nil},
			threshold: 1,
			want:      bytes.Repeat([]byte{0xAB}, 600),
			wantCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedReader{reads: tt.reads}
			got, err := ReadUntilIdle(context.Background(), r, IdleOptions{IdleThreshold: tt.threshold})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ReadUntilIdle = % X, want % X", got, tt.want)
			}
			if r.calls != tt.wantCalls {
				t.Errorf("reads = %d, want %d", r.calls, tt.wantCalls)
			}
		})
	}
}

func TestReadUntilIdleMaxBurst(t *testing.T) {
	r := &scriptedReader{reads: [][]byte{make([]byte, 100), make([]byte, 100), nil}}
	_, err := ReadUntilIdle(context.Background(), r, IdleOptions{MaxBurst: 150})
	if !errors.Is(err, protocol.ErrMalformedFrame) {
		t.Errorf("error = %v, want ErrMalformedFrame", err)
	}
}

func TestReadUntilIdleTransportError(t *testing.T) {
	broken := errors.New("device disconnected")
	r := &scriptedReader{reads: [][]byte{{0x01}}, err: broken}
	got, err := ReadUntilIdle(context.Background(), r, IdleOptions{})
	if !errors.Is(err, protocol.ErrTransport) || !errors.Is(err, broken) {
		t.Fatalf("error = %v, want ErrTransport wrapping %v", err, broken)
	}
	if !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("partial data = % X, want 01", got)
	}
}

func TestReadUntilIdleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &scriptedReader{reads: [][]byte{{0x01}}}
	if _, err := ReadUntilIdle(ctx, r, IdleOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if r.calls != 0 {
		t.Errorf("reads = %d, want 0", r.calls)
	}
}

func TestStartListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedReader{reads: [][]byte{{0x18, 0x01, 0x83, 0x18}, nil, {0x18, 0x01, 0x84, 0x18}, nil}}
	bursts := StartListener(ctx, r, IdleOptions{})

	var got [][]byte
	for b := range bursts {
		if b.Err != nil {
			t.Fatalf("burst error: %v", b.Err)
		}
		if len(b.Data) == 0 {
			if len(got) == 2 {
				cancel()
			}
			continue
		}
		got = append(got, b.Data)
	}

	if len(got) != 2 {
		t.Fatalf("bursts = %d, want 2", len(got))
	}
	if !bytes.Equal(got[0], []byte{0x18, 0x01, 0x83, 0x18}) || !bytes.Equal(got[1], []byte{0x18, 0x01, 0x84, 0x18}) {
		t.Errorf("bursts = % X", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Port: "/dev/ttyACM0"}.withDefaults()
	if c.BaudRate != DefaultBaudRate || c.ReadTimeout != DefaultReadTimeout || c.OpenAttempts != DefaultOpenAttempts {
		t.Errorf("defaults = %+v", c)
	}
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Error("Open with empty port name succeeded")
	}
}

func TestStartListenerDeliversWithoutIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连续数据总量超过 MaxBurst，中间没有空读
	chunk := bytes.Repeat([]byte{0xB8}, readChunkSize)
	reads := make([][]byte, 0, 300)
	for i := 0; i < 300; i++ {
		reads = append(reads, chunk)
	}
	r := &scriptedReader{reads: reads}
	bursts := StartListener(ctx, r, IdleOptions{})

	total := 0
	for b := range bursts {
		if b.Err != nil {
			t.Fatalf("burst error after %d bytes: %v", total, b.Err)
		}
		if len(b.Data) == 0 {
			if total == 300*readChunkSize {
				cancel()
			}
			continue
		}
		if len(b.Data) > readChunkSize {
			t.Fatalf("burst of %d bytes, want at most one read", len(b.Data))
		}
		total += len(b.Data)
	}
	if total != 300*readChunkSize {
		t.Errorf("got %d bytes, want %d", total, 300*readChunkSize)
	}
}
