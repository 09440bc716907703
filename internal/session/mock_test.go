package session

import (
	"bytes"
	"sync"
	"time"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// mockDevice 为内存中的 ISX-3。每条写入的命令交给 respond，
// 其返回的数据段排队等待读取；队列中的 nil 读作一次读超时
type mockDevice struct {
	mu       sync.Mutex
	respond  func(cmd []byte) [][]byte
	queue    [][]byte
	writes   [][]byte
	writeErr error
}

func newMockDevice(respond func(cmd []byte) [][]byte) *mockDevice {
	return &mockDevice{respond: respond}
}

func (m *mockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	if m.respond != nil {
		for _, burst := range m.respond(p) {
			m.queue = append(m.queue, burst, nil)
		}
	}
	return len(p), nil
}

func (m *mockDevice) Read(p []byte) (int, error) {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	next := m.queue[0]
	if next == nil {
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return 0, nil
	}
	n := copy(p, next)
	if n < len(next) {
		m.queue[0] = next[n:]
	} else {
		m.queue = m.queue[1:]
	}
	m.mu.Unlock()
	return n, nil
}

func (m *mockDevice) written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *mockDevice) wrote(frame protocol.Frame) bool {
	for _, w := range m.written() {
		if bytes.Equal(w, frame.Bytes()) {
			return true
		}
	}
	return false
}

func ack() []byte {
	return protocol.MsgCommandAcknowledge.Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func mustFrame(opcode byte, payload []byte) []byte {
	f, err := protocol.Build(opcode, payload)
	if err != nil {
		panic(err)
	}
	return f.Bytes()
}

func sampleFrame(format protocol.ReplyFormat, id uint16, re, im float32) []byte {
	return mustFrame(protocol.CmdStartMeasure, format.EncodeSample(protocol.MeasurementSample{
		PointID:   id,
		Real:      re,
		Imaginary: im,
	}))
}
