package config

import (
	"context"
	"sync"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/storage"
)

// ValueSink 将最近一个测量点写入运行时值表，供 HandleReadCommands 读取
type ValueSink struct {
	device string

	mu    sync.Mutex
	freqs []float64
	count uint64
}

func NewValueSink(device string, freqs []float64) *ValueSink {
	return &ValueSink{device: device, freqs: freqs}
}

func (v *ValueSink) HandleSample(_ context.Context, s protocol.MeasurementSample) error {
	v.mu.Lock()
	v.count++
	count := v.count
	freq, _ := storage.FrequencyOf(v.freqs, s.PointID)
	v.mu.Unlock()

	vals := SampleValues(s, freq)
	vals[ResSampleCount] = count
	SetDeviceValues(v.device, vals)
	return nil
}

func (v *ValueSink) HandleError(err error) {
	if err != nil {
		SetDeviceValue(v.device, ResLastError, err.Error())
	}
}

// Count 返回已写入的测量点数
func (v *ValueSink) Count() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.count
}
