package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"golang.org/x/sync/errgroup"

	"github.com/linjuya-lu/device-isx3-go/internal/config"
	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/session"
	"github.com/linjuya-lu/device-isx3-go/internal/storage"
)

// SampleSourceName 为测量点 AsyncValues 的 SourceName
const SampleSourceName = "Impedance"

var errAcquisitionRunning = errors.New("测量正在进行")

// acquiring 判断是否正在测量
func (d *Isx3Driver) acquiring() bool {
	d.acqMu.Lock()
	defer d.acqMu.Unlock()
	return d.acqCancel != nil
}

// startAcquisition 在后台协程中开始测量，repeat 为 0 时连续测量直到 stopAcquisition
func (d *Isx3Driver) startAcquisition(repeat uint16) error {
	d.acqMu.Lock()
	defer d.acqMu.Unlock()
	if d.acqCancel != nil {
		return errAcquisitionRunning
	}
	if d.sess == nil {
		return fmt.Errorf("设备未连接")
	}

	ctx, cancel := context.WithCancel(d.ctx)
	done := make(chan struct{})
	d.acqCancel, d.acqDone = cancel, done
	config.SetDeviceValue(d.deviceName, config.ResAcquire, true)

	go func() {
		defer close(done)
		err := d.runAcquisition(ctx, repeat)
		if err != nil {
			d.lc.Errorf("设备 %s 测量失败: %v", d.deviceName, err)
		}

		config.SetDeviceValue(d.deviceName, config.ResAcquire, false)
		d.acqMu.Lock()
		d.acqCancel, d.acqDone = nil, nil
		d.acqMu.Unlock()
		cancel()
	}()
	return nil
}

// stopAcquisition 取消测量并等待设备停止，最长等待 StopTimeout
func (d *Isx3Driver) stopAcquisition() {
	d.acqMu.Lock()
	cancel, done := d.acqCancel, d.acqDone
	d.acqMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	timeout := d.cfg.Acquisition.StopTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case <-done:
	case <-time.After(timeout):
		d.lc.Warnf("设备 %s 在 %v 内未停止测量", d.deviceName, timeout)
	}
}

// runAcquisition 运行一次测量：一个协程驱动 Session.Acquire，
// 另一个协程把测量点转换为 AsyncValues 推送给 SDK。
// 运行时值表与 Redis 在 Acquire 协程中同步写入。
func (d *Isx3Driver) runAcquisition(ctx context.Context, repeat uint16) error {
	var freqs []float64
	if sw := d.sess.Sweep(); sw != nil {
		freqs = sw.Frequencies()
	}

	size := d.cfg.Acquisition.BufferSize
	if size <= 0 {
		size = 256
	}
	samples := make(chan protocol.MeasurementSample, size)
	sinks := session.MultiSink{
		session.ChanSink{Samples: samples},
		config.NewValueSink(d.deviceName, freqs),
	}
	if d.redis != nil {
		d.redis.SetDevice(d.deviceName)
		d.redis.SetFrequencies(freqs)
		sinks = append(sinks, d.redis)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(samples)
		res, err := d.sess.Acquire(gctx, session.AcquireRequest{Repeat: repeat}, sinks)
		d.lc.Infof("设备 %s 测量结束: %d 个测量点, 用时 %v, 主动停止 %t",
			d.deviceName, res.Samples, res.Duration, res.Stopped)
		return err
	})
	g.Go(func() error {
		for s := range samples {
			freq, _ := storage.FrequencyOf(freqs, s.PointID)
			av, err := sampleAsyncValues(d.deviceName, s, freq, time.Now())
			if err != nil {
				d.lc.Errorf("转换测量点 %d 失败: %v", s.PointID, err)
				continue
			}
			d.asyncCh <- av
		}
		return nil
	})
	return g.Wait()
}

// sampleAsyncValues 将测量点转换为推送给 EdgeX 的 AsyncValues
func sampleAsyncValues(deviceName string, s protocol.MeasurementSample, freq float64, at time.Time) (*dsModels.AsyncValues, error) {
	vals := config.SampleValues(s, freq)
	cvs := make([]*dsModels.CommandValue, 0, len(config.SampleResources))
	for _, name := range config.SampleResources {
		vt, _ := config.ValueTypeOf(name)
		cv, err := dsModels.NewCommandValue(name, vt, vals[name])
		if err != nil {
			return nil, err
		}
		cv.Origin = at.UnixNano()
		cvs = append(cvs, cv)
	}
	return &dsModels.AsyncValues{
		DeviceName:    deviceName,
		SourceName:    SampleSourceName,
		CommandValues: cvs,
	}, nil
}
