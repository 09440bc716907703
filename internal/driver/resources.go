package driver

import (
	"context"
	"fmt"

	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/common"

	"github.com/linjuya-lu/device-isx3-go/internal/config"
)

// readResource 返回资源的当前值。
// 对已连接设备，未在测量时设备参数类资源会先从设备读取并刷新值表。
func (d *Isx3Driver) readResource(deviceName, resName string) (interface{}, error) {
	if deviceName == d.deviceName && d.sess != nil && !d.acquiring() {
		if err := d.refresh(d.ctx, resName); err != nil {
			return nil, err
		}
	}
	val, ok := config.GetDeviceValue(deviceName, resName)
	if !ok {
		return nil, fmt.Errorf("设备 %s 上未找到资源 %s 的值", deviceName, resName)
	}
	return val, nil
}

// refresh 从设备读取资源对应的参数
func (d *Isx3Driver) refresh(ctx context.Context, resName string) error {
	dev := d.deviceName
	switch resName {
	case config.ResDeviceSerial:
		id, err := d.sess.GetDeviceID(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValue(dev, resName, id.Serial())
	case config.ResARMFirmware:
		fw, err := d.sess.GetARMFirmwareID(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValue(dev, resName, fw.String())
	case config.ResFPGAFirmware:
		fw, err := d.sess.GetFPGAFirmwareID(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValue(dev, resName, fw.String())
	case config.ResSyncTime:
		us, err := d.sess.GetSyncTime(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValue(dev, resName, us)
	case config.ResFrontEndMode, config.ResFrontEndChannel, config.ResFrontEndRange:
		fe, err := d.sess.GetFrontEnd(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValues(dev, config.FrontEndValues(*fe))
	case config.ResFrequencyCount:
		n, err := d.sess.GetFrequencyCount(ctx)
		if err != nil {
			return err
		}
		config.SetDeviceValue(dev, resName, uint16(n))
	case config.ResTimestampMode, config.ResReplyCurrentRange:
		config.SetDeviceValues(dev, config.ReplyFormatValues(d.sess.ReplyFormat()))
	}
	return nil
}

// writeResource 处理单个资源的写入。设备参数写入设备，扫频参数先暂存，
// 写 ApplySetup 时一起下发。
func (d *Isx3Driver) writeResource(deviceName, resName string, cv *dsModels.CommandValue) error {
	value, err := commandValue(cv)
	if err != nil {
		return err
	}
	if rw, ok := resourceAccess(deviceName, resName); ok && rw == "R" {
		return fmt.Errorf("资源 %s 只读", resName)
	}

	switch resName {
	case config.ResRepeat,
		config.ResStartFrequency, config.ResStopFrequency, config.ResFrequencySteps, config.ResFrequencyScale,
		config.ResPrecision, config.ResAmplitude, config.ResExcitation, config.ResPointDelay, config.ResPhaseSync:
		config.SetDeviceValue(deviceName, resName, value)
		return nil
	}

	if deviceName != d.deviceName || d.sess == nil {
		return fmt.Errorf("设备 %s 未连接", deviceName)
	}
	ctx := d.ctx

	if resName == config.ResAcquire {
		on, _ := value.(bool)
		if !on {
			d.stopAcquisition()
			return nil
		}
		repeat, _ := config.GetDeviceValue(deviceName, config.ResRepeat)
		r, _ := repeat.(uint16)
		return d.startAcquisition(r)
	}
	if d.acquiring() {
		return errAcquisitionRunning
	}

	switch resName {
	case config.ResApplySetup:
		if on, _ := value.(bool); !on {
			return nil
		}
		vals, _ := config.GetDeviceValues(deviceName)
		sw, err := config.SweepFromValues(vals)
		if err != nil {
			return err
		}
		return d.sess.Setup(ctx, sw)

	case config.ResSyncTime:
		us, _ := value.(uint32)
		if err := d.sess.SetSyncTime(ctx, us); err != nil {
			return err
		}

	case config.ResFrontEndMode, config.ResFrontEndChannel, config.ResFrontEndRange:
		vals := withValue(deviceName, resName, value)
		fe, err := config.FrontEndFromValues(vals)
		if err != nil {
			return err
		}
		if err := d.sess.SetFrontEnd(ctx, fe); err != nil {
			return err
		}

	case config.ResTimestampMode, config.ResReplyCurrentRange:
		vals := withValue(deviceName, resName, value)
		f, err := config.ReplyFormatFromValues(vals)
		if err != nil {
			return err
		}
		if err := d.sess.SetReplyFormat(ctx, f); err != nil {
			return err
		}

	case config.ResSaveSettings:
		if on, _ := value.(bool); on {
			return d.sess.SaveSettings(ctx)
		}
		return nil

	case config.ResReset:
		if on, _ := value.(bool); on {
			return d.sess.Reset(ctx)
		}
		return nil

	default:
		return fmt.Errorf("资源 %s 不可写", resName)
	}

	config.SetDeviceValue(deviceName, resName, value)
	return nil
}

// withValue 返回设备当前值表的副本，并替换其中一项
func withValue(deviceName, resName string, value interface{}) map[string]interface{} {
	vals, ok := config.GetDeviceValues(deviceName)
	if !ok {
		vals = make(map[string]interface{})
	}
	vals[resName] = value
	return vals
}

func resourceAccess(deviceName, resName string) (string, bool) {
	if dr, ok := config.LookupResource(deviceName, resName); ok {
		return dr.Properties.ReadWrite, true
	}
	return "", false
}

// commandValue 按值类型取出 CommandValue 中的值
func commandValue(cv *dsModels.CommandValue) (interface{}, error) {
	switch cv.Type {
	case common.ValueTypeBool:
		return cv.BoolValue()
	case common.ValueTypeString:
		return cv.StringValue()
	case common.ValueTypeUint8:
		return cv.Uint8Value()
	case common.ValueTypeUint16:
		return cv.Uint16Value()
	case common.ValueTypeUint32:
		return cv.Uint32Value()
	case common.ValueTypeUint64:
		return cv.Uint64Value()
	case common.ValueTypeFloat32:
		return cv.Float32Value()
	case common.ValueTypeFloat64:
		return cv.Float64Value()
	}
	return nil, fmt.Errorf("资源 %s 的值类型 %s 不支持", cv.DeviceResourceName, cv.Type)
}
