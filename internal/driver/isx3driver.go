// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2019-2023 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

// Package driver provides an implementation of a ProtocolDriver interface
// for the Sciospec ISX-3 impedance analyzer.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/edgexfoundry/device-sdk-go/v4/pkg/interfaces"
	dsModels "github.com/edgexfoundry/device-sdk-go/v4/pkg/models"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v4/models"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linjuya-lu/device-isx3-go/internal/config"
	"github.com/linjuya-lu/device-isx3-go/internal/monitor"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
	"github.com/linjuya-lu/device-isx3-go/internal/session"
	"github.com/linjuya-lu/device-isx3-go/internal/storage"
)

const (
	// ConfigFileKey 为 DriverConfigs 中配置文件路径的键
	ConfigFileKey = "ConfigFile"
	// ConfigFileEnv 为配置文件路径的环境变量
	ConfigFileEnv     = "ISX3_CONFIG"
	defaultConfigFile = "./res/isx3.yaml"
)

type Isx3Driver struct {
	lc      logger.LoggingClient
	asyncCh chan<- *dsModels.AsyncValues
	locker  sync.Mutex
	sdk     interfaces.DeviceServiceSDK

	cfg        *config.Config
	port       io.ReadWriteCloser
	sess       *session.Session
	metrics    *monitor.Metrics
	metricsSrv *http.Server
	redis      *storage.RedisSink

	// deviceName 为已连接设备在 EdgeX 中的名称
	deviceName string
	serialNo   string

	ctx    context.Context
	cancel context.CancelFunc

	acqMu     sync.Mutex
	acqCancel context.CancelFunc
	acqDone   chan struct{}
}

var once sync.Once
var driver *Isx3Driver

func NewIsx3Driver() interfaces.ProtocolDriver {
	once.Do(func() {
		driver = new(Isx3Driver)
	})
	return driver
}

func (d *Isx3Driver) Initialize(sdk interfaces.DeviceServiceSDK) error {
	d.sdk = sdk
	d.lc = sdk.LoggingClient()
	d.asyncCh = sdk.AsyncValuesChannel()

	path := sdk.DriverConfigs()[ConfigFileKey]
	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path == "" {
		path = defaultConfigFile
	}
	cfg, err := config.LoadConfig(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.lc.Warnf("配置文件 %s 不存在，使用默认配置", path)
		cfg = config.GetDefaultConfig()
	case err != nil:
		return err
	}
	d.cfg = cfg
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return nil
}

func (d *Isx3Driver) Start() error {
	cfg := d.cfg

	// —— 1. 初始化静态资源定义 + 默认初始值
	if _, err := config.InitDeviceResources(cfg.Resources.DevicesFile, cfg.Resources.ProfilesDir); err != nil {
		d.lc.Warnf("初始化设备资源失败，使用内置资源表: %v", err)
	}
	for sn, name := range cfg.Devices {
		config.RegisterDevice(sn, name)
	}

	// —— 2. 指标
	reg := prometheus.NewRegistry()
	d.metrics = monitor.NewMetrics(reg)
	if cfg.Monitor.Enabled {
		d.metricsSrv = monitor.StartMetricsServer(d.ctx, cfg.Monitor.Addr, reg, d.lc)
	}

	// —— 3. 打开串口
	port, err := serial.Open(d.ctx, cfg.Serial)
	if err != nil {
		return fmt.Errorf("打开串口 %s 失败: %w", cfg.Serial.Port, err)
	}
	d.port = port
	d.sess = session.New(port,
		session.WithLogger(d.lc),
		session.WithMetrics(d.metrics),
		session.WithIdleOptions(cfg.Idle),
		session.WithReplyPolls(cfg.ReplyPolls),
	)

	// —— 4. 识别设备并下发配置
	if err := d.connect(d.ctx); err != nil {
		return err
	}
	if err := d.applyConfig(d.ctx); err != nil {
		return fmt.Errorf("配置设备 %s 失败: %w", d.deviceName, err)
	}

	// —— 5. Redis
	if cfg.Redis.Enabled {
		rs, err := storage.NewRedisSink(d.ctx, d.deviceName, cfg.Redis, d.lc)
		if err != nil {
			d.lc.Errorf("Redis 不可用，测量数据不写入 Redis: %v", err)
		} else {
			d.redis = rs
		}
	}

	d.lc.Infof("ISX-3 %s (%s) 已连接: %s", d.deviceName, d.serialNo, cfg.Serial.Port)

	if cfg.Acquisition.AutoStart {
		return d.startAcquisition(cfg.Acquisition.Repeat)
	}
	return nil
}

// connect 读取设备序列号并确定设备名
func (d *Isx3Driver) connect(ctx context.Context) error {
	id, err := d.sess.GetDeviceID(ctx)
	if err != nil {
		return fmt.Errorf("读取设备 ID 失败: %w", err)
	}
	d.serialNo = id.Serial()

	name := d.cfg.DeviceName
	if name == "" {
		if n, ok := config.LookupDeviceName(d.serialNo); ok {
			name = n
		} else {
			name = "isx3-" + d.serialNo
		}
	}
	d.deviceName = name
	config.RegisterDevice(d.serialNo, name)
	d.ensureResources(name)
	config.SetDeviceValue(name, config.ResDeviceSerial, d.serialNo)

	if fw, err := d.sess.GetARMFirmwareID(ctx); err == nil {
		config.SetDeviceValue(name, config.ResARMFirmware, fw.String())
	} else {
		d.lc.Warnf("读取 ARM 固件版本失败: %v", err)
	}
	if fw, err := d.sess.GetFPGAFirmwareID(ctx); err == nil {
		config.SetDeviceValue(name, config.ResFPGAFirmware, fw.String())
	} else {
		d.lc.Warnf("读取 FPGA 固件版本失败: %v", err)
	}
	d.lc.Infof("设备 ID: %s, 出厂 %d-%02d", d.serialNo, id.DeliveryYear(), id.DeliveryMonth)
	return nil
}

// applyConfig 将配置文件中的测量参数下发到设备
func (d *Isx3Driver) applyConfig(ctx context.Context) error {
	cfg := d.cfg
	if err := d.sess.SetReplyFormat(ctx, cfg.ReplyFormat); err != nil {
		return err
	}
	config.SetDeviceValues(d.deviceName, config.ReplyFormatValues(cfg.ReplyFormat))

	if cfg.FrontEnd != nil {
		if err := d.sess.SetFrontEnd(ctx, *cfg.FrontEnd); err != nil {
			return err
		}
		config.SetDeviceValues(d.deviceName, config.FrontEndValues(*cfg.FrontEnd))
	}
	if cfg.SyncTimeUs != nil {
		if err := d.sess.SetSyncTime(ctx, *cfg.SyncTimeUs); err != nil {
			return err
		}
		config.SetDeviceValue(d.deviceName, config.ResSyncTime, *cfg.SyncTimeUs)
	}
	if err := d.sess.Setup(ctx, cfg.Sweep); err != nil {
		return err
	}
	config.SetDeviceValues(d.deviceName, config.SweepValues(cfg.Sweep))
	config.SetDeviceValue(d.deviceName, config.ResRepeat, cfg.Acquisition.Repeat)
	return nil
}

// ensureResources 设备没有 Profile 时使用内置资源表
func (d *Isx3Driver) ensureResources(deviceName string) {
	if _, ok := config.GetDeviceResources(deviceName); !ok {
		config.SetDeviceResources(deviceName, config.DefaultResources())
	}
}

func (d *Isx3Driver) HandleReadCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest) (res []*dsModels.CommandValue, err error) {
	d.locker.Lock()
	defer d.locker.Unlock()

	d.lc.Debugf("HandleReadCommands 调用: 设备=%s, 请求资源数=%d", deviceName, len(reqs))

	now := time.Now().UnixNano()
	results := make([]*dsModels.CommandValue, 0, len(reqs))
	for _, req := range reqs {
		resName := req.DeviceResourceName
		val, err := d.readResource(deviceName, resName)
		if err != nil {
			d.lc.Errorf("读取 %s.%s 失败: %v", deviceName, resName, err)
			return nil, err
		}
		cv, err := dsModels.NewCommandValue(resName, req.Type, val)
		if err != nil {
			return nil, fmt.Errorf("资源 %s 的值 %v 与类型 %s 不符: %w", resName, val, req.Type, err)
		}
		cv.Origin = now
		results = append(results, cv)
		d.lc.Debugf("读取值: %s.%s = %v", deviceName, resName, val)
	}
	return results, nil
}

func (d *Isx3Driver) HandleWriteCommands(deviceName string, protocols map[string]models.ProtocolProperties, reqs []dsModels.CommandRequest,
	params []*dsModels.CommandValue) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	d.lc.Debugf("HandleWriteCommands 调用: 设备=%s, 写入请求数=%d", deviceName, len(reqs))

	if len(reqs) != len(params) {
		return fmt.Errorf("请求数与参数数不匹配: %d vs %d", len(reqs), len(params))
	}
	for i, req := range reqs {
		if err := d.writeResource(deviceName, req.DeviceResourceName, params[i]); err != nil {
			d.lc.Errorf("写入 %s.%s 失败: %v", deviceName, req.DeviceResourceName, err)
			return err
		}
		d.lc.Infof("写入值: %s.%s = %v", deviceName, req.DeviceResourceName, params[i].Value)
	}
	return nil
}

func (d *Isx3Driver) Stop(force bool) error {
	d.lc.Info("Isx3Driver.Stop: device-isx3 driver is stopping...")

	if !force {
		d.stopAcquisition()
	}
	if d.cancel != nil {
		d.cancel()
	}
	var errs []error
	if d.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, d.metricsSrv.Shutdown(ctx))
		cancel()
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.port != nil {
		errs = append(errs, d.port.Close())
	}
	return errors.Join(errs...)
}

func (d *Isx3Driver) AddDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("a new Device is added: %s", deviceName)
	if err := config.CopyDeviceValues(deviceName, deviceName); err != nil {
		config.SetDeviceResources(deviceName, config.DefaultResources())
		d.lc.Infof("设备 %s 使用内置资源表", deviceName)
	}
	return nil
}

func (d *Isx3Driver) UpdateDevice(deviceName string, protocols map[string]models.ProtocolProperties, adminState models.AdminState) error {
	d.lc.Debugf("Device %s is updated", deviceName)
	if deviceName == d.deviceName && adminState == models.Locked {
		d.lc.Infof("设备 %s 已锁定，停止测量", deviceName)
		d.stopAcquisition()
	}
	return nil
}

func (d *Isx3Driver) RemoveDevice(deviceName string, protocols map[string]models.ProtocolProperties) error {
	d.lc.Debugf("Device %s is removed", deviceName)
	if deviceName == d.deviceName {
		d.stopAcquisition()
	}
	config.DeleteDeviceValues(deviceName)
	config.DeleteMappingsByDevice(deviceName)
	d.lc.Infof("已移除设备 %s 的所有运行时数据和映射", deviceName)
	return nil
}

// Discover 只列出可用串口，设备需在 devices.yaml 中登记
func (d *Isx3Driver) Discover() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return fmt.Errorf("枚举串口失败: %w", err)
	}
	d.lc.Infof("可用串口: %v", ports)
	return nil
}

func (d *Isx3Driver) ValidateDevice(device models.Device) error {
	d.lc.Debugf("validate device %s", device.Name)
	return nil
}
