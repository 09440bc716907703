package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// DeviceEntry 表示 devices.yaml 中的单个设备条目
type DeviceEntry struct {
	Name        string `yaml:"name"`
	ProfileName string `yaml:"profileName"`
	// Serial 为设备标签上的序列号，可选
	Serial string `yaml:"serial"`
}

type devicesYAML struct {
	DeviceList []DeviceEntry `yaml:"deviceList"`
}

// ResourceProperty 保存设备资源属性配置
type ResourceProperty struct {
	ValueType    string `yaml:"valueType"`
	ReadWrite    string `yaml:"readWrite"`
	Units        string `yaml:"units"`
	DefaultValue string `yaml:"defaultValue"`
}

// DeviceResource 对应 Profile 文件中的单个资源条目
type DeviceResource struct {
	Name        string           `yaml:"name"`
	IsHidden    bool             `yaml:"isHidden"`
	Description string           `yaml:"description"`
	Properties  ResourceProperty `yaml:"properties"`
}

type profileYAML struct {
	DeviceResources []DeviceResource `yaml:"deviceResources"`
}

var (
	// mu 保护下面的静态资源表和运行时值表
	mu sync.RWMutex
	// resourcesMap 存储所有设备的静态资源定义，key 为设备逻辑名称
	resourcesMap = make(map[string][]DeviceResource)
	// valuesMap 存储所有设备的运行时资源值，key: 设备名称 → (资源名称 → value)
	valuesMap = make(map[string]map[string]interface{})
)

// parseDefaultValue 根据 ValueType 将 DefaultValue 字符串转换为对应类型，
// 无法转换时返回该类型的零值
func parseDefaultValue(valStr, vt string) interface{} {
	v, err := ParseValue(vt, valStr)
	if err != nil {
		return zeroValue(vt)
	}
	return v
}

// ParseValue 将字符串按 EdgeX 值类型解析
func ParseValue(vt, s string) (interface{}, error) {
	switch vt {
	case "Float32":
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case "Float64":
		return strconv.ParseFloat(s, 64)
	case "Uint8":
		u, err := strconv.ParseUint(s, 10, 8)
		return uint8(u), err
	case "Uint16":
		u, err := strconv.ParseUint(s, 10, 16)
		return uint16(u), err
	case "Uint32":
		u, err := strconv.ParseUint(s, 10, 32)
		return uint32(u), err
	case "Uint64":
		return strconv.ParseUint(s, 10, 64)
	case "Bool":
		return strconv.ParseBool(s)
	case "String":
		return s, nil
	}
	return nil, fmt.Errorf("不支持的值类型 %s", vt)
}

func zeroValue(vt string) interface{} {
	switch vt {
	case "Float32":
		return float32(0)
	case "Float64":
		return float64(0)
	case "Uint8":
		return uint8(0)
	case "Uint16":
		return uint16(0)
	case "Uint32":
		return uint32(0)
	case "Uint64":
		return uint64(0)
	case "Bool":
		return false
	}
	return ""
}

// InitDeviceResources 初始化静态资源定义及默认运行时值：
// 1. 读取并解析 devices.yaml，获取所有设备条目，登记序列号映射
// 2. 根据 ProfileName 加载 Profile 文件，解析 deviceResources
// 3. 填充全局 maps，并将 DefaultValue 作为初始值写入 valuesMap
func InitDeviceResources(devicesPath, profilesDir string) ([]DeviceEntry, error) {
	raw, err := os.ReadFile(devicesPath)
	if err != nil {
		return nil, fmt.Errorf("无法读取设备列表文件 %s：%w", devicesPath, err)
	}
	var devs devicesYAML
	if err := yaml.Unmarshal(raw, &devs); err != nil {
		return nil, fmt.Errorf("解析 devices.yaml 失败：%w", err)
	}

	profiles := make(map[string][]DeviceResource)
	for _, entry := range devs.DeviceList {
		if _, ok := profiles[entry.ProfileName]; ok {
			continue
		}
		profileFile := filepath.Join(profilesDir, entry.ProfileName+".yaml")
		rawProfile, err := os.ReadFile(profileFile)
		if err != nil {
			return nil, fmt.Errorf("无法读取 Profile 文件 %s：%w", profileFile, err)
		}
		var prof profileYAML
		if err := yaml.Unmarshal(rawProfile, &prof); err != nil {
			return nil, fmt.Errorf("解析 Profile 文件 %s 失败：%w", profileFile, err)
		}
		profiles[entry.ProfileName] = prof.DeviceResources
	}

	for _, entry := range devs.DeviceList {
		SetDeviceResources(entry.Name, profiles[entry.ProfileName])
		if entry.Serial != "" {
			RegisterDevice(entry.Serial, entry.Name)
		}
	}
	return devs.DeviceList, nil
}

// SetDeviceResources 写入设备的静态资源定义，并把运行时值重置为默认值
func SetDeviceResources(deviceName string, resources []DeviceResource) {
	mu.Lock()
	defer mu.Unlock()
	resourcesMap[deviceName] = resources
	vals := make(map[string]interface{}, len(resources))
	for _, dr := range resources {
		vals[dr.Name] = parseDefaultValue(dr.Properties.DefaultValue, dr.Properties.ValueType)
	}
	valuesMap[deviceName] = vals
}

// GetDeviceResources 并发安全地获取指定设备的静态资源列表
func GetDeviceResources(deviceName string) ([]DeviceResource, bool) {
	mu.RLock()
	defer mu.RUnlock()
	res, ok := resourcesMap[deviceName]
	return res, ok
}

// LookupResource 查找设备的单个资源定义
func LookupResource(deviceName, resourceName string) (DeviceResource, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, dr := range resourcesMap[deviceName] {
		if dr.Name == resourceName {
			return dr, true
		}
	}
	return DeviceResource{}, false
}

// SetDeviceValue 并发安全地写入单个资源值
func SetDeviceValue(deviceName, resourceName string, value interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := valuesMap[deviceName]; !ok {
		valuesMap[deviceName] = make(map[string]interface{})
	}
	valuesMap[deviceName][resourceName] = value
}

// SetDeviceValues 在同一把锁下写入多个资源值
func SetDeviceValues(deviceName string, values map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := valuesMap[deviceName]; !ok {
		valuesMap[deviceName] = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		valuesMap[deviceName][k] = v
	}
}

// GetDeviceValue 获取单个资源值
func GetDeviceValue(deviceName, resourceName string) (interface{}, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := valuesMap[deviceName][resourceName]
	return v, ok
}

// GetDeviceValues 并发安全地获取指定设备的所有运行时资源值（副本）
func GetDeviceValues(deviceName string) (map[string]interface{}, bool) {
	mu.RLock()
	defer mu.RUnlock()
	vals, ok := valuesMap[deviceName]
	if !ok {
		return nil, false
	}
	copyMap := make(map[string]interface{}, len(vals))
	for k, v := range vals {
		copyMap[k] = v
	}
	return copyMap, true
}

// CopyDeviceValues 将 src 的资源定义和运行时值复制给 dst。
// src 与 dst 相同且已存在时不做任何事。
func CopyDeviceValues(src, dst string) error {
	mu.Lock()
	defer mu.Unlock()
	vals, ok := valuesMap[src]
	if !ok {
		return fmt.Errorf("设备 %s 没有资源值", src)
	}
	if src == dst {
		return nil
	}
	out := make(map[string]interface{}, len(vals))
	for k, v := range vals {
		out[k] = v
	}
	valuesMap[dst] = out
	if res, ok := resourcesMap[src]; ok {
		resourcesMap[dst] = append([]DeviceResource(nil), res...)
	}
	return nil
}

// DeleteDeviceValues 删除设备的资源定义和运行时值
func DeleteDeviceValues(deviceName string) {
	mu.Lock()
	defer mu.Unlock()
	delete(valuesMap, deviceName)
	delete(resourcesMap, deviceName)
}
