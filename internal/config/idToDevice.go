package config

import "sync"

var (
	idMu sync.RWMutex
	// serialToDeviceName 是设备序列号（如 "01-002A-01F4-0C05"）到本地逻辑设备名的映射
	serialToDeviceName = map[string]string{}
)

// RegisterDevice 登记序列号与设备名的对应关系
func RegisterDevice(serial, deviceName string) {
	idMu.Lock()
	defer idMu.Unlock()
	serialToDeviceName[serial] = deviceName
}

// LookupDeviceName 根据序列号查找设备名
func LookupDeviceName(serial string) (string, bool) {
	idMu.RLock()
	defer idMu.RUnlock()
	name, ok := serialToDeviceName[serial]
	return name, ok
}

// LookupSerial 根据设备名查找序列号
func LookupSerial(deviceName string) (string, bool) {
	idMu.RLock()
	defer idMu.RUnlock()
	for s, name := range serialToDeviceName {
		if name == deviceName {
			return s, true
		}
	}
	return "", false
}

// DeleteMappingsByDevice 删除指向 deviceName 的所有映射
func DeleteMappingsByDevice(deviceName string) {
	idMu.Lock()
	defer idMu.Unlock()
	for s, name := range serialToDeviceName {
		if name == deviceName {
			delete(serialToDeviceName, s)
		}
	}
}
