package config

// ISX-3 设备资源名
const (
	ResDeviceSerial = "DeviceSerial"
	ResARMFirmware  = "ARMFirmware"
	ResFPGAFirmware = "FPGAFirmware"

	ResSyncTime        = "SyncTime"
	ResFrontEndMode    = "FrontEndMode"
	ResFrontEndChannel = "FrontEndChannel"
	ResFrontEndRange   = "FrontEndRange"

	ResStartFrequency = "StartFrequency"
	ResStopFrequency  = "StopFrequency"
	ResFrequencySteps = "FrequencySteps"
	ResFrequencyScale = "FrequencyScale"
	ResPrecision      = "Precision"
	ResAmplitude      = "Amplitude"
	ResExcitation     = "Excitation"
	ResPointDelay     = "PointDelay"
	ResPhaseSync      = "PhaseSync"
	ResApplySetup     = "ApplySetup"
	ResFrequencyCount = "FrequencyCount"

	ResTimestampMode     = "TimestampMode"
	ResReplyCurrentRange = "ReplyCurrentRange"

	ResAcquire = "Acquire"
	ResRepeat  = "Repeat"

	ResPointID      = "PointID"
	ResFrequency    = "Frequency"
	ResReal         = "Real"
	ResImaginary    = "Imaginary"
	ResMagnitude    = "Magnitude"
	ResTimestamp    = "Timestamp"
	ResCurrentRange = "CurrentRange"
	ResSampleCount  = "SampleCount"

	ResSaveSettings = "SaveSettings"
	ResReset        = "Reset"
	ResLastError    = "LastError"
)

// param 为内置资源表中的一项
type param struct {
	name      string
	valueType string
	readWrite string
	units     string
	def       string
	desc      string
}

// paramTable 为 ISX-3 的内置资源表，Profile 文件缺省时使用
var paramTable = []param{
	{ResDeviceSerial, "String", "R", "", "", "设备序列号"},
	{ResARMFirmware, "String", "R", "", "", "ARM 固件版本"},
	{ResFPGAFirmware, "String", "R", "", "", "FPGA 固件版本"},

	{ResSyncTime, "Uint32", "RW", "us", "0", "两次频谱之间的同步时间"},
	{ResFrontEndMode, "Uint8", "RW", "", "2", "测量模式 1:2点 2:4点 3:3点"},
	{ResFrontEndChannel, "Uint8", "RW", "", "1", "通道 1:BNC 2:ExtensionPort 3:ExtensionPort2"},
	{ResFrontEndRange, "Uint8", "RW", "", "0", "电流量程 0:自动"},

	{ResStartFrequency, "Float32", "RW", "Hz", "100", "起始频率"},
	{ResStopFrequency, "Float32", "RW", "Hz", "1000000", "终止频率"},
	{ResFrequencySteps, "Uint32", "RW", "", "50", "频点数"},
	{ResFrequencyScale, "Uint8", "RW", "", "1", "0:线性 1:对数"},
	{ResPrecision, "Float32", "RW", "", "1", "测量精度"},
	{ResAmplitude, "Float32", "RW", "V/A", "0.01", "激励幅值"},
	{ResExcitation, "Uint8", "RW", "", "1", "1:电压 2:电流"},
	{ResPointDelay, "Uint32", "RW", "us", "0", "每个频点前的延时"},
	{ResPhaseSync, "Bool", "RW", "", "false", "相位同步"},
	{ResApplySetup, "Bool", "W", "", "false", "写 true 将扫频参数下发到设备"},
	{ResFrequencyCount, "Uint16", "R", "", "0", "设备中已配置的频点数"},

	{ResTimestampMode, "Uint8", "RW", "", "0", "测量应答时间戳 0:无 1:ms 2:us"},
	{ResReplyCurrentRange, "Bool", "RW", "", "false", "测量应答中携带电流量程"},

	{ResAcquire, "Bool", "RW", "", "false", "写 true 开始测量，写 false 停止"},
	{ResRepeat, "Uint16", "RW", "", "0", "测量的频谱数，0 为连续"},

	{ResPointID, "Uint16", "R", "", "0", "最近一个测量点的点号"},
	{ResFrequency, "Float64", "R", "Hz", "0", "最近一个测量点的频率"},
	{ResReal, "Float32", "R", "Ohm", "0", "阻抗实部"},
	{ResImaginary, "Float32", "R", "Ohm", "0", "阻抗虚部"},
	{ResMagnitude, "Float64", "R", "Ohm", "0", "阻抗模值"},
	{ResTimestamp, "Uint64", "R", "", "0", "测量点时间戳"},
	{ResCurrentRange, "Uint8", "R", "", "0", "测量点使用的电流量程"},
	{ResSampleCount, "Uint64", "R", "", "0", "本次测量已收到的测量点数"},

	{ResSaveSettings, "Bool", "W", "", "false", "写 true 保存设置到 flash"},
	{ResReset, "Bool", "W", "", "false", "写 true 重启设备"},
	{ResLastError, "String", "R", "", "", "最近一次采集错误"},
}

// DefaultResources 返回内置资源表
func DefaultResources() []DeviceResource {
	out := make([]DeviceResource, 0, len(paramTable))
	for _, p := range paramTable {
		out = append(out, DeviceResource{
			Name:        p.name,
			Description: p.desc,
			Properties: ResourceProperty{
				ValueType:    p.valueType,
				ReadWrite:    p.readWrite,
				Units:        p.units,
				DefaultValue: p.def,
			},
		})
	}
	return out
}

// SampleResources 为每个测量点推送给 EdgeX 的资源
var SampleResources = []string{
	ResPointID, ResFrequency, ResReal, ResImaginary, ResMagnitude, ResTimestamp, ResCurrentRange,
}

// ValueTypeOf 返回内置资源的值类型
func ValueTypeOf(resourceName string) (string, bool) {
	for _, p := range paramTable {
		if p.name == resourceName {
			return p.valueType, true
		}
	}
	return "", false
}
