package protocol

// 帧结构常量
const (
	// FrameToken 为系统消息的起止标记 (0x18)
	FrameToken = 0x18

	// SystemMessageLength 为系统消息携带的长度字节
	SystemMessageLength = 0x01

	// MaxPayloadSize 为单帧可携带的最大负载，
	// 更长的应答由设备拆分为多帧
	MaxPayloadSize = 252

	// FrameOverhead = 操作码(1) + 长度(1) + 结尾操作码(1)
	FrameOverhead = 3
)

// ISX-3 指令集操作码
const (
	// CmdSaveSettings 将以太网、WLAN、电池与 LED 参数写入 flash
	CmdSaveSettings = 0x90

	// CmdSetOptions 配置测量应答格式
	CmdSetOptions = 0x97

	// CmdGetOptions 读取测量应答格式
	CmdGetOptions = 0x98

	// CmdResetSystem 重启设备
	CmdResetSystem = 0xA1

	// CmdSetFrontEnd 设置测量模式、通道与电流量程
	CmdSetFrontEnd = 0xB0

	// CmdGetFrontEnd 读取前端设置
	CmdGetFrontEnd = 0xB1

	// CmdSetExtensionPortChannel 选择扩展口通道
	CmdSetExtensionPortChannel = 0xB2

	// CmdGetExtensionPortChannel 读取扩展口通道
	CmdGetExtensionPortChannel = 0xB3

	// CmdGetExtensionPortModule 读取已连接的扩展模块
	CmdGetExtensionPortModule = 0xB5

	// CmdSetSetup 编辑扫频配置
	CmdSetSetup = 0xB6

	// CmdGetSetup 读取扫频配置
	CmdGetSetup = 0xB7

	// CmdStartMeasure 启动或停止测量
	CmdStartMeasure = 0xB8

	// CmdSetSyncTime 设置两次谱测量之间的间隔 (µs)
	CmdSetSyncTime = 0xB9

	// CmdGetSyncTime 读取同步时间
	CmdGetSyncTime = 0xBA

	// CmdGetARMFirmwareID 读取 ARM 固件版本
	CmdGetARMFirmwareID = 0xD0

	// CmdGetDeviceID 读取设备标识
	CmdGetDeviceID = 0xD1

	// CmdGetFPGAFirmwareID 读取 FPGA 固件版本
	CmdGetFPGAFirmwareID = 0xD2
)

// CmdSetSetup 子操作码
const (
	SetupInit          = 0x01
	SetupAddSingleFreq = 0x02
	SetupAddFreqList   = 0x03
	SetupSetAmplitude  = 0x05
)

// CmdGetSetup 子操作码
const (
	SetupGetFreqCount = 0x01
	SetupGetFreqPoint = 0x02
	SetupGetFreqList  = 0x04
)

// CmdStartMeasure 子操作码
const (
	MeasureStop  = 0x00
	MeasureStart = 0x01

	// MeasureEchoMaxSize 为启动/停止回显帧的最大负载：子操作码 + 重复次数(2)
	MeasureEchoMaxSize = 3
)

// 添加频点命令的附加选项标签
const (
	optPointDelay = 0x01
	optPhaseSync  = 0x02
	optExcitation = 0x03
)

// CmdSetOptions 选项字节
const (
	OptionTimestamp    = 0x01
	OptionCurrentRange = 0x02
)

// 命令数据的限值与长度
const (
	// AddFreqListPayloadSize 为添加频率列表命令的负载长度
	AddFreqListPayloadSize = 0x25

	// AddSingleFreqPayloadSize 为添加单个频点命令的负载长度
	AddSingleFreqPayloadSize = 0x1C

	// MaxSyncTime 为允许的最大同步时间（180 s，单位 µs）
	MaxSyncTime = 180_000_000

	// DeviceIDInfoSize 为 GetDeviceID 应答中通用信息块的长度
	DeviceIDInfoSize = 7

	// FirmwareIDSize 为固件 ID 应答的负载长度
	FirmwareIDSize = 9

	// FreqPointReplySize = 子操作码(1) + 频率(4) + 精度(4) + 幅值(4)
	FreqPointReplySize = 13

	// FreqCountReplySize = 子操作码(1) + 数量(2)
	FreqCountReplySize = 3

	// DeliveryBaseYear 为出厂日期中偏移 0 对应的年份
	DeliveryBaseYear = 2010
)
