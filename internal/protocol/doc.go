// Package protocol 实现 Sciospec ISX-3 阻抗谱仪的命令集与帧编解码。
//
// # 帧格式
//
// 每条命令及其应答都以操作码作为帧首和帧尾：
//
//	[OPCODE][LE][PAYLOAD(LE bytes)][OPCODE]
//
// 无负载的查询以 [OPCODE][00][OPCODE] 发送。单帧最多携带 MaxPayloadSize 字节，
// 更长的应答由设备拆成多个相同操作码的帧。
//
// 设备还会独立于所发命令发送系统消息：
//
//	[18][01][CODE][18]
//
// # 命令构造
//
// Build* 函数为纯函数，在写出任何字节之前校验参数：
//
//	frame, err := protocol.BuildAddFrequencyListCmd(sweep)
//	frame := protocol.BuildStartMeasurementCmd(0) // 连续测量
//
// # 应答解析
//
// Parse* 函数在应答帧与系统消息分离之后（见 frameparser 包）解码应答负载：
//
//	id, err := protocol.ParseDeviceIDResponse(payload)
//	sample, err := format.DecodeSample(payload)
//
// # 错误
//
// 失败以携带 Kind 的 *Error 返回，Kind 同时可作为 errors.Is 的哨兵值：
//
//	if errors.Is(err, protocol.ErrOvercurrent) { ... }
//
// 所有数值字段均为大端序。
package protocol
