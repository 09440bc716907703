package session

import (
	"context"

	"github.com/linjuya-lu/device-isx3-go/internal/frameparser"
	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
	"github.com/linjuya-lu/device-isx3-go/internal/serial"
)

// GetDeviceID 读取设备标识
func (s *Session) GetDeviceID(ctx context.Context) (*protocol.DeviceIdentity, error) {
	p, err := s.query(ctx, protocol.BuildGetDeviceIDCmd())
	if err != nil {
		return nil, err
	}
	return protocol.ParseDeviceIDResponse(p)
}

// GetARMFirmwareID 读取 ARM 固件版本
func (s *Session) GetARMFirmwareID(ctx context.Context) (*protocol.FirmwareID, error) {
	return s.getFirmwareID(ctx, protocol.CmdGetARMFirmwareID)
}

// GetFPGAFirmwareID 读取 FPGA 固件版本
func (s *Session) GetFPGAFirmwareID(ctx context.Context) (*protocol.FirmwareID, error) {
	return s.getFirmwareID(ctx, protocol.CmdGetFPGAFirmwareID)
}

func (s *Session) getFirmwareID(ctx context.Context, opcode byte) (*protocol.FirmwareID, error) {
	f, err := protocol.BuildGetFirmwareIDCmd(opcode)
	if err != nil {
		return nil, err
	}
	p, err := s.query(ctx, f)
	if err != nil {
		return nil, err
	}
	return protocol.ParseFirmwareIDResponse(p)
}

// SetSyncTime 设置两次谱测量之间的间隔 (µs)
func (s *Session) SetSyncTime(ctx context.Context, us uint32) error {
	f, err := protocol.BuildSetSyncTimeCmd(us)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// GetSyncTime 读取两次谱测量之间的间隔 (µs)
func (s *Session) GetSyncTime(ctx context.Context) (uint32, error) {
	p, err := s.query(ctx, protocol.BuildGetSyncTimeCmd())
	if err != nil {
		return 0, err
	}
	return protocol.ParseSyncTimeResponse(p)
}

// SetFrontEnd 设置测量模式、通道与电流量程
func (s *Session) SetFrontEnd(ctx context.Context, fe protocol.FrontEndSettings) error {
	f, err := protocol.BuildSetFrontEndCmd(fe)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// GetFrontEnd 读取前端设置
func (s *Session) GetFrontEnd(ctx context.Context) (*protocol.FrontEndSettings, error) {
	p, err := s.query(ctx, protocol.BuildGetFrontEndCmd())
	if err != nil {
		return nil, err
	}
	return protocol.ParseFrontEndResponse(p)
}

// SetExtensionPortChannel 选择扩展口模块的通道
func (s *Session) SetExtensionPortChannel(ctx context.Context, ch protocol.ExtensionPortChannel) error {
	f, err := protocol.BuildSetExtensionPortChannelCmd(ch)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// GetExtensionPortChannel 读取当前选择的扩展口通道
func (s *Session) GetExtensionPortChannel(ctx context.Context) (*protocol.ExtensionPortChannel, error) {
	p, err := s.query(ctx, protocol.BuildGetExtensionPortChannelCmd())
	if err != nil {
		return nil, err
	}
	return protocol.ParseExtensionPortChannelResponse(p)
}

// GetExtensionPortModule 读取已连接的扩展模块
func (s *Session) GetExtensionPortModule(ctx context.Context) (*protocol.ExtensionModule, error) {
	p, err := s.query(ctx, protocol.BuildGetExtensionPortModuleCmd())
	if err != nil {
		return nil, err
	}
	return protocol.ParseExtensionPortModuleResponse(p)
}

// InitSetup 清空设备的扫频配置
func (s *Session) InitSetup(ctx context.Context) error {
	if err := s.command(ctx, protocol.BuildInitSetupCmd()); err != nil {
		return err
	}
	s.setSweep(nil)
	return nil
}

// AddFrequencyList 向设备配置追加频率列表，写出前先校验参数
func (s *Session) AddFrequencyList(ctx context.Context, sweep protocol.FrequencySweepSpec) error {
	f, err := protocol.BuildAddFrequencyListCmd(sweep)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// Setup 用 sweep 替换设备配置（InitSetup 后 AddFrequencyList），
// 并记录 sweep 以便将频点 ID 映射为频率
func (s *Session) Setup(ctx context.Context, sweep protocol.FrequencySweepSpec) error {
	f, err := protocol.BuildAddFrequencyListCmd(sweep)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commandLocked(ctx, protocol.BuildInitSetupCmd()); err != nil {
		return err
	}
	s.setSweep(nil)
	if err := s.commandLocked(ctx, f); err != nil {
		return err
	}
	s.setSweep(&sweep)
	s.lc.Debugf("setup: %g..%g Hz, %d points", sweep.StartFreq, sweep.StopFreq, sweep.Steps)
	return nil
}

// AddSingleFrequency 向设备配置追加一个频点
func (s *Session) AddSingleFrequency(ctx context.Context, freq, precision, amplitude float32, delayUs uint32, phaseSync bool, exc protocol.Excitation) error {
	f, err := protocol.BuildAddSingleFrequencyCmd(freq, precision, amplitude, delayUs, phaseSync, exc)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// SetAmplitude 设置所有已配置频点的激励幅值
func (s *Session) SetAmplitude(ctx context.Context, exc protocol.Excitation, amplitude float32) error {
	f, err := protocol.BuildSetAmplitudeCmd(exc, amplitude)
	if err != nil {
		return err
	}
	return s.command(ctx, f)
}

// GetFrequencyCount 读取已配置的频点数
func (s *Session) GetFrequencyCount(ctx context.Context) (int, error) {
	p, err := s.query(ctx, protocol.BuildGetFreqCountCmd())
	if err != nil {
		return 0, err
	}
	n, err := protocol.ParseFreqCountResponse(p)
	return int(n), err
}

// GetFrequencyPoint 按行号读取一个已配置频点
func (s *Session) GetFrequencyPoint(ctx context.Context, row uint16) (*protocol.FreqPoint, error) {
	p, err := s.query(ctx, protocol.BuildGetFreqPointCmd(row))
	if err != nil {
		return nil, err
	}
	return protocol.ParseFreqPointResponse(p)
}

// GetFrequencyList 读取已配置的频率列表。先查询频点数，
// 再据此检查多帧列表应答是否收齐
func (s *Session) GetFrequencyList(ctx context.Context) ([]float32, error) {
	count, err := s.GetFrequencyCount(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := protocol.BuildGetFreqListCmd()
	if err := s.write(f); err != nil {
		return nil, err
	}
	a := frameparser.NewAssembler(protocol.CmdGetSetup, protocol.SetupGetFreqList, count*4)
	op := protocol.CommandName(f.Opcode)
	// 列表帧可能被截断在两次读取之间
	stream := frameparser.NewStream(f.Opcode)
	for idle := 0; idle < s.replyPolls && !a.Done(); {
		data, err := serial.ReadUntilIdle(ctx, s.rw, s.idle)
		s.metrics.AddBytes(len(data))
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			idle++
			continue
		}
		idle = 0
		reply, err := stream.Feed(data)
		s.metrics.ObserveMessages(reply.Messages)
		if err != nil {
			return nil, err
		}
		if err := reply.Err(op); err != nil {
			return nil, err
		}
		if _, err := a.AddReply(reply); err != nil {
			return nil, err
		}
	}
	if err := a.Check(); err != nil {
		return nil, err
	}
	return protocol.ParseFreqListResponse(a.Payloads(), count)
}

// SetReplyFormat 在设备上配置测量应答格式，并将其作为解码采样的当前格式
func (s *Session) SetReplyFormat(ctx context.Context, f protocol.ReplyFormat) error {
	frames, err := protocol.BuildReplyFormatCmds(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fr := range frames {
		if err := s.commandLocked(ctx, fr); err != nil {
			return err
		}
	}
	s.UseReplyFormat(f)
	return nil
}

// SaveSettings 将设备设置写入 flash，仅在没有测量运行时有效
func (s *Session) SaveSettings(ctx context.Context) error {
	return s.command(ctx, protocol.BuildSaveSettingsCmd())
}

// Reset 重启设备。设备启动后发送 WakeUp 与 SystemReady，
// 收到其中之一或确认消息即视为完成
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, err := s.exec(ctx, protocol.BuildResetSystemCmd())
	if err != nil {
		return err
	}
	for _, m := range reply.Messages {
		switch m {
		case protocol.MsgCommandAcknowledge, protocol.MsgWakeUp, protocol.MsgSystemReady:
			s.setSweep(nil)
			return nil
		}
	}
	return &protocol.Error{Kind: protocol.ErrTimeout, Op: "reset system", Detail: "device did not confirm the reset"}
}
