package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func canonicalSweep() FrequencySweepSpec {
	return FrequencySweepSpec{
		StartFreq:    500,
		StopFreq:     10000,
		Steps:        100,
		Scale:        ScaleLinear,
		Precision:    3.0,
		Amplitude:    0.0001,
		Excitation:   ExcitationCurrent,
		PointDelayUs: 1000,
		PhaseSync:    false,
	}
}

func TestBuildAddFrequencyListCmd(t *testing.T) {
	frame, err := BuildAddFrequencyListCmd(canonicalSweep())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := frame.Bytes()
	if len(frame.Payload) != AddFreqListPayloadSize {
		t.Fatalf("payload length = %d, want %d", len(frame.Payload), AddFreqListPayloadSize)
	}
	if !bytes.HasPrefix(b, []byte{0xB6, 0x25, 0x03}) {
		t.Errorf("frame prefix = % X, want B6 25 03", b[:3])
	}
	if b[len(b)-1] != 0xB6 {
		t.Errorf("trailing opcode = 0x%02X, want 0xB6", b[len(b)-1])
	}
	// 起始频率 500.0f
	if !bytes.Equal(b[3:7], []byte{0x43, 0xFA, 0x00, 0x00}) {
		t.Errorf("start = % X, want 43 FA 00 00", b[3:7])
	}
	// 频点延时标签与数值 1000
	if !bytes.Equal(b[24:29], []byte{0x01, 0x00, 0x00, 0x03, 0xE8}) {
		t.Errorf("point delay = % X", b[24:29])
	}
	// 相位同步关闭
	if !bytes.Equal(b[29:34], []byte{0x02, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("phase sync = % X", b[29:34])
	}
	// 电流激励
	if !bytes.Equal(b[34:39], []byte{0x03, 0x00, 0x00, 0x00, 0x02}) {
		t.Errorf("excitation = % X", b[34:39])
	}
}

func TestBuildAddFrequencyListCmdValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*FrequencySweepSpec)
	}{
		{name: "zero steps", modify: func(s *FrequencySweepSpec) { s.Steps = 0 }},
		{name: "steps not exact as float32", modify: func(s *FrequencySweepSpec) { s.Steps = MaxSteps + 1 }},
		{name: "log with zero start", modify: func(s *FrequencySweepSpec) {
			s.Scale = ScaleLogarithmic
			s.StartFreq = 0
		}},
		{name: "log with start above stop", modify: func(s *FrequencySweepSpec) {
			s.Scale = ScaleLogarithmic
			s.StartFreq, s.StopFreq = 1000, 100
		}},
		{name: "unknown scale", modify: func(s *FrequencySweepSpec) { s.Scale = 7 }},
		{name: "unknown excitation", modify: func(s *FrequencySweepSpec) { s.Excitation = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := canonicalSweep()
			tt.modify(&s)
			_, err := BuildAddFrequencyListCmd(s)
			if !errors.Is(err, ErrPayloadOutOfRange) {
				t.Errorf("error = %v, want ErrPayloadOutOfRange", err)
			}
		})
	}
}

func TestFixedCommands(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{name: "init setup", frame: BuildInitSetupCmd(), want: []byte{0xB6, 0x01, 0x01, 0xB6}},
		{name: "get freq count", frame: BuildGetFreqCountCmd(), want: []byte{0xB7, 0x01, 0x01, 0xB7}},
		{name: "get freq point", frame: BuildGetFreqPointCmd(3), want: []byte{0xB7, 0x03, 0x02, 0x00, 0x03, 0xB7}},
		{name: "get freq list", frame: BuildGetFreqListCmd(), want: []byte{0xB7, 0x01, 0x04, 0xB7}},
		{name: "start continuous", frame: BuildStartMeasurementCmd(0), want: []byte{0xB8, 0x03, 0x01, 0x00, 0x00, 0xB8}},
		{name: "start repeated", frame: BuildStartMeasurementCmd(10), want: []byte{0xB8, 0x03, 0x01, 0x00, 0x0A, 0xB8}},
		{name: "stop", frame: BuildStopMeasurementCmd(), want: []byte{0xB8, 0x01, 0x00, 0xB8}},
		{name: "device id", frame: BuildGetDeviceIDCmd(), want: []byte{0xD1, 0x00, 0xD1}},
		{name: "sync time", frame: BuildGetSyncTimeCmd(), want: []byte{0xBA, 0x00, 0xBA}},
		{name: "save settings", frame: BuildSaveSettingsCmd(), want: []byte{0x90, 0x00, 0x90}},
		{name: "reset", frame: BuildResetSystemCmd(), want: []byte{0xA1, 0x00, 0xA1}},
		{name: "get fe", frame: BuildGetFrontEndCmd(), want: []byte{0xB1, 0x00, 0xB1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("frame = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestBuildAddSingleFrequencyCmd(t *testing.T) {
	frame, err := BuildAddSingleFrequencyCmd(1000, 1, 0.01, 0, true, ExcitationVoltage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Payload) != AddSingleFreqPayloadSize {
		t.Errorf("payload length = %d, want %d", len(frame.Payload), AddSingleFreqPayloadSize)
	}
	if frame.Payload[0] != SetupAddSingleFreq {
		t.Errorf("sub-op = 0x%02X, want 0x%02X", frame.Payload[0], SetupAddSingleFreq)
	}
	if !bytes.Equal(frame.Payload[18:23], []byte{0x02, 0x00, 0x00, 0x00, 0x01}) {
		t.Errorf("phase sync = % X", frame.Payload[18:23])
	}

	if _, err := BuildAddSingleFrequencyCmd(1000, 1, 0.01, 0, false, 5); !errors.Is(err, ErrPayloadOutOfRange) {
		t.Errorf("error = %v, want ErrPayloadOutOfRange", err)
	}
}

func TestBuildSetAmplitudeCmd(t *testing.T) {
	frame, err := BuildSetAmplitudeCmd(ExcitationVoltage, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xB6, 0x06, 0x05, 0x01, 0x3E, 0x80, 0x00, 0x00, 0xB6}
	if got := frame.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("frame = % X, want % X", got, want)
	}
}

func TestBuildSetSyncTimeCmd(t *testing.T) {
	frame, err := BuildSetSyncTimeCmd(MaxSyncTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xB9, 0x04, 0x0A, 0xBA, 0x95, 0x00, 0xB9}
	if got := frame.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("frame = % X, want % X", got, want)
	}

	if _, err := BuildSetSyncTimeCmd(MaxSyncTime + 1); !errors.Is(err, ErrPayloadOutOfRange) {
		t.Errorf("error = %v, want ErrPayloadOutOfRange", err)
	}
}

func TestBuildFrontEndAndExtensionPort(t *testing.T) {
	fe, err := BuildSetFrontEndCmd(FrontEndSettings{Mode: Mode4Point, Channel: ChannelBNC, Range: Range10mA})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0xB0, 0x03, 0x02, 0x01, 0x01, 0xB0}; !bytes.Equal(fe.Bytes(), want) {
		t.Errorf("fe frame = % X, want % X", fe.Bytes(), want)
	}

	ch, err := BuildSetExtensionPortChannelCmd(ExtensionPortChannel{Counter: 1, Reference: 2, WorkingSense: 3, Work: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{0xB2, 0x04, 0x01, 0x02, 0x03, 0x04, 0xB2}; !bytes.Equal(ch.Bytes(), want) {
		t.Errorf("channel frame = % X, want % X", ch.Bytes(), want)
	}
}

func TestBuildReplyFormatCmds(t *testing.T) {
	frames, err := BuildReplyFormatCmds(ReplyFormat{Timestamp: TimestampMicros, CurrentRange: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if want := []byte{0x97, 0x02, 0x01, 0x02, 0x97}; !bytes.Equal(frames[0].Bytes(), want) {
		t.Errorf("timestamp frame = % X, want % X", frames[0].Bytes(), want)
	}
	if want := []byte{0x97, 0x02, 0x02, 0x01, 0x97}; !bytes.Equal(frames[1].Bytes(), want) {
		t.Errorf("current range frame = % X, want % X", frames[1].Bytes(), want)
	}

	if _, err := BuildReplyFormatCmds(ReplyFormat{Timestamp: 3}); !errors.Is(err, ErrPayloadOutOfRange) {
		t.Errorf("error = %v, want ErrPayloadOutOfRange", err)
	}
}

func TestBuildGetFirmwareIDCmd(t *testing.T) {
	for _, op := range []byte{CmdGetARMFirmwareID, CmdGetFPGAFirmwareID} {
		f, err := BuildGetFirmwareIDCmd(op)
		if err != nil {
			t.Fatalf("opcode 0x%02X: unexpected error: %v", op, err)
		}
		if want := []byte{op, 0x00, op}; !bytes.Equal(f.Bytes(), want) {
			t.Errorf("frame = % X, want % X", f.Bytes(), want)
		}
	}
	if _, err := BuildGetFirmwareIDCmd(CmdGetDeviceID); err == nil {
		t.Error("expected error for non firmware opcode")
	}
}

func TestBuildAddFrequencyListCmdMaxSteps(t *testing.T) {
	s := canonicalSweep()
	s.Steps = MaxSteps
	frame, err := BuildAddFrequencyListCmd(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ParseAddFrequencyListCmd(frame.Payload)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.Steps != MaxSteps {
		t.Errorf("steps = %d, want %d", got.Steps, MaxSteps)
	}
}
