package frameparser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

func TestDemux(t *testing.T) {
	tests := []struct {
		name       string
		burst      []byte
		opcode     byte
		wantFrames int
		wantMsgs   []protocol.SystemMessage
		wantErr    protocol.Kind
	}{
		{
			name:     "ack only",
			burst:    []byte{0x18, 0x01, 0x83, 0x18},
			opcode:   protocol.CmdSetSetup,
			wantMsgs: []protocol.SystemMessage{protocol.MsgCommandAcknowledge},
		},
		{
			name:       "frame then ack",
			burst:      []byte{0xBA, 0x04, 0x00, 0x0F, 0x42, 0x40, 0xBA, 0x18, 0x01, 0x83, 0x18},
			opcode:     protocol.CmdGetSyncTime,
			wantFrames: 1,
			wantMsgs:   []protocol.SystemMessage{protocol.MsgCommandAcknowledge},
		},
		{
			name:       "token and message pattern inside payload",
			burst:      []byte{0xB8, 0x04, 0x18, 0x01, 0x90, 0x18, 0xB8, 0x18, 0x01, 0x83, 0x18},
			opcode:     protocol.CmdStartMeasure,
			wantFrames: 1,
			wantMsgs:   []protocol.SystemMessage{protocol.MsgCommandAcknowledge},
		},
		{
			name:       "two frames",
			burst:      []byte{0xB7, 0x01, 0x04, 0xB7, 0xB7, 0x01, 0x04, 0xB7},
			opcode:     protocol.CmdGetSetup,
			wantFrames: 2,
		},
		{
			name:     "save settings opcode equals overcurrent code",
			burst:    []byte{0x18, 0x01, 0x90, 0x18},
			opcode:   protocol.CmdSaveSettings,
			wantMsgs: []protocol.SystemMessage{protocol.MsgOvercurrent},
		},
		{
			name:    "wrong trailing opcode",
			burst:   []byte{0xD1, 0x01, 0x00, 0xD0},
			opcode:  protocol.CmdGetDeviceID,
			wantErr: protocol.ErrMalformedFrame,
		},
		{
			name:    "truncated single frame",
			burst:   []byte{0xD1, 0x09, 0x01, 0x00},
			opcode:  protocol.CmdGetDeviceID,
			wantErr: protocol.ErrMalformedFrame,
		},
		{
			name:    "truncated second frame",
			burst:   []byte{0xB7, 0x01, 0x04, 0xB7, 0xB7, 0x09, 0x04},
			opcode:  protocol.CmdGetSetup,
			wantErr: protocol.ErrIncompleteMultiFrameReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := Demux(tt.burst, tt.opcode)
			if tt.wantErr != 0 {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(reply.Frames) != tt.wantFrames {
				t.Errorf("frames = %d, want %d", len(reply.Frames), tt.wantFrames)
			}
			if len(reply.Messages) != len(tt.wantMsgs) {
				t.Fatalf("messages = %v, want %v", reply.Messages, tt.wantMsgs)
			}
			for i := range tt.wantMsgs {
				if reply.Messages[i] != tt.wantMsgs[i] {
					t.Errorf("message[%d] = %v, want %v", i, reply.Messages[i], tt.wantMsgs[i])
				}
			}
		})
	}
}

func TestDemuxPayloadWithTokens(t *testing.T) {
	burst := []byte{0xB8, 0x04, 0x18, 0x01, 0x90, 0x18, 0xB8}
	reply, err := Demux(burst, protocol.CmdStartMeasure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reply.Messages) != 0 {
		t.Errorf("messages = %v, want none", reply.Messages)
	}
	if want := []byte{0x18, 0x01, 0x90, 0x18}; !bytes.Equal(reply.Frames[0].Payload, want) {
		t.Errorf("payload = % X, want % X", reply.Frames[0].Payload, want)
	}
}

func TestReplyErr(t *testing.T) {
	reply := Reply{Messages: []protocol.SystemMessage{
		protocol.MsgNotAcknowledgeNotExecuted,
		protocol.MsgDataHoldup,
	}}
	err := reply.Err("start measure")
	if !errors.Is(err, protocol.ErrDataHoldup) {
		t.Errorf("Err = %v, want fatal DataHoldup first", err)
	}

	reply = Reply{Messages: []protocol.SystemMessage{protocol.MsgCommandAcknowledge}}
	if err := reply.Err("x"); err != nil {
		t.Errorf("Err = %v, want nil", err)
	}
	if !reply.Acknowledged() {
		t.Error("Acknowledged = false")
	}

	reply = Reply{Messages: []protocol.SystemMessage{protocol.MsgNotAcknowledgeUnrecognized}}
	if err := reply.Err("x"); !errors.Is(err, protocol.ErrUnrecognizedCommand) {
		t.Errorf("Err = %v, want ErrUnrecognizedCommand", err)
	}
}

func TestStreamCarriesPartialFrames(t *testing.T) {
	format := protocol.ReplyFormat{}
	sample := format.EncodeSample(protocol.MeasurementSample{PointID: 1, Real: 1, Imaginary: 2})
	f, err := protocol.Build(protocol.CmdStartMeasure, sample)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	wire := append(f.Bytes(), f.Bytes()...)
	wire = append(wire, protocol.MsgCommandAcknowledge.Bytes()...)

	s := NewStream(protocol.CmdStartMeasure)
	var frames int
	var msgs []protocol.SystemMessage
	// 每次送入三个字节
	for i := 0; i < len(wire); i += 3 {
		end := i + 3
		if end > len(wire) {
			end = len(wire)
		}
		reply, err := s.Feed(wire[i:end])
		if err != nil {
			t.Fatalf("Feed(% X) error: %v", wire[i:end], err)
		}
		frames += len(reply.Frames)
		msgs = append(msgs, reply.Messages...)
		for _, fr := range reply.Frames {
			if !bytes.Equal(fr.Payload, sample) {
				t.Errorf("payload = % X, want % X", fr.Payload, sample)
			}
		}
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
	if len(msgs) != 1 || msgs[0] != protocol.MsgCommandAcknowledge {
		t.Errorf("messages = %v, want [CommandAcknowledge]", msgs)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}
