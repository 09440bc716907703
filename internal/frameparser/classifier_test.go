package frameparser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    []protocol.SystemMessage
		wantRaw bool
		wantErr protocol.Kind
	}{
		{
			name:  "command acknowledge",
			input: []byte{0x18, 0x01, 0x83, 0x18},
			want:  []protocol.SystemMessage{protocol.MsgCommandAcknowledge},
		},
		{
			name:  "overcurrent",
			input: []byte{0x18, 0x01, 0x90, 0x18},
			want:  []protocol.SystemMessage{protocol.MsgOvercurrent},
		},
		{
			name:  "two messages in one burst",
			input: []byte{0x18, 0x01, 0x84, 0x18, 0x18, 0x01, 0x83, 0x18},
			want:  []protocol.SystemMessage{protocol.MsgSystemReady, protocol.MsgCommandAcknowledge},
		},
		{
			name:  "leading garbage",
			input: []byte{0x00, 0x42, 0x18, 0x01, 0x82, 0x18},
			want:  []protocol.SystemMessage{protocol.MsgNotAcknowledgeUnrecognized},
		},
		{
			name:  "repeated token before length",
			input: []byte{0x18, 0x18, 0x01, 0x81, 0x18},
			want:  []protocol.SystemMessage{protocol.MsgNotAcknowledgeNotExecuted},
		},
		{
			name:    "raw reply",
			input:   []byte{0xD1, 0x02, 0x01, 0x02, 0xD1},
			wantRaw: true,
		},
		{
			name:    "token not followed by length",
			input:   []byte{0x18, 0x05, 0x00},
			wantRaw: true,
		},
		{
			name:    "message cut at buffer end",
			input:   []byte{0x18, 0x01, 0x83},
			wantErr: protocol.ErrMalformedFrame,
		},
		{
			name:    "only token and length",
			input:   []byte{0x18, 0x01},
			wantErr: protocol.ErrMalformedFrame,
		},
		{
			name:    "unknown code",
			input:   []byte{0x18, 0x01, 0x55, 0x18},
			wantErr: protocol.ErrMalformedFrame,
		},
		{
			name:  "trailing partial after message",
			input: []byte{0x18, 0x01, 0x83, 0x18, 0x18, 0x01},
			want:  []protocol.SystemMessage{protocol.MsgCommandAcknowledge},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Classify(tt.input)
			if tt.wantErr != 0 {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantRaw {
				if !bytes.Equal(res.Raw, tt.input) {
					t.Errorf("Raw = % X, want % X", res.Raw, tt.input)
				}
				if len(res.Messages) != 0 {
					t.Errorf("Messages = %v, want none", res.Messages)
				}
				return
			}
			if len(res.Messages) != len(tt.want) {
				t.Fatalf("Messages = %v, want %v", res.Messages, tt.want)
			}
			for i := range tt.want {
				if res.Messages[i] != tt.want[i] {
					t.Errorf("Messages[%d] = %v, want %v", i, res.Messages[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassifierEndsInDone(t *testing.T) {
	var c Classifier
	if _, err := c.Classify([]byte{0x18, 0x01, 0x83, 0x18}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State() != Done {
		t.Errorf("state = %v, want Done", c.State())
	}
}

func TestClassifyOvercurrentIsFatal(t *testing.T) {
	res, err := Classify([]byte{0x18, 0x01, 0x90, 0x18})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply := Reply{Messages: res.Messages}
	if !protocol.IsFatal(reply.Err("acquire")) {
		t.Errorf("Overcurrent reply error %v is not fatal", reply.Err("acquire"))
	}
}
