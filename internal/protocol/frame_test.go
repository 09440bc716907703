package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildLengthInvariant(t *testing.T) {
	for size := 0; size <= MaxPayloadSize; size++ {
		payload := bytes.Repeat([]byte{FrameToken}, size)
		frame, err := Build(CmdSetSetup, payload)
		if err != nil {
			t.Fatalf("Build(size=%d) error: %v", size, err)
		}
		b := frame.Bytes()
		if len(b) != size+FrameOverhead {
			t.Fatalf("size %d: frame length = %d, want %d", size, len(b), size+FrameOverhead)
		}
		if int(b[1]) != size {
			t.Errorf("size %d: length byte = %d", size, b[1])
		}
		if b[0] != CmdSetSetup || b[len(b)-1] != CmdSetSetup {
			t.Errorf("size %d: opcodes = 0x%02X/0x%02X, want 0x%02X", size, b[0], b[len(b)-1], CmdSetSetup)
		}
	}
}

func TestBuildPayloadTooLarge(t *testing.T) {
	_, err := Build(CmdSetSetup, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery(CmdGetDeviceID).Bytes()
	if want := []byte{0xD1, 0x00, 0xD1}; !bytes.Equal(got, want) {
		t.Errorf("BuildQuery = % X, want % X", got, want)
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		opcode   byte
		wantLen  int
		wantUsed int
		wantErr  Kind
	}{
		{
			name:     "complete frame",
			input:    []byte{0xB7, 0x03, 0x01, 0x00, 0x64, 0xB7},
			opcode:   0xB7,
			wantLen:  3,
			wantUsed: 6,
		},
		{
			name:     "frame followed by system message",
			input:    []byte{0xBA, 0x04, 0x00, 0x00, 0x03, 0xE8, 0xBA, 0x18, 0x01, 0x83, 0x18},
			opcode:   0xBA,
			wantLen:  4,
			wantUsed: 7,
		},
		{
			name:     "token inside payload",
			input:    []byte{0xB8, 0x02, 0x18, 0x18, 0xB8},
			opcode:   0xB8,
			wantLen:  2,
			wantUsed: 5,
		},
		{
			name:    "wrong leading opcode",
			input:   []byte{0xB6, 0x01, 0x01, 0xB6},
			opcode:  0xB7,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "wrong trailing opcode",
			input:   []byte{0xB7, 0x01, 0x01, 0xB6},
			opcode:  0xB7,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "truncated",
			input:   []byte{0xB7, 0x05, 0x01, 0x02},
			opcode:  0xB7,
			wantErr: ErrIncompleteMultiFrameReply,
		},
		{
			name:    "too short",
			input:   []byte{0xB7},
			opcode:  0xB7,
			wantErr: ErrMalformedFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, used, err := ParseFrame(tt.input, tt.opcode)
			if tt.wantErr != 0 {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(frame.Payload) != tt.wantLen {
				t.Errorf("payload length = %d, want %d", len(frame.Payload), tt.wantLen)
			}
			if used != tt.wantUsed {
				t.Errorf("consumed = %d, want %d", used, tt.wantUsed)
			}
		})
	}
}
