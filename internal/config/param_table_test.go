package config

import (
	"context"
	"errors"
	"testing"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

func TestDefaultResources(t *testing.T) {
	seen := map[string]bool{}
	for _, dr := range DefaultResources() {
		if seen[dr.Name] {
			t.Errorf("duplicate resource %s", dr.Name)
		}
		seen[dr.Name] = true
		if _, err := ParseValue(dr.Properties.ValueType, dr.Properties.DefaultValue); err != nil {
			t.Errorf("resource %s: default %q is not a %s", dr.Name, dr.Properties.DefaultValue, dr.Properties.ValueType)
		}
	}
	for _, name := range SampleResources {
		if _, ok := ValueTypeOf(name); !ok {
			t.Errorf("sample resource %s missing from table", name)
		}
	}
}

func TestDefaultValuesFormValidSettings(t *testing.T) {
	SetDeviceResources("isx3-defaults", DefaultResources())
	vals, _ := GetDeviceValues("isx3-defaults")

	sw, err := SweepFromValues(vals)
	if err != nil {
		t.Fatalf("SweepFromValues error: %v", err)
	}
	if sw.Steps != 50 || sw.Scale != protocol.ScaleLogarithmic {
		t.Errorf("sweep = %+v", sw)
	}
	fe, err := FrontEndFromValues(vals)
	if err != nil || fe.Mode != protocol.Mode4Point || fe.Channel != protocol.ChannelBNC {
		t.Errorf("front end = %+v, %v", fe, err)
	}
	if f, err := ReplyFormatFromValues(vals); err != nil || f != (protocol.ReplyFormat{}) {
		t.Errorf("reply format = %+v, %v", f, err)
	}
}

func TestSweepValuesRoundTrip(t *testing.T) {
	sw := protocol.FrequencySweepSpec{
		StartFreq: 500, StopFreq: 10000, Steps: 100, Scale: protocol.ScaleLinear,
		Precision: 3, Amplitude: 0.0001, Excitation: protocol.ExcitationCurrent,
		PointDelayUs: 1000, PhaseSync: true,
	}
	got, err := SweepFromValues(SweepValues(sw))
	if err != nil {
		t.Fatalf("SweepFromValues error: %v", err)
	}
	if got != sw {
		t.Errorf("got %+v, want %+v", got, sw)
	}
}

func TestSweepFromValuesErrors(t *testing.T) {
	base := SweepValues(protocol.FrequencySweepSpec{StartFreq: 1, StopFreq: 2, Steps: 2, Excitation: protocol.ExcitationVoltage})

	tests := []struct {
		name    string
		mutate  func(map[string]interface{})
		wantErr error
	}{
		{name: "missing", mutate: func(v map[string]interface{}) { delete(v, ResAmplitude) }},
		{name: "wrong type", mutate: func(v map[string]interface{}) { v[ResFrequencySteps] = float64(2) }},
		{name: "zero steps", mutate: func(v map[string]interface{}) { v[ResFrequencySteps] = uint32(0) }, wantErr: protocol.ErrPayloadOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := make(map[string]interface{}, len(base))
			for k, v := range base {
				vals[k] = v
			}
			tt.mutate(vals)
			_, err := SweepFromValues(vals)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReplyFormatFromValuesInvalid(t *testing.T) {
	vals := ReplyFormatValues(protocol.ReplyFormat{})
	vals[ResTimestampMode] = uint8(3)
	if _, err := ReplyFormatFromValues(vals); err == nil {
		t.Error("expected error for timestamp mode 3")
	}
}

func TestValueSink(t *testing.T) {
	const dev = "isx3-value-sink"
	sink := NewValueSink(dev, []float64{100, 200})

	err := sink.HandleSample(context.Background(), protocol.MeasurementSample{PointID: 2, Real: 3, Imaginary: 4})
	if err != nil {
		t.Fatalf("HandleSample error: %v", err)
	}
	vals, ok := GetDeviceValues(dev)
	if !ok {
		t.Fatal("no values written")
	}
	if vals[ResFrequency] != float64(200) || vals[ResMagnitude] != float64(5) || vals[ResPointID] != uint16(2) {
		t.Errorf("values = %v", vals)
	}
	if vals[ResSampleCount] != uint64(1) || sink.Count() != 1 {
		t.Errorf("SampleCount = %v", vals[ResSampleCount])
	}

	sink.HandleError(errors.New("overcurrent"))
	if v, _ := GetDeviceValue(dev, ResLastError); v != "overcurrent" {
		t.Errorf("LastError = %v", v)
	}
}
