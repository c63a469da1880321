package netsdr

import (
	"bytes"
	"testing"
)

func TestEncodeIQStartStop(t *testing.T) {
	start := EncodeIQStart()
	wantStart := []byte{0x08, 0x00, 0x18, 0x00, 0x80, 0x02, 0x00, 0x00}
	if !bytes.Equal(start, wantStart) {
		t.Fatalf("IQ start frame = % x, want % x", start, wantStart)
	}

	stop := EncodeIQStop()
	wantStop := []byte{0x08, 0x00, 0x18, 0x00, 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(stop, wantStop) {
		t.Fatalf("IQ stop frame = % x, want % x", stop, wantStop)
	}
}

func TestEncodeSampleRate(t *testing.T) {
	frame := EncodeSampleRate(196078)
	want := []byte{0x09, 0x00, 0xB8, 0x00, 0x00, 0xEE, 0xFD, 0x02, 0x00}
	if !bytes.Equal(frame, want) {
		t.Fatalf("sample rate frame = % x, want % x", frame, want)
	}
}

func TestEncodeRFFilterAuto(t *testing.T) {
	frame := EncodeRFFilterAuto()
	want := []byte{0x06, 0x00, 0x44, 0x00, 0x00, 0x00}
	if !bytes.Equal(frame, want) {
		t.Fatalf("rf filter frame = % x, want % x", frame, want)
	}
}

func TestEncodeADModes(t *testing.T) {
	frame := EncodeADModes()
	want := []byte{0x06, 0x00, 0x8A, 0x00, 0x00, 0x03}
	if !bytes.Equal(frame, want) {
		t.Fatalf("a/d mode frame = % x, want % x", frame, want)
	}
}

func TestEncodeFrequency(t *testing.T) {
	frame, err := EncodeFrequency(144800000, 1)
	if err != nil {
		t.Fatalf("EncodeFrequency: %v", err)
	}
	want := []byte{0x0A, 0x00, 0x20, 0x00, 0x01, 0x00, 0x79, 0xA1, 0x08, 0x00}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frequency frame = % x, want % x", frame, want)
	}
}

func TestEncodeFrequencyRange(t *testing.T) {
	if _, err := EncodeFrequency(1000000, -1); err == nil {
		t.Error("expected error for negative channel")
	}
	if _, err := EncodeFrequency(1000000, 256); err == nil {
		t.Error("expected error for channel > 255")
	}
	if _, err := EncodeFrequency(-7100000, 0); err == nil {
		t.Error("expected error for negative frequency")
	}
	if _, err := EncodeFrequency(int64(1)<<40, 0); err == nil {
		t.Error("expected error for frequency beyond 40 bits")
	}
	if _, err := EncodeFrequency(int64(1)<<40-1, 255); err != nil {
		t.Errorf("boundary frequency rejected: %v", err)
	}
}

func TestPreSetupSequence(t *testing.T) {
	seq := PreSetupSequence(0)
	if len(seq) != 3 {
		t.Fatalf("sequence length = %d, want 3", len(seq))
	}
	if !bytes.Equal(seq[0], EncodeSampleRate(DefaultSampleRate)) {
		t.Errorf("first frame is not the default sample rate: % x", seq[0])
	}
	if !bytes.Equal(seq[1], EncodeRFFilterAuto()) {
		t.Errorf("second frame is not the rf filter selection: % x", seq[1])
	}
	if !bytes.Equal(seq[2], EncodeADModes()) {
		t.Errorf("third frame is not the a/d mode: % x", seq[2])
	}

	custom := PreSetupSequence(50000)
	if !bytes.Equal(custom[0], EncodeSampleRate(50000)) {
		t.Errorf("custom rate not honored: % x", custom[0])
	}
}
