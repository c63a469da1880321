package netsdr

import (
	"encoding/binary"
	"fmt"
)

// =======================
// Control item framing
// =======================
//
// Wire format (little-endian, NetSDR control item):
//
//	uint16 header    low 13 bits = total frame length, top 3 bits = type
//	uint16 item      control item code
//	...    params    item-specific parameters
//
// All frames built here are host->target Set Control Item messages
// (type 0), so the header is simply the frame length.
const (
	msgSetControlItem = 0x0

	itemReceiverState     = 0x0018
	itemReceiverFrequency = 0x0020
	itemRFFilter          = 0x0044
	itemADModes           = 0x008A
	itemIQSampleRate      = 0x00B8
)

// Receiver state parameters (item 0x0018).
const (
	stateDataComplexIQ = 0x80 // param 1: complex baseband I/Q
	stateRun           = 0x02 // param 2: start capture
	stateStop          = 0x01 // param 2: stop capture
	stateMode16Bit     = 0x00 // param 3: 16-bit contiguous mode
)

// DefaultSampleRate is the IQ output rate configured during pre-setup
// unless overridden. 196078 Hz is the highest 16-bit rate the receiver
// family supports over 100 Mbit links.
const DefaultSampleRate uint32 = 196078

// encodeSetItem frames a Set Control Item message for the given item code.
func encodeSetItem(item uint16, params ...byte) []byte {
	total := 4 + len(params)
	frame := make([]byte, total)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(msgSetControlItem)<<13|uint16(total))
	binary.LittleEndian.PutUint16(frame[2:4], item)
	copy(frame[4:], params)
	return frame
}

// EncodeIQStart builds the receiver-state frame that starts IQ capture.
func EncodeIQStart() []byte {
	return encodeSetItem(itemReceiverState, stateDataComplexIQ, stateRun, stateMode16Bit, 0x00)
}

// EncodeIQStop builds the receiver-state frame that stops IQ capture.
func EncodeIQStop() []byte {
	return encodeSetItem(itemReceiverState, 0x00, stateStop, 0x00, 0x00)
}

// EncodeSampleRate builds the IQ output sample rate frame. The leading
// parameter byte is the channel selector, always 0 on this item.
func EncodeSampleRate(hz uint32) []byte {
	var rate [4]byte
	binary.LittleEndian.PutUint32(rate[:], hz)
	return encodeSetItem(itemIQSampleRate, 0x00, rate[0], rate[1], rate[2], rate[3])
}

// EncodeRFFilterAuto builds the RF filter selection frame requesting
// automatic band-pass selection.
func EncodeRFFilterAuto() []byte {
	return encodeSetItem(itemRFFilter, 0x00, 0x00)
}

// EncodeADModes builds the A/D mode frame enabling dither and +1.5 dB
// converter gain, the recommended defaults for this receiver family.
func EncodeADModes() []byte {
	return encodeSetItem(itemADModes, 0x00, 0x03)
}

// maxFrequencyHz is the largest value the 5-byte frequency field carries.
const maxFrequencyHz = int64(1)<<40 - 1

// EncodeFrequency builds the receiver NCO frequency frame: one channel ID
// byte followed by the tuning frequency as a 40-bit little-endian Hz value.
func EncodeFrequency(hz int64, channel int) ([]byte, error) {
	if channel < 0 || channel > 0xFF {
		return nil, fmt.Errorf("encode frequency: channel %d out of range 0..255", channel)
	}
	if hz < 0 || hz > maxFrequencyHz {
		return nil, fmt.Errorf("encode frequency: %d Hz outside 40-bit range", hz)
	}
	var freq [8]byte
	binary.LittleEndian.PutUint64(freq[:], uint64(hz))
	return encodeSetItem(itemReceiverFrequency,
		byte(channel), freq[0], freq[1], freq[2], freq[3], freq[4]), nil
}

// PreSetupSequence returns the three configuration frames sent, in order,
// immediately after the control channel comes up: IQ output sample rate,
// RF filter selection, A/D modes. Each must be acknowledged before the
// next is sent.
func PreSetupSequence(sampleRate uint32) [][]byte {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	return [][]byte{
		EncodeSampleRate(sampleRate),
		EncodeRFFilterAuto(),
		EncodeADModes(),
	}
}
