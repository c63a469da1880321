// Package netsdr is a control-plane client for NetSDR-compatible
// networked receivers.
//
// A receiver exposes two channels: a TCP control channel carrying
// request/response command frames, and a UDP data channel streaming IQ
// samples once capture is running. The package keeps them deliberately
// separate: Client sequences connect, pre-setup, tuning, and capture
// start/stop over the control channel, while UDPData only drains and
// accounts the sample stream. Replies carry no request identifiers, so
// Correlator pairs each command with the next inbound control frame and
// enforces that exactly one request is ever in flight.
package netsdr
