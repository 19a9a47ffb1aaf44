package sniffle

// A Frame is one link-layer packet as it came off the air: the PDU bytes
// (header included, access address and CRC stripped), the RF channel it was
// heard on, and the radio timestamp of the first payload bit.
type Frame struct {
	// Channel is the RF channel index, 0-39. 37-39 are the primary
	// advertising channels [Vol 6, Part B, 1.4.1].
	Channel uint8

	// Timestamp is the radio capture time of the start of the frame, in
	// microseconds, wrapping modulo 2^32.
	Timestamp uint32

	// RSSI is the received signal strength in dBm. Capture metadata only;
	// the link layer does not act on it.
	RSSI int8

	// Data is the raw PDU, starting at the header byte.
	Data []byte
}

// Advertising reports whether the frame was received on a primary
// advertising channel.
func (f *Frame) Advertising() bool { return f.Channel >= 37 }

// Len returns the PDU length in bytes.
func (f *Frame) Len() int { return len(f.Data) }

// A FrameHandler is invoked once per received frame. The radio calls it
// synchronously from its receive path, so handlers must not block.
type FrameHandler func(f *Frame)
