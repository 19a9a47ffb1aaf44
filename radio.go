package sniffle

// Advertising channel access parameters [Vol 6, Part B, 1.4.2, 2.1.2, 3.1.1].
// All advertising traffic shares them; they are not configurable.
const (
	AdvChannel       uint8  = 37
	AdvAccessAddress uint32 = 0x8E89BED6
	AdvCRCInit       uint32 = 0x555555
)

// Radio clock and air-interface timing. The radio timestamps frames with a
// 1 MHz counter; link-layer scheduling runs on the 4 MHz radio clock, so
// timestamps scale by TimestampScale. Connection timing fields on the air
// are in units of 1.25 ms [Vol 6, Part B, 2.3.3.1].
const (
	TimestampScale = 2    // left shift, 1 MHz -> 4 MHz
	UnitTicks      = 5000 // 1.25 ms in radio ticks

	// ReceiveForever disables the receive-window deadline.
	ReceiveForever uint32 = 0xFFFFFFFF
)

// ScaleTimestamp converts a frame timestamp to radio-clock ticks.
func ScaleTimestamp(ts uint32) uint32 { return ts << TimestampScale }

// Radio is the receive-only radio a Sniffer drives. Implementations front
// real capture hardware or a test double; they do not interpret PDUs.
type Radio interface {
	// ReceiveFrames tunes to the given channel and access parameters and
	// delivers every received frame to h until the radio clock passes
	// deadline (ReceiveForever to disable) or Stop is called. It blocks for
	// the duration of the receive operation; h is invoked synchronously
	// from within it.
	ReceiveFrames(phy PHY, channel uint8, accessAddr, crcInit, deadline uint32, h FrameHandler) error

	// Stop ends the receive operation in progress early. It is safe to call
	// from within a FrameHandler.
	Stop() error
}
