package sniffle

// PHY selects an LE physical layer [Vol 6, Part A, 2].
type PHY uint8

// LE PHYs. The coded variants are the two convolutional coding schemes of
// LE Coded [Vol 6, Part B, 3.2].
const (
	PHY1M      PHY = 0x00
	PHY2M      PHY = 0x01
	PHYCodedS8 PHY = 0x02
	PHYCodedS2 PHY = 0x03
)

func (p PHY) String() string {
	switch p {
	case PHY1M:
		return "1M"
	case PHY2M:
		return "2M"
	case PHYCodedS8:
		return "Coded S=8"
	case PHYCodedS2:
		return "Coded S=2"
	default:
		return "unknown"
	}
}
