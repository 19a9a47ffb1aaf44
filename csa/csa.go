// Package csa implements LE Channel Selection Algorithm #1
// [Vol 6, Part B, 4.5.8.2].
package csa

import "errors"

// NumChannels is the number of LE data channels.
const NumChannels = 37

// ErrFewUsedChannels is returned for a channel map marking fewer than two
// channels as used, the minimum a link layer may offer [Vol 6, Part B,
// 4.5.8.1]; remapping is undefined below that.
var ErrFewUsedChannels = errors.New("channel map has fewer than 2 used channels")

// ChannelMap is a 37-bit set of used data channels; bit i set means channel
// index i is used. Bits 37-63 are ignored.
type ChannelMap uint64

// ChannelMapFromBytes decodes the 5-byte ChM field of CONNECT_IND and
// LL_CHANNEL_MAP_IND [Vol 6, Part B, 2.3.3.1], little-endian.
func ChannelMapFromBytes(b []byte) ChannelMap {
	var m ChannelMap
	for i, v := range b {
		if i == 5 {
			break
		}
		m |= ChannelMap(v) << (8 * i)
	}
	return m & (1<<NumChannels - 1)
}

// Used reports whether channel ch is marked used.
func (m ChannelMap) Used(ch uint8) bool {
	return ch < NumChannels && m&(1<<ch) != 0
}

// NumUsed returns the number of used channels.
func (m ChannelMap) NumUsed() int {
	n := 0
	for ch := uint8(0); ch < NumChannels; ch++ {
		if m&(1<<ch) != 0 {
			n++
		}
	}
	return n
}

// A Table maps unmapped channel indices to physical data channel indices.
type Table [NumChannels]uint8

// Map1 builds the remapping table for a channel map under algorithm #1:
// used channels map to themselves, unused channels fold onto the ordered
// list of used channels modulo its length. The result depends only on m.
func Map1(m ChannelMap) (Table, error) {
	var t Table

	var remap [NumChannels]uint8
	used := 0
	for ch := uint8(0); ch < NumChannels; ch++ {
		if m.Used(ch) {
			remap[used] = ch
			used++
		}
	}
	if used < 2 {
		return t, ErrFewUsedChannels
	}

	for ch := uint8(0); ch < NumChannels; ch++ {
		if m.Used(ch) {
			t[ch] = ch
		} else {
			t[ch] = remap[int(ch)%used]
		}
	}
	return t, nil
}
