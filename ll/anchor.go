package ll

import "sort"

const (
	// anchorCapacity is the number of anchor-offset samples retained.
	anchorCapacity = 16

	// anchorTarget is where the anchor point should sit inside the receive
	// window: 1 ms of early margin, in radio ticks.
	anchorTarget = 4000
)

// anchorHistory holds the last anchorCapacity anchor-offset measurements,
// oldest overwritten first. An offset is the measured arrival time of a
// connection event's first packet minus the opening of its receive window.
type anchorHistory struct {
	samples [anchorCapacity]int32
	idx     int
}

// record stores the latest measurement.
func (h *anchorHistory) record(offset int32) {
	h.samples[h.idx] = offset
	h.idx = (h.idx + 1) % anchorCapacity
}

// correction returns the tick adjustment that recenters the typical anchor
// offset on anchorTarget, compensating clock drift against the tracked
// devices. The statistic is the upper-middle element of the sorted
// samples; for an even-sized window that is not a true median, but the
// half-sample bias is irrelevant at this precision.
func (h *anchorHistory) correction() int32 {
	var s [anchorCapacity]int32
	copy(s[:], h.samples[:])
	sort.Slice(s[:], func(i, j int) bool { return s[i] < s[j] })
	return s[anchorCapacity/2] - anchorTarget
}
