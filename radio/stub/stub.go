// Package stub provides a scripted in-memory Radio for testing the link
// layer without capture hardware.
package stub

import (
	"sync"

	"github.com/pkg/errors"

	sniffle "github.com/FDlucifer/Sniffle"
)

// ErrExhausted is returned by ReceiveFrames once the script has no windows
// left; it gives driver loops a way to stop.
var ErrExhausted = errors.New("stub: script exhausted")

// A Receive records the parameters of one ReceiveFrames call.
type Receive struct {
	PHY           sniffle.PHY
	Channel       uint8
	AccessAddress uint32
	CRCInit       uint32
	Deadline      uint32
}

// Radio replays a script: each ReceiveFrames call consumes the next window
// of frames, delivering them synchronously to the handler the way capture
// hardware would. Stop aborts the window in progress, including from
// within a handler.
type Radio struct {
	mu      sync.Mutex
	windows [][]*sniffle.Frame
	calls   []Receive
	stopped bool
}

// New returns a Radio scripted with the given receive windows.
func New(windows ...[]*sniffle.Frame) *Radio {
	return &Radio{windows: windows}
}

// Append adds another window to the end of the script.
func (r *Radio) Append(frames ...*sniffle.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, frames)
}

// ReceiveFrames implements sniffle.Radio.
func (r *Radio) ReceiveFrames(phy sniffle.PHY, channel uint8, accessAddr, crcInit, deadline uint32, h sniffle.FrameHandler) error {
	r.mu.Lock()
	r.calls = append(r.calls, Receive{phy, channel, accessAddr, crcInit, deadline})
	if len(r.windows) == 0 {
		r.mu.Unlock()
		return ErrExhausted
	}
	w := r.windows[0]
	r.windows = r.windows[1:]
	r.stopped = false
	r.mu.Unlock()

	for _, f := range w {
		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			break
		}
		h(f)
	}
	return nil
}

// Stop implements sniffle.Radio.
func (r *Radio) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

// Calls returns the ReceiveFrames invocations seen so far.
func (r *Radio) Calls() []Receive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Receive, len(r.calls))
	copy(out, r.calls)
	return out
}
