package ll

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/context"

	sniffle "github.com/FDlucifer/Sniffle"
)

// State of the sniffer.
type State int

// The sniffer is either scanning advertising traffic for a CONNECT_IND or
// following one established connection's hop schedule. There are no other
// states.
const (
	Scanning State = iota
	Following
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "following"
}

// A Sniffer drives a Radio through the connection-following loop: receive
// windows, channel hopping, parameter updates, drift correction. Frames
// are reacted to from within the radio's receive path; the embedded mutex
// guards the session state shared between that path and the loop.
type Sniffer struct {
	sync.Mutex

	radio      sniffle.Radio
	h          sniffle.FrameHandler
	advChannel uint8

	state State
	conn  *Conn
}

// NewSniffer returns a Sniffer in the Scanning state.
func NewSniffer(r sniffle.Radio, opts ...Option) (*Sniffer, error) {
	if r == nil {
		return nil, errors.New("no radio")
	}
	s := &Sniffer{
		radio:      r,
		advChannel: sniffle.AdvChannel,
		state:      Scanning,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "can't apply option")
		}
	}
	return s, nil
}

// State returns the current state.
func (s *Sniffer) State() State {
	s.Lock()
	defer s.Unlock()
	return s.state
}

// Conn returns the connection being followed, or nil while scanning.
func (s *Sniffer) Conn() *Conn {
	s.Lock()
	defer s.Unlock()
	return s.conn
}

// Run drives the radio until ctx is canceled or the radio fails. While
// scanning it receives advertising traffic with no deadline; while
// following it opens one receive window per connection event, bounded by
// the next hop time, and runs the per-event bookkeeping when the window
// closes.
func (s *Sniffer) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.radio.Stop()
		case <-done:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.Lock()
		st, c := s.state, s.conn
		s.Unlock()

		if st == Scanning {
			err := s.radio.ReceiveFrames(sniffle.PHY1M, s.advChannel,
				sniffle.AdvAccessAddress, sniffle.AdvCRCInit,
				sniffle.ReceiveForever, s.HandleFrame)
			if err != nil {
				return errors.Wrap(err, "can't receive advertising")
			}
			continue
		}

		s.Lock()
		c.beginEvent()
		phy := c.cfg.PHY
		ch := c.channel()
		aa, crc := c.accessAddress, c.crcInit
		deadline := c.nextHopTime
		s.Unlock()

		err := s.radio.ReceiveFrames(phy, ch, aa, crc, deadline, s.HandleFrame)
		if err != nil {
			return errors.Wrap(err, "can't receive data")
		}

		s.Lock()
		if s.state == Following {
			s.conn.endEvent()
		}
		s.Unlock()
	}
}

// HandleFrame is the reactor entry point, invoked once per received frame.
// The frame is first passed through to the configured consumer, then
// branched on its channel. Malformed or irrelevant PDUs fall through with
// no state change.
func (s *Sniffer) HandleFrame(f *sniffle.Frame) {
	if s.h != nil {
		s.h(f)
	}

	s.Lock()
	defer s.Unlock()
	if f.Advertising() {
		s.handleAdvertising(f)
	} else {
		s.handleData(f)
	}
}

// handleAdvertising accepts CONNECT_IND and starts following. Everything
// else on the advertising channels is capture-only. ChSel set means the
// connection will hop under algorithm #2, which this sniffer does not
// implement; such connections stay untracked.
func (s *Sniffer) handleAdvertising(f *sniffle.Frame) {
	p := AdvPDU(f.Data)
	if !p.Valid() || p.Type() != pduConnectInd {
		return
	}
	ci := ConnectInd(f.Data)
	if !ci.Valid() {
		return
	}
	if p.ChSel() {
		logger.Debug("ignoring CSA#2 connection")
		return
	}

	c, err := newConn(ci, f.Timestamp)
	if err != nil {
		logger.Warn("rejecting CONNECT_IND", "err", err)
		return
	}

	s.conn = c
	s.state = Following
	logger.Info("following connection",
		"aa", fmt.Sprintf("%08X", c.accessAddress),
		"hop", int(c.hopIncrement))

	// restart the driver loop under the connection's parameters
	s.radio.Stop()
}

func (s *Sniffer) handleData(f *sniffle.Frame) {
	if s.state != Following {
		return
	}
	if s.conn.handleData(f) {
		logger.Info("connection terminated",
			"aa", fmt.Sprintf("%08X", s.conn.accessAddress))
		s.conn = nil
		s.state = Scanning
		s.radio.Stop()
	}
}
