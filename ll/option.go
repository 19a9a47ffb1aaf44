package ll

import (
	"github.com/pkg/errors"

	sniffle "github.com/FDlucifer/Sniffle"
)

// An Option is a configuration function, which configures the Sniffer.
type Option func(*Sniffer) error

// OptFrameHandler sets the consumer every received frame is delivered to,
// before the link layer reacts to it.
func OptFrameHandler(h sniffle.FrameHandler) Option {
	return func(s *Sniffer) error {
		s.h = h
		return nil
	}
}

// OptAdvChannel sets the primary advertising channel scanned for
// CONNECT_IND (37, 38 or 39).
func OptAdvChannel(ch uint8) Option {
	return func(s *Sniffer) error {
		if ch < 37 || ch > 39 {
			return errors.Errorf("invalid advertising channel %d", ch)
		}
		s.advChannel = ch
		return nil
	}
}
