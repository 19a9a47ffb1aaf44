// Package uart drives serial-attached capture firmware as a sniffle.Radio.
// The firmware owns tuning, demodulation and timestamping; this side sends
// receive/stop commands and decodes the frames streamed back.
package uart

import (
	"io"
	"sync"

	log "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
	"go.bug.st/serial"

	sniffle "github.com/FDlucifer/Sniffle"
)

var logger = log.New("uart")

// DefaultBaudRate is the firmware's UART rate.
const DefaultBaudRate = 921600

// Radio is a sniffle.Radio over a serial host link.
type Radio struct {
	mu   sync.Mutex // serializes command writes
	port io.ReadWriteCloser
}

// An Option is a configuration function, which configures the Radio.
type Option func(*config) error

type config struct {
	baud int
}

// OptBaudRate overrides the default baud rate.
func OptBaudRate(baud int) Option {
	return func(c *config) error {
		if baud <= 0 {
			return errors.Errorf("invalid baud rate %d", baud)
		}
		c.baud = baud
		return nil
	}
}

// New opens the firmware's serial port.
func New(portName string, opts ...Option) (*Radio, error) {
	cfg := config{baud: DefaultBaudRate}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "can't apply option")
		}
	}
	p, err := serial.Open(portName, &serial.Mode{BaudRate: cfg.baud})
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", portName)
	}
	return &Radio{port: p}, nil
}

// NewWithPort wraps an already open host link. Used by tests.
func NewWithPort(port io.ReadWriteCloser) *Radio {
	return &Radio{port: port}
}

// ReceiveFrames implements sniffle.Radio. It commands the firmware to
// receive, then decodes the stream until the firmware reports the
// operation done (deadline passed or Stop sent). Messages that fail the
// link CRC are dropped and the stream resynchronizes on the next length
// prefix.
func (r *Radio) ReceiveFrames(phy sniffle.PHY, channel uint8, accessAddr, crcInit, deadline uint32, h sniffle.FrameHandler) error {
	r.mu.Lock()
	err := writeMessage(r.port, marshalReceive(phy, channel, accessAddr, crcInit, deadline))
	r.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "can't start receive")
	}

	for {
		m, err := readMessage(r.port)
		switch {
		case err == errBadCRC || err == errShortMessage:
			logger.Warn("dropping corrupt message", "err", err)
			continue
		case err != nil:
			return errors.Wrap(err, "host link failed")
		}

		switch m.typ {
		case msgFrame:
			f, err := unmarshalFrame(m.payload)
			if err != nil {
				logger.Warn("dropping corrupt frame message")
				continue
			}
			h(f)
		case msgDone:
			return nil
		default:
			logger.Warn("unexpected message from firmware", "type", int(m.typ))
		}
	}
}

// Stop implements sniffle.Radio. The firmware answers with msgDone, which
// ends the ReceiveFrames call in progress.
func (r *Radio) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeMessage(r.port, message{typ: msgStop})
}

// Close shuts down the host link.
func (r *Radio) Close() error {
	return r.port.Close()
}
