package uart

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"

	sniffle "github.com/FDlucifer/Sniffle"
)

// Host link message types. Commands flow host to firmware, captures flow
// back.
const (
	msgReceive uint8 = 0x01 // phy(1) channel(1) accessAddr(4) crcInit(4) deadline(4)
	msgStop    uint8 = 0x02 // empty
	msgFrame   uint8 = 0x10 // channel(1) rssi(1) timestamp(4) pdu(n)
	msgDone    uint8 = 0x11 // empty, receive operation ended
)

// Message framing on the wire:
// length(2, LE) | type(1) | payload | crc32(4, LE)
// with length counting type+payload and crc32 (IEEE) taken over
// type+payload. Anything that fails the length or CRC check is dropped.
const (
	lenFieldSize = 2
	crcSize      = 4
	maxMsgLen    = 1 + 2 + 260 + crcSize // type + largest payload + crc
)

var (
	errShortMessage = errors.New("uart: short message")
	errBadCRC       = errors.New("uart: bad message crc")
)

type message struct {
	typ     uint8
	payload []byte
}

func writeMessage(w io.Writer, m message) error {
	n := 1 + len(m.payload)
	buf := make([]byte, lenFieldSize+n+crcSize)
	binary.LittleEndian.PutUint16(buf, uint16(n+crcSize))
	buf[lenFieldSize] = m.typ
	copy(buf[lenFieldSize+1:], m.payload)
	crc := crc32.ChecksumIEEE(buf[lenFieldSize : lenFieldSize+n])
	binary.LittleEndian.PutUint32(buf[lenFieldSize+n:], crc)
	_, err := w.Write(buf)
	return errors.Wrap(err, "can't write message")
}

func readMessage(r io.Reader) (message, error) {
	var hdr [lenFieldSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return message{}, errors.Wrap(err, "can't read message length")
	}
	n := int(binary.LittleEndian.Uint16(hdr[:]))
	if n < 1+crcSize || n > maxMsgLen {
		return message{}, errShortMessage
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return message{}, errors.Wrap(err, "can't read message body")
	}
	crc := binary.LittleEndian.Uint32(body[n-crcSize:])
	if crc != crc32.ChecksumIEEE(body[:n-crcSize]) {
		return message{}, errBadCRC
	}
	return message{typ: body[0], payload: body[1 : n-crcSize]}, nil
}

func marshalReceive(phy sniffle.PHY, channel uint8, accessAddr, crcInit, deadline uint32) message {
	p := make([]byte, 14)
	p[0] = uint8(phy)
	p[1] = channel
	binary.LittleEndian.PutUint32(p[2:], accessAddr)
	binary.LittleEndian.PutUint32(p[6:], crcInit)
	binary.LittleEndian.PutUint32(p[10:], deadline)
	return message{typ: msgReceive, payload: p}
}

// unmarshalFrame decodes a msgFrame payload. The PDU bytes are copied out
// of the read buffer.
func unmarshalFrame(p []byte) (*sniffle.Frame, error) {
	if len(p) < 6 {
		return nil, errShortMessage
	}
	data := make([]byte, len(p)-6)
	copy(data, p[6:])
	return &sniffle.Frame{
		Channel:   p[0],
		RSSI:      int8(p[1]),
		Timestamp: binary.LittleEndian.Uint32(p[2:]),
		Data:      data,
	}, nil
}
