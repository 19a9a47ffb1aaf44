package ll

import (
	sniffle "github.com/FDlucifer/Sniffle"
	"github.com/FDlucifer/Sniffle/csa"
)

// connectWait is the delay from the end of CONNECT_IND to the transmit
// window, 1.25 ms [Vol 6, Part B, 4.5.3], minus 250 us of margin for
// capture latency, in radio ticks.
const connectWait = 4000

// RadioConfig is the set of hopping parameters a connection is running
// under. A connection carries exactly one active RadioConfig; it changes
// only when a staged update reaches its instant.
type RadioConfig struct {
	ChannelMap       csa.ChannelMap
	HopIntervalTicks uint32
	Offset           uint16 // WinOffset of the triggering PDU, 1.25 ms units
	PHY              sniffle.PHY
}

// instantNone marks the pending slot empty. Real instants are 16-bit, so
// the sentinel can never collide.
const instantNone uint32 = 0xFFFFFFFF

type pendingUpdate struct {
	cfg     RadioConfig
	instant uint32
}

// A Conn tracks one followed connection: access parameters fixed at
// CONNECT_IND time, the active RadioConfig, hop/timing bookkeeping, at
// most one staged parameter update, and the anchor history feeding drift
// correction. It is owned by the Sniffer and is not safe for unsynchronized
// concurrent use.
type Conn struct {
	accessAddress uint32
	crcInit       uint32
	hopIncrement  uint8

	cfg   RadioConfig
	table csa.Table

	unmapped    uint8
	eventCount  uint16
	nextHopTime uint32

	pending pendingUpdate

	firstPacket bool
	anchors     anchorHistory
}

// newConn builds connection state from an accepted CONNECT_IND. timestamp
// is the frame capture time in microseconds. Fails if the offered channel
// map is unusable.
func newConn(p ConnectInd, timestamp uint32) (*Conn, error) {
	m := p.ChannelMap()
	table, err := csa.Map1(m)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		accessAddress: p.AccessAddress(),
		crcInit:       p.CRCInit(),
		hopIncrement:  p.HopIncrement(),
		cfg: RadioConfig{
			ChannelMap:       m,
			HopIntervalTicks: uint32(p.Interval()) * sniffle.UnitTicks,
			PHY:              sniffle.PHY1M,
		},
		table: table,
		// hopping starts on the hop increment channel
		unmapped: p.HopIncrement(),
	}
	c.nextHopTime = sniffle.ScaleTimestamp(timestamp) + connectWait +
		uint32(p.WinOffset())*sniffle.UnitTicks + c.cfg.HopIntervalTicks
	c.pending.instant = instantNone
	return c, nil
}

// AccessAddress returns the connection's access address.
func (c *Conn) AccessAddress() uint32 { return c.accessAddress }

// CRCInit returns the connection's 24-bit CRC initialization value.
func (c *Conn) CRCInit() uint32 { return c.crcInit }

// EventCount returns the current connection event counter.
func (c *Conn) EventCount() uint16 { return c.eventCount }

// channel returns the physical data channel of the current connection
// event.
func (c *Conn) channel() uint8 { return c.table[c.unmapped] }

// beginEvent prepares per-event state before the receive window opens.
func (c *Conn) beginEvent() { c.firstPacket = true }

// anchor records the event's timing anchor from the first received frame.
// Later frames in the same event are not anchors.
func (c *Conn) anchor(timestamp uint32) {
	if !c.firstPacket {
		return
	}
	c.firstPacket = false
	off := sniffle.ScaleTimestamp(timestamp) + c.cfg.HopIntervalTicks - c.nextHopTime
	c.anchors.record(int32(off))
}

// endEvent runs the bookkeeping that closes a connection event: advance
// the unmapped channel and event counter, apply a due parameter update,
// schedule the next window, and fold in a drift correction every 16th
// event.
func (c *Conn) endEvent() {
	c.unmapped = (c.unmapped + c.hopIncrement) % csa.NumChannels
	c.eventCount++
	c.applyPending()
	c.nextHopTime += c.cfg.HopIntervalTicks
	if c.eventCount&0xF == 0xF {
		c.nextHopTime += uint32(c.anchors.correction())
	}
}

// applyPending replaces the active RadioConfig with the staged one once
// the event counter reaches the staged instant. The comparison is a
// 16-bit masked subtraction so it survives counter wraparound. A staged
// map that would leave fewer than two usable channels is dropped instead
// of applied.
func (c *Conn) applyPending() {
	if c.pending.instant == instantNone {
		return
	}
	if (uint16(c.pending.instant)-c.eventCount)&0xFFFF != 0 {
		return
	}
	table, err := csa.Map1(c.pending.cfg.ChannelMap)
	if err != nil {
		logger.Warn("dropping parameter update", "err", err)
		c.pending.instant = instantNone
		return
	}
	c.cfg = c.pending.cfg
	c.table = table
	c.nextHopTime += uint32(c.cfg.Offset) * sniffle.UnitTicks
	c.pending.instant = instantNone
}

// stage replaces any previously staged update.
func (c *Conn) stage(cfg RadioConfig, instant uint16) {
	c.pending = pendingUpdate{cfg: cfg, instant: uint32(instant)}
}

// ctrlStagers maps the LL Control opcodes that defer to an instant onto
// functions deriving the staged RadioConfig from the active one and the
// PDU. LL_TERMINATE_IND takes effect immediately and is handled by the
// reactor, not here.
var ctrlStagers = map[uint8]func(cur RadioConfig, p DataPDU) (RadioConfig, uint16){
	opConnUpdateInd: func(cur RadioConfig, p DataPDU) (RadioConfig, uint16) {
		cur.Offset = p.WinOffset()
		cur.HopIntervalTicks = uint32(p.Interval()) * sniffle.UnitTicks
		return cur, p.UpdateInstant()
	},
	opChannelMapInd: func(cur RadioConfig, p DataPDU) (RadioConfig, uint16) {
		cur.ChannelMap = p.ChannelMap()
		cur.Offset = 0
		return cur, p.MapInstant()
	},
	opPHYUpdateInd: func(cur RadioConfig, p DataPDU) (RadioConfig, uint16) {
		// single PHY field, both directions assumed to match
		cur.Offset = 0
		cur.PHY = sniffle.PHY(p.PHY())
		return cur, p.PHYInstant()
	},
}

// handleData reacts to a data channel frame: records the event anchor,
// stages deferred parameter updates from control PDUs, and reports
// whether the connection was terminated. Malformed frames change nothing.
func (c *Conn) handleData(f *sniffle.Frame) (terminated bool) {
	c.anchor(f.Timestamp)

	p := DataPDU(f.Data)
	if !p.Valid() {
		return false
	}
	if p.LLID() != llidControl {
		return false
	}

	op := p.Opcode()
	if f.Len() < ctrDataLen(op) {
		return false
	}

	if op == opTerminateInd {
		return true
	}
	if stager, ok := ctrlStagers[op]; ok {
		cfg, instant := stager(c.cfg, p)
		c.stage(cfg, instant)
	}
	return false
}
