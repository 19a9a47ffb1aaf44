package ll

import (
	"encoding/binary"

	"github.com/FDlucifer/Sniffle/csa"
)

// Advertising PDU types [Vol 6, Part B, 2.3].
const (
	pduAdvInd        = 0x0
	pduAdvDirectInd  = 0x1
	pduAdvNonconnInd = 0x2
	pduScanReq       = 0x3
	pduScanRsp       = 0x4
	pduConnectInd    = 0x5
	pduScanInd       = 0x6
)

// LLID values of the data channel PDU header [Vol 6, Part B, 2.4].
const (
	llidContinuation = 0x1
	llidDataStart    = 0x2
	llidControl      = 0x3
)

// LL Control PDU opcodes [Vol 6, Part B, 2.4.2].
const (
	opConnUpdateInd = 0x00
	opChannelMapInd = 0x01
	opTerminateInd  = 0x02
	opPHYUpdateInd  = 0x18
)

// AdvPDU is a byte view of an advertising channel PDU, starting at the
// first header byte. Accessors assume Valid has been checked.
type AdvPDU []byte

// Valid reports whether the view holds a complete header and a body no
// shorter than the advertised length.
func (p AdvPDU) Valid() bool {
	return len(p) >= 2 && len(p)-2 >= p.BodyLen()
}

// Type returns the PDU type field.
func (p AdvPDU) Type() uint8 { return p[0] & 0x0F }

// ChSel reports the ChSel header bit: set means the advertiser supports
// channel selection algorithm #2.
func (p AdvPDU) ChSel() bool { return p[0]&0x20 != 0 }

// BodyLen returns the advertised payload length.
func (p AdvPDU) BodyLen() int { return int(p[1]) }

// ConnectInd is a byte view of a complete CONNECT_IND PDU, header included
// [Vol 6, Part B, 2.3.3.1]. Field offsets count from the header byte:
// 2-byte header, 6-byte InitA, 6-byte AdvA, then the LLData.
type ConnectInd []byte

// connectIndBodyLen is the exact LLData+addresses length of CONNECT_IND.
const connectIndBodyLen = 34

// Valid reports whether the view is a CONNECT_IND with the exact body
// length the format prescribes.
func (p ConnectInd) Valid() bool {
	return AdvPDU(p).Valid() &&
		AdvPDU(p).Type() == pduConnectInd &&
		AdvPDU(p).BodyLen() == connectIndBodyLen
}

// AccessAddress returns the connection access address.
func (p ConnectInd) AccessAddress() uint32 { return binary.LittleEndian.Uint32(p[14:]) }

// CRCInit returns the 24-bit CRC initialization value.
func (p ConnectInd) CRCInit() uint32 {
	return uint32(p[18]) | uint32(p[19])<<8 | uint32(p[20])<<16
}

// WinOffset returns the transmit window offset in 1.25 ms units.
func (p ConnectInd) WinOffset() uint16 { return binary.LittleEndian.Uint16(p[22:]) }

// Interval returns the connection interval in 1.25 ms units.
func (p ConnectInd) Interval() uint16 { return binary.LittleEndian.Uint16(p[24:]) }

// ChannelMap returns the used-channel map.
func (p ConnectInd) ChannelMap() csa.ChannelMap { return csa.ChannelMapFromBytes(p[30:35]) }

// HopIncrement returns the 5-bit hop increment.
func (p ConnectInd) HopIncrement() uint8 { return p[35] & 0x1F }

// DataPDU is a byte view of a data channel PDU, starting at the first
// header byte. For control PDUs the opcode directly follows the 2-byte
// header [Vol 6, Part B, 2.4].
type DataPDU []byte

// Valid reports whether the view holds a header, an opcode byte, and a
// body no shorter than the declared length.
func (p DataPDU) Valid() bool {
	return len(p) >= 3 && len(p)-2 >= p.BodyLen()
}

// LLID returns the 2-bit LLID field.
func (p DataPDU) LLID() uint8 { return p[0] & 0x03 }

// BodyLen returns the declared payload length.
func (p DataPDU) BodyLen() int { return int(p[1]) }

// Opcode returns the control opcode. Meaningful only when LLID is
// llidControl.
func (p DataPDU) Opcode() uint8 { return p[2] }

// Control PDU field accessors. Offsets count from the header byte, so the
// CtrData of [Vol 6, Part B, 2.4.2] starts at offset 3.

// WinOffset returns LL_CONNECTION_UPDATE_IND.WinOffset in 1.25 ms units.
func (p DataPDU) WinOffset() uint16 { return binary.LittleEndian.Uint16(p[4:]) }

// Interval returns LL_CONNECTION_UPDATE_IND.Interval in 1.25 ms units.
func (p DataPDU) Interval() uint16 { return binary.LittleEndian.Uint16(p[6:]) }

// UpdateInstant returns LL_CONNECTION_UPDATE_IND.Instant.
func (p DataPDU) UpdateInstant() uint16 { return binary.LittleEndian.Uint16(p[12:]) }

// ChannelMap returns LL_CHANNEL_MAP_IND.ChM.
func (p DataPDU) ChannelMap() csa.ChannelMap { return csa.ChannelMapFromBytes(p[3:8]) }

// MapInstant returns LL_CHANNEL_MAP_IND.Instant.
func (p DataPDU) MapInstant() uint16 { return binary.LittleEndian.Uint16(p[8:]) }

// PHY returns the PHY field of LL_PHY_UPDATE_IND. Only one direction is
// decoded; both directions are assumed to change identically.
func (p DataPDU) PHY() uint8 { return p[3] }

// PHYInstant returns LL_PHY_UPDATE_IND.Instant.
func (p DataPDU) PHYInstant() uint16 { return binary.LittleEndian.Uint16(p[5:]) }

// ctrDataLen gives the minimum PDU length (header inclusive) needed to
// read the fields this package consumes for each opcode.
func ctrDataLen(opcode uint8) int {
	switch opcode {
	case opConnUpdateInd:
		return 14 // through Instant at offset 12
	case opChannelMapInd:
		return 10 // through Instant at offset 8
	case opTerminateInd:
		return 3 // opcode alone
	case opPHYUpdateInd:
		return 7 // through Instant at offset 5
	default:
		return 3
	}
}
