package ll

import (
	"encoding/binary"
	"testing"

	sniffle "github.com/FDlucifer/Sniffle"
	"github.com/FDlucifer/Sniffle/csa"
)

// buildConnectInd assembles a CONNECT_IND PDU (header included) with the
// given LLData fields. chm is the 5-byte channel map.
func buildConnectInd(aa, crcInit uint32, winOffset, interval uint16, chm []byte, hop uint8, chSel bool) []byte {
	p := make([]byte, 36)
	p[0] = pduConnectInd
	if chSel {
		p[0] |= 0x20
	}
	p[1] = connectIndBodyLen
	// InitA @2, AdvA @8, then LLData
	binary.LittleEndian.PutUint32(p[14:], aa)
	p[18] = byte(crcInit)
	p[19] = byte(crcInit >> 8)
	p[20] = byte(crcInit >> 16)
	p[21] = 2 // WinSize
	binary.LittleEndian.PutUint16(p[22:], winOffset)
	binary.LittleEndian.PutUint16(p[24:], interval)
	binary.LittleEndian.PutUint16(p[26:], 0)   // Latency
	binary.LittleEndian.PutUint16(p[28:], 100) // Timeout
	copy(p[30:35], chm)
	p[35] = hop & 0x1F
	return p
}

func buildConnUpdateInd(winOffset, interval, instant uint16) []byte {
	p := make([]byte, 14)
	p[0] = llidControl
	p[1] = 12
	p[2] = opConnUpdateInd
	binary.LittleEndian.PutUint16(p[4:], winOffset)
	binary.LittleEndian.PutUint16(p[6:], interval)
	binary.LittleEndian.PutUint16(p[12:], instant)
	return p
}

func buildChannelMapInd(chm []byte, instant uint16) []byte {
	p := make([]byte, 10)
	p[0] = llidControl
	p[1] = 8
	p[2] = opChannelMapInd
	copy(p[3:8], chm)
	binary.LittleEndian.PutUint16(p[8:], instant)
	return p
}

func buildTerminateInd() []byte {
	return []byte{llidControl, 2, opTerminateInd, 0x13}
}

func buildPHYUpdateInd(phy uint8, instant uint16) []byte {
	p := make([]byte, 7)
	p[0] = llidControl
	p[1] = 5
	p[2] = opPHYUpdateInd
	p[3] = phy
	p[4] = phy
	binary.LittleEndian.PutUint16(p[5:], instant)
	return p
}

var allUsedBytes = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}

func advFrame(data []byte, ts uint32) *sniffle.Frame {
	return &sniffle.Frame{Channel: 37, Timestamp: ts, Data: data}
}

func dataFrame(ch uint8, data []byte, ts uint32) *sniffle.Frame {
	return &sniffle.Frame{Channel: ch, Timestamp: ts, Data: data}
}

func TestConnectIndFields(t *testing.T) {
	chm := []byte{0x00, 0xF0, 0x1F, 0x00, 0x10}
	p := ConnectInd(buildConnectInd(0x50655DAB, 0x9A3C71, 9, 39, chm, 12, false))

	if !p.Valid() {
		t.Fatal("well-formed CONNECT_IND rejected")
	}
	if got := p.AccessAddress(); got != 0x50655DAB {
		t.Fatalf("AccessAddress = %08X", got)
	}
	if got := p.CRCInit(); got != 0x9A3C71 {
		t.Fatalf("CRCInit = %06X", got)
	}
	if got := p.WinOffset(); got != 9 {
		t.Fatalf("WinOffset = %d", got)
	}
	if got := p.Interval(); got != 39 {
		t.Fatalf("Interval = %d", got)
	}
	if got := p.HopIncrement(); got != 12 {
		t.Fatalf("HopIncrement = %d", got)
	}
	if got := p.ChannelMap(); got != csa.ChannelMapFromBytes(chm) {
		t.Fatalf("ChannelMap = %#x", uint64(got))
	}
}

func TestConnectIndValid(t *testing.T) {
	good := buildConnectInd(1, 2, 3, 4, allUsedBytes, 5, false)

	short := append([]byte(nil), good...)
	short[1] = 33 // wrong body length
	truncated := good[:20]

	tests := []struct {
		name string
		pdu  []byte
		want bool
	}{
		{name: "well-formed", pdu: good, want: true},
		{name: "wrong body length", pdu: short, want: false},
		{name: "truncated", pdu: truncated, want: false},
		{name: "header only", pdu: []byte{0x05}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConnectInd(tc.pdu).Valid(); got != tc.want {
				t.Fatalf("Valid = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDataPDUFields(t *testing.T) {
	p := DataPDU(buildConnUpdateInd(3, 24, 0x1234))
	if !p.Valid() {
		t.Fatal("well-formed control PDU rejected")
	}
	if p.LLID() != llidControl {
		t.Fatalf("LLID = %d", p.LLID())
	}
	if p.Opcode() != opConnUpdateInd {
		t.Fatalf("Opcode = %#x", p.Opcode())
	}
	if p.WinOffset() != 3 || p.Interval() != 24 || p.UpdateInstant() != 0x1234 {
		t.Fatalf("fields = %d %d %#x", p.WinOffset(), p.Interval(), p.UpdateInstant())
	}

	m := DataPDU(buildChannelMapInd([]byte{0x03, 0, 0, 0, 0}, 77))
	if m.ChannelMap() != 0x3 || m.MapInstant() != 77 {
		t.Fatalf("map fields = %#x %d", uint64(m.ChannelMap()), m.MapInstant())
	}

	y := DataPDU(buildPHYUpdateInd(uint8(sniffle.PHY2M), 501))
	if y.PHY() != uint8(sniffle.PHY2M) || y.PHYInstant() != 501 {
		t.Fatalf("phy fields = %d %d", y.PHY(), y.PHYInstant())
	}
}

func TestDataPDUValid(t *testing.T) {
	tests := []struct {
		name string
		pdu  []byte
		want bool
	}{
		{name: "opcode only", pdu: []byte{llidControl, 1, 0x12}, want: true},
		{name: "too short", pdu: []byte{llidControl, 0}, want: false},
		{name: "declared length too long", pdu: []byte{llidControl, 9, 0x00, 0, 0}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DataPDU(tc.pdu).Valid(); got != tc.want {
				t.Fatalf("Valid = %v, want %v", got, tc.want)
			}
		})
	}
}
