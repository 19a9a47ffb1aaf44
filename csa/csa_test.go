package csa

import "testing"

const allUsed = ChannelMap(1<<NumChannels - 1)

func TestMap1Identity(t *testing.T) {
	tbl, err := Map1(allUsed)
	if err != nil {
		t.Fatalf("Map1(all used) = %v", err)
	}
	for ch := uint8(0); ch < NumChannels; ch++ {
		if tbl[ch] != ch {
			t.Fatalf("mapping[%d] = %d, want identity", ch, tbl[ch])
		}
	}
}

func TestMap1Remapping(t *testing.T) {
	tests := []struct {
		name string
		m    ChannelMap
	}{
		{name: "low pair", m: 0x3},                      // channels 0,1
		{name: "sparse", m: 1<<5 | 1<<17 | 1<<36},       // 3 used
		{name: "upper half", m: allUsed &^ (1<<19 - 1)}, // 19-36
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Map1(tc.m)
			if err != nil {
				t.Fatalf("Map1 = %v", err)
			}
			for ch := uint8(0); ch < NumChannels; ch++ {
				if tc.m.Used(ch) {
					if tbl[ch] != ch {
						t.Fatalf("used channel %d maps to %d", ch, tbl[ch])
					}
				} else if !tc.m.Used(tbl[ch]) {
					t.Fatalf("unused channel %d maps to unused channel %d", ch, tbl[ch])
				}
			}
		})
	}
}

func TestMap1ModuloFold(t *testing.T) {
	// with channels {0,1} used, channel 2 folds to remap[2 mod 2] = 0
	tbl, err := Map1(0x3)
	if err != nil {
		t.Fatalf("Map1 = %v", err)
	}
	if tbl[2] != 0 {
		t.Fatalf("mapping[2] = %d, want 0", tbl[2])
	}
	if tbl[3] != 1 {
		t.Fatalf("mapping[3] = %d, want 1", tbl[3])
	}
}

func TestMap1Deterministic(t *testing.T) {
	m := ChannelMap(0x1FFF00FF00)
	a, err := Map1(m)
	if err != nil {
		t.Fatalf("Map1 = %v", err)
	}
	b, _ := Map1(m)
	if a != b {
		t.Fatal("Map1 not deterministic for identical input")
	}
}

func TestMap1FewUsedChannels(t *testing.T) {
	for _, m := range []ChannelMap{0, 1 << 12} {
		if _, err := Map1(m); err != ErrFewUsedChannels {
			t.Fatalf("Map1(%#x) err = %v, want ErrFewUsedChannels", uint64(m), err)
		}
	}
}

func TestChannelMapFromBytes(t *testing.T) {
	m := ChannelMapFromBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F})
	if m != allUsed {
		t.Fatalf("ChannelMapFromBytes = %#x, want %#x", uint64(m), uint64(allUsed))
	}
	// bits beyond channel 36 must be masked off
	m = ChannelMapFromBytes([]byte{0x00, 0x00, 0x00, 0x00, 0xE0})
	if m != 0 {
		t.Fatalf("ChannelMapFromBytes kept reserved bits: %#x", uint64(m))
	}
	if got := ChannelMapFromBytes([]byte{0x05}); got != 0x5 {
		t.Fatalf("short input = %#x, want 0x5", uint64(got))
	}
}

func TestNumUsed(t *testing.T) {
	if n := allUsed.NumUsed(); n != 37 {
		t.Fatalf("NumUsed(all) = %d", n)
	}
	if n := ChannelMap(1<<9 | 1<<35).NumUsed(); n != 2 {
		t.Fatalf("NumUsed(two) = %d", n)
	}
}
