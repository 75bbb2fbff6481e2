package itm

import "testing"

func TestClassifyHeader(t *testing.T) {
	cases := []struct {
		name string
		b    byte
		want headerCategory
	}{
		{"Zero", 0x00, hdrSync},
		{"Overflow", 0x70, hdrOverflow},
		{"LTS2", 0x50, hdrLTS2},
		{"LTS1", 0xC0, hdrLTS1},
		{"LTS1Delayed", 0xF0, hdrLTS1},
		{"GTS1", 0x94, hdrGTS1},
		{"GTS2", 0xB4, hdrGTS2},
		{"ExtensionSW", 0x08, hdrExtension},
		{"ExtensionHW", 0x3C, hdrExtension},
		{"SWITPort0", 0x01, hdrSWIT},
		{"SWITPort31", 0xFB, hdrSWIT},
		{"EventCounter", 0x05, hdrHardware},
		{"DataTrace", 0x47, hdrHardware},
		{"ReservedSize", 0x04, hdrInvalid},
		{"ReservedDisc", 0x1D, hdrInvalid},
		{"ReservedDiscHigh", 0xC5, hdrInvalid},
		{"Lone0x80", 0x80, hdrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyHeader(tc.b); got.cat != tc.want {
				t.Errorf("classifyHeader(%#02x).cat = %v, want %v", tc.b, got.cat, tc.want)
			}
		})
	}
}

func TestSourceSize(t *testing.T) {
	for ss, want := range map[byte]int{0x0: 0, 0x1: 1, 0x2: 2, 0x3: 4} {
		if got := sourceSize(ss); got != want {
			t.Errorf("sourceSize(%d) = %d, want %d", ss, got, want)
		}
	}
}

func TestPacketString(t *testing.T) {
	cases := []struct {
		name string
		pkt  Packet
		want string
	}{
		{
			name: "SWIT",
			pkt:  Packet{Type: PktSWIT, Port: 3, Payload: []byte{0xBB}},
			want: "SWIT:Software stimulus packet; 8 bit; Port 0x03; Data 0xBB",
		},
		{
			name: "Overflow",
			pkt:  Packet{Type: PktOverflow},
			want: "OVERFLOW:Overflow packet",
		},
		{
			name: "LocalTS",
			pkt:  Packet{Type: PktLocalTS, Delta: 0x3220, Relation: RelTSDelayed},
			want: "TS_L:Local timestamp packet; TC TS Delay; TS = 0x0003220",
		},
		{
			name: "PCSampleSleep",
			pkt:  Packet{Type: PktPCSample},
			want: "DWT_PC:Periodic PC sample packet; Sleep",
		},
		{
			name: "BadSequence",
			pkt:  Packet{Type: PktBadSequence, ErrType: PktGlobalTS2},
			want: "BAD_SEQUENCE:Invalid sequence in packet[TS_G2]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pkt.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
