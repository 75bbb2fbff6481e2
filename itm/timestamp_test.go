package itm

import "testing"

func correlateAll(c *Correlator, pkts ...Packet) CorrelatedPacket {
	var last CorrelatedPacket
	for _, pkt := range pkts {
		last = c.Correlate(pkt)
	}
	return last
}

func TestCorrelatorBase(t *testing.T) {
	t.Run("NoTimeBeforeFirstTimestamp", func(t *testing.T) {
		var c Correlator
		cp := c.Correlate(Packet{Type: PktSWIT, Port: 1, Payload: []byte{0xAB}})
		if cp.HasTime {
			t.Error("packet before any timestamp must not carry a time")
		}
	})

	t.Run("GTSPairFoldsBase", func(t *testing.T) {
		var c Correlator
		cp := correlateAll(&c,
			Packet{Type: PktGlobalTS1, Timestamp: 42},
			Packet{Type: PktGlobalTS2, Timestamp: 7},
		)
		if !cp.HasTime || !cp.Time.HasBase {
			t.Fatalf("expected a folded base, got %+v", cp.Time)
		}
		if want := uint64(7)<<26 | 42; cp.Time.Base != want {
			t.Errorf("base 0x%X, want 0x%X", cp.Time.Base, want)
		}
	})

	t.Run("GTS1AloneGivesNoBase", func(t *testing.T) {
		var c Correlator
		cp := c.Correlate(Packet{Type: PktGlobalTS1, Timestamp: 42})
		if cp.Time.HasBase {
			t.Error("lower bits alone must not produce a base")
		}
	})

	t.Run("CompressedGTS1KeepsHighBits", func(t *testing.T) {
		var c Correlator
		cp := correlateAll(&c,
			Packet{Type: PktGlobalTS1, Timestamp: 0x1F00},
			Packet{Type: PktGlobalTS2, Timestamp: 1},
			// compressed update: only the low 7 bits changed
			Packet{Type: PktGlobalTS1, Timestamp: 0x23},
		)
		if want := uint64(1)<<26 | 0x1F23; cp.Time.Base != want {
			t.Errorf("base 0x%X, want 0x%X", cp.Time.Base, want)
		}
	})

	t.Run("WrapInvalidatesUpperBits", func(t *testing.T) {
		var c Correlator
		cp := correlateAll(&c,
			Packet{Type: PktGlobalTS1, Timestamp: 100},
			Packet{Type: PktGlobalTS2, Timestamp: 3},
			Packet{Type: PktGlobalTS1, Timestamp: 0x40, Wrap: true},
		)
		// base keeps its last folded value until the next GTS2 arrives
		if want := uint64(3)<<26 | 100; cp.Time.Base != want {
			t.Errorf("base 0x%X, want 0x%X", cp.Time.Base, want)
		}
		cp = c.Correlate(Packet{Type: PktGlobalTS2, Timestamp: 4})
		if want := uint64(4)<<26 | 0x40; cp.Time.Base != want {
			t.Errorf("base after wrap 0x%X, want 0x%X", cp.Time.Base, want)
		}
	})

	t.Run("ClockChangeResetsEverything", func(t *testing.T) {
		var c Correlator
		correlateAll(&c,
			Packet{Type: PktGlobalTS1, Timestamp: 100},
			Packet{Type: PktGlobalTS2, Timestamp: 3},
			Packet{Type: PktGlobalTS1, Timestamp: 1, Wrap: true, ClockChange: true},
		)
		// a lone GTS2 after the reset must not fold with stale lower bits
		cp := c.Correlate(Packet{Type: PktGlobalTS2, Timestamp: 9})
		if want := uint64(3)<<26 | 100; cp.Time.Base != want {
			t.Errorf("base 0x%X, want unchanged 0x%X", cp.Time.Base, want)
		}
		cp = c.Correlate(Packet{Type: PktGlobalTS1, Timestamp: 2})
		if want := uint64(9)<<26 | 2; cp.Time.Base != want {
			t.Errorf("base 0x%X, want 0x%X", cp.Time.Base, want)
		}
	})
}

func TestCorrelatorDelta(t *testing.T) {
	t.Run("DeltasAccumulate", func(t *testing.T) {
		var c Correlator
		cp := correlateAll(&c,
			Packet{Type: PktLocalTS, Delta: 10, Relation: RelSync},
			Packet{Type: PktLocalTS, Delta: 5, Relation: RelTSDelayed},
		)
		if !cp.HasTime || cp.Time.Delta != 15 {
			t.Errorf("delta %d, want 15", cp.Time.Delta)
		}
		if cp.Time.Relation != RelTSDelayed {
			t.Errorf("relation %v, want %v", cp.Time.Relation, RelTSDelayed)
		}
	})

	t.Run("BaseRestartsDelta", func(t *testing.T) {
		var c Correlator
		cp := correlateAll(&c,
			Packet{Type: PktLocalTS, Delta: 10},
			Packet{Type: PktGlobalTS1, Timestamp: 100},
			Packet{Type: PktGlobalTS2, Timestamp: 1},
		)
		if cp.Time.HasDelta || cp.Time.Delta != 0 {
			t.Errorf("delta survived a base fold: %+v", cp.Time)
		}
		cp = c.Correlate(Packet{Type: PktLocalTS, Delta: 7})
		if want := uint64(1)<<26 + 100 + 7; cp.Time.Time() != want {
			t.Errorf("time %d, want %d", cp.Time.Time(), want)
		}
	})

	t.Run("TimeIsMonotonic", func(t *testing.T) {
		var c Correlator
		stream := []Packet{
			{Type: PktLocalTS, Delta: 3},
			{Type: PktSWIT, Port: 0, Payload: []byte{1}},
			{Type: PktLocalTS, Delta: 9},
			{Type: PktGlobalTS1, Timestamp: 50},
			{Type: PktGlobalTS2, Timestamp: 0},
			{Type: PktLocalTS, Delta: 1},
			{Type: PktLocalTS, Delta: 1},
		}
		var prev uint64
		for i, pkt := range stream {
			cp := c.Correlate(pkt)
			if got := cp.Time.Time(); got < prev {
				t.Fatalf("packet %d: time went backwards, %d after %d", i, got, prev)
			} else {
				prev = got
			}
		}
	})
}

func TestCorrelatorDivergence(t *testing.T) {
	var c Correlator
	cp := correlateAll(&c,
		Packet{Type: PktLocalTS, Delta: 4},
		Packet{Type: PktOverflow},
		Packet{Type: PktSWIT, Port: 2, Payload: []byte{0xFF}},
	)
	if !cp.Time.Diverged {
		t.Error("overflow must mark subsequent times as diverged")
	}
}
