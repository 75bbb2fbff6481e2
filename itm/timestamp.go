package itm

import "math/bits"

// Timestamp is the correlator's running notion of stream time. Base holds
// the upper global timestamp bits, Delta accumulates local timestamp deltas
// since the last global timestamp, and Relation carries the quality of the
// most recent local timestamp.
type Timestamp struct {
	Base     uint64
	HasBase  bool
	Delta    uint64
	HasDelta bool
	Relation    TimestampRelation
	HasRelation bool
	// Diverged is set once an overflow packet has been seen: from that
	// point the accumulated time may lag the target arbitrarily.
	Diverged bool
}

// Time is the absolute timestamp, in clock cycles, of the last timed
// packet: the global base plus the accumulated local delta.
func (t Timestamp) Time() uint64 {
	return t.Base + t.Delta
}

// CorrelatedPacket is a decoded packet annotated with the stream time at
// which it was generated. HasTime is false until the stream has produced
// its first timestamp packet.
type CorrelatedPacket struct {
	Packet
	Time    Timestamp
	HasTime bool
}

// Correlator folds timestamp packets into an absolute per-packet time.
// It tracks GTS1/GTS2 pairs for the base value and accumulates LTS deltas
// on top. Zero value is ready to use.
type Correlator struct {
	gts1    uint64
	hasGTS1 bool
	gts2    uint64
	hasGTS2 bool
	cur     Timestamp
	hasTime bool
}

// Correlate advances the correlator with pkt and returns it annotated with
// the current stream time.
func (c *Correlator) Correlate(pkt Packet) CorrelatedPacket {
	switch pkt.Type {
	case PktLocalTS:
		c.cur.Delta += uint64(pkt.Delta)
		c.cur.HasDelta = true
		c.cur.Relation = pkt.Relation
		c.cur.HasRelation = true
		c.hasTime = true

	case PktGlobalTS1:
		c.replaceLower(pkt.Timestamp)
		if pkt.Wrap {
			// the lower bits wrapped; the upper bits are stale until
			// the next GTS2 packet
			c.gts2 = 0
			c.hasGTS2 = false
		} else {
			c.fold()
		}
		if pkt.ClockChange {
			// the timestamp clock frequency changed; a full GTS pair
			// follows and all prior state is meaningless
			c.gts1 = 0
			c.hasGTS1 = false
			c.gts2 = 0
			c.hasGTS2 = false
		}

	case PktGlobalTS2:
		c.gts2 = pkt.Timestamp
		c.hasGTS2 = true
		c.fold()

	case PktOverflow:
		c.cur.Diverged = true
	}

	return CorrelatedPacket{Packet: pkt, Time: c.cur, HasTime: c.hasTime}
}

// replaceLower merges a GTS1 value into the tracked lower bits. GTS1
// packets may be compressed, carrying only the low-order bits that have
// changed; the bits above the new value's width are kept from the previous
// packet.
func (c *Correlator) replaceLower(v uint64) {
	if !c.hasGTS1 {
		c.gts1 = v
		c.hasGTS1 = true
		return
	}
	shift := uint(64 - bits.LeadingZeros64(v))
	c.gts1 = (c.gts1>>shift)<<shift | v
}

// fold rebuilds the base timestamp once both global timestamp halves are
// known, and restarts the local delta accumulation from it.
func (c *Correlator) fold() {
	if !c.hasGTS1 || !c.hasGTS2 {
		return
	}
	c.cur.Base = c.gts2<<26 | c.gts1
	c.cur.HasBase = true
	c.cur.Delta = 0
	c.cur.HasDelta = false
	c.hasTime = true
}
