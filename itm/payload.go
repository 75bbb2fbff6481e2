package itm

import (
	"fmt"

	"itmtrace/common"
)

// contValue assembles a continuation-bit encoded integer from payload
// bytes: 7 value bits per byte, little-endian, top bit is the continuation
// flag. lastMask restricts the value bits of the final byte for layouts
// that put flag bits there.
func contValue(payload []byte, lastMask byte) uint64 {
	var v uint64
	for i, b := range payload {
		mask := byte(0x7F)
		if i == len(payload)-1 {
			mask = lastMask
		}
		v |= uint64(b&mask) << (7 * i)
	}
	return v
}

// decodeLTS1 decodes a local timestamp format 1 packet. The TC field of the
// header gives the data relation; the payload carries the delta, 7 bits per
// continuation byte. (Appendix D4.2.4)
func decodeLTS1(hdr byte, payload []byte, pkt *Packet) *common.Error {
	pkt.Type = PktLocalTS
	pkt.Relation = TimestampRelation((hdr >> 4) & 0x3)
	pkt.Delta = uint32(contValue(payload, 0x7F))
	return nil
}

// decodeLTS2 decodes the single-byte local timestamp format 2 packet:
// delta 1-6 in header bits [6:4], always synchronous.
func decodeLTS2(hdr byte, pkt *Packet) {
	pkt.Type = PktLocalTS
	pkt.Relation = RelSync
	pkt.Delta = uint32((hdr >> 4) & 0x7)
}

// decodeGTS1 decodes the lower 26 timestamp bits. The final payload byte
// holds at most 5 value bits plus the wrap and clock-change flags.
// (Appendix D4.2.5)
func decodeGTS1(payload []byte, pkt *Packet) *common.Error {
	last := payload[len(payload)-1]
	pkt.Type = PktGlobalTS1
	pkt.Timestamp = contValue(payload, 0x1F)
	pkt.Wrap = last&0x40 != 0
	pkt.ClockChange = last&0x20 != 0
	return nil
}

// decodeGTS2 decodes the upper global timestamp bits: [47:26] from a 4 byte
// payload or [63:26] from a 6 byte payload. Other lengths violate the
// layout. (Appendix D4.2.5)
func decodeGTS2(payload []byte, pkt *Packet) *common.Error {
	// final byte carries bit [47] of a 48-bit timestamp or bits [63:61]
	// of a 64-bit one; the rest is reserved
	var lastMask byte
	switch len(payload) {
	case 4:
		lastMask = 0x01
	case 6:
		lastMask = 0x07
	default:
		return common.NewErrorMsg(common.SeverityError, common.ErrBadPacketSeq,
			fmt.Sprintf("GTS2 packet: invalid payload length %d", len(payload)))
	}
	pkt.Type = PktGlobalTS2
	pkt.Timestamp = contValue(payload, lastMask)
	return nil
}

// decodeExtension decodes a single-byte stimulus port page packet.
func decodeExtension(hdr byte, pkt *Packet) {
	pkt.Type = PktExtension
	pkt.Page = (hdr >> 4) & 0x7
	if hdr&0x04 != 0 {
		pkt.Source = SourceDWT
	} else {
		pkt.Source = SourceITM
	}
}

// decodeSWIT decodes a software instrumentation packet: stimulus port from
// the header, payload bytes verbatim.
func decodeSWIT(hdr byte, payload []byte, pkt *Packet) {
	pkt.Type = PktSWIT
	pkt.Port = hdr >> 3
	pkt.Payload = append([]byte(nil), payload...)
}

// decodeHardware decodes a DWT hardware source packet. The discriminator in
// the header selects the sub-format. (Appendix D4.3)
func decodeHardware(hdr byte, payload []byte, pkt *Packet) *common.Error {
	disc := hdr >> 3

	switch {
	case disc == 0:
		// event counter wrap; bits [7:6] of the payload are reserved
		if len(payload) != 1 {
			return hwError(disc, "event counter packet: invalid payload length")
		}
		if payload[0]&0xC0 != 0 {
			return hwError(disc, "event counter packet: reserved bits set")
		}
		pkt.Type = PktEventCounter
		pkt.Counters = EventCounters(payload[0] & 0x3F)

	case disc == 1:
		// exception trace
		if len(payload) != 2 {
			return hwError(disc, "exception trace packet: invalid payload length")
		}
		fn := (payload[1] >> 4) & 0x3
		if fn == 0 {
			return hwError(disc, "exception trace packet: reserved function bits")
		}
		pkt.Type = PktExceptionTrace
		pkt.Exception = uint16(payload[0]) | uint16(payload[1]&0x1)<<8
		pkt.Action = ExceptionAction(fn)

	case disc == 2:
		// periodic PC sample; a single zero byte is a sleep sample
		switch {
		case len(payload) == 1 && payload[0] == 0:
			pkt.Type = PktPCSample
			pkt.PCValid = false
		case len(payload) == 4:
			pkt.Type = PktPCSample
			pkt.PCValid = true
			pkt.PC = leU32(payload)
		default:
			return hwError(disc, "PC sample packet: invalid payload")
		}

	case disc >= 8 && disc <= 23:
		// data trace packets; discriminator bits are ttccd
		t := (disc >> 3) & 0x3
		pkt.Comparator = (disc >> 1) & 0x3
		d := disc & 0x1

		switch {
		case t == 0x1 && d == 0 && len(payload) == 4:
			pkt.Type = PktDataTracePC
			pkt.PC = leU32(payload)
			pkt.PCValid = true
		case t == 0x1 && d == 1 && len(payload) == 2:
			pkt.Type = PktDataTraceAddr
			pkt.Payload = append([]byte(nil), payload...)
		case t == 0x2:
			pkt.Type = PktDataTraceValue
			if d != 0 {
				pkt.Access = AccessWrite
			} else {
				pkt.Access = AccessRead
			}
			pkt.Payload = append([]byte(nil), payload...)
		default:
			return hwError(disc, "data trace packet: invalid discriminator/payload combination")
		}

	default:
		return hwError(disc, "hardware source packet: reserved discriminator")
	}

	return nil
}

func hwError(disc byte, msg string) *common.Error {
	return common.NewErrorMsg(common.SeverityError, common.ErrBadPacketSeq,
		fmt.Sprintf("%s (disc %d)", msg, disc))
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
