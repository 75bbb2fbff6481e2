package itm

import (
	"fmt"
	"strings"
)

// PacketType represents the type of an ITM/DWT trace packet.
// Contains both protocol packet types and markers for malformed byte
// sequences and data flushed at end of trace.
type PacketType int

const (
	PktUnknown PacketType = iota

	// protocol packets (Appendix D4.2)
	PktSync      // Alignment synchronisation packet
	PktOverflow  // Overflow packet
	PktLocalTS   // Local timestamp packet (format 1 or 2)
	PktGlobalTS1 // Global timestamp bits [25:0]
	PktGlobalTS2 // Global timestamp bits [63:26] or [47:26]
	PktExtension // Stimulus port page extension packet
	PktSWIT      // Software instrumentation packet

	// hardware source packets (Appendix D4.3)
	PktEventCounter   // DWT event counter wrap
	PktExceptionTrace // Exception entry/exit/return
	PktPCSample       // Periodic PC sample (or sleep)
	PktDataTracePC    // Data trace PC value
	PktDataTraceAddr  // Data trace address
	PktDataTraceValue // Data trace data value

	// markers for malformed data / state
	PktIncompleteEOT // Incomplete packet flushed at end of trace
	PktInvalidHdr    // Header byte matches no known packet layout
	PktBadSequence   // Payload violates the packet layout
)

func (t PacketType) String() string {
	name, _ := t.nameAndDesc()
	return name
}

func (t PacketType) nameAndDesc() (string, string) {
	switch t {
	case PktSync:
		return "SYNC", "Alignment synchronisation packet"
	case PktOverflow:
		return "OVERFLOW", "Overflow packet"
	case PktLocalTS:
		return "TS_L", "Local timestamp packet"
	case PktGlobalTS1:
		return "TS_G1", "Global timestamp packet 1"
	case PktGlobalTS2:
		return "TS_G2", "Global timestamp packet 2"
	case PktExtension:
		return "EXTENSION", "Stimulus port page packet"
	case PktSWIT:
		return "SWIT", "Software stimulus packet"
	case PktEventCounter:
		return "DWT_EVENT", "Event counter wrap packet"
	case PktExceptionTrace:
		return "DWT_EXC", "Exception trace packet"
	case PktPCSample:
		return "DWT_PC", "Periodic PC sample packet"
	case PktDataTracePC:
		return "DWT_DT_PC", "Data trace PC value packet"
	case PktDataTraceAddr:
		return "DWT_DT_ADDR", "Data trace address packet"
	case PktDataTraceValue:
		return "DWT_DT_VAL", "Data trace data value packet"
	case PktIncompleteEOT:
		return "INCOMPLETE_EOT", "Incomplete packet at end of trace"
	case PktInvalidHdr:
		return "INVALID_HDR", "Invalid packet header"
	case PktBadSequence:
		return "BAD_SEQUENCE", "Invalid sequence in packet"
	default:
		return "UNKNOWN", "Unknown packet type"
	}
}

// TimestampRelation indicates how a local timestamp value relates to the
// ITM/DWT packets around it. (Appendix D4.2.4, TC field)
type TimestampRelation int

const (
	RelSync        TimestampRelation = iota // timestamp synchronous to data
	RelTSDelayed                            // timestamp delayed relative to data
	RelDataDelayed                          // data delayed relative to the event
	RelBothDelayed                          // both of the above
)

func (r TimestampRelation) String() string {
	switch r {
	case RelSync:
		return "TS Sync"
	case RelTSDelayed:
		return "TS Delay"
	case RelDataDelayed:
		return "Data Delay"
	case RelBothDelayed:
		return "TS + Data Delay"
	default:
		return "TS Unknown"
	}
}

// ExceptionAction is the action reported by an exception trace packet.
// (Table D4-6)
type ExceptionAction int

const (
	ExcEnter ExceptionAction = iota + 1
	ExcExit
	ExcReturn
)

func (a ExceptionAction) String() string {
	switch a {
	case ExcEnter:
		return "Entered"
	case ExcExit:
		return "Exited"
	case ExcReturn:
		return "Returned"
	default:
		return "Unknown"
	}
}

// MemoryAccess is the access direction of a data trace data value packet.
type MemoryAccess int

const (
	AccessRead MemoryAccess = iota
	AccessWrite
)

func (m MemoryAccess) String() string {
	if m == AccessWrite {
		return "Write"
	}
	return "Read"
}

// ExtensionSource selects the numbering space an extension packet applies to.
type ExtensionSource int

const (
	SourceITM ExtensionSource = iota // software stimulus port pages
	SourceDWT                        // hardware source numbering
)

func (s ExtensionSource) String() string {
	if s == SourceDWT {
		return "HW"
	}
	return "SW"
}

// EventCounters holds the DWT event counter wrap flags.
type EventCounters uint8

const (
	EcntrCPI EventCounters = 0x01
	EcntrEXC EventCounters = 0x02
	EcntrSLP EventCounters = 0x04
	EcntrLSU EventCounters = 0x08
	EcntrFLD EventCounters = 0x10
	EcntrCYC EventCounters = 0x20
)

func (e EventCounters) String() string {
	var parts []string
	flags := []struct {
		bit  EventCounters
		name string
	}{
		{EcntrCPI, "CPI"}, {EcntrEXC, "EXC"}, {EcntrSLP, "SLP"},
		{EcntrLSU, "LSU"}, {EcntrFLD, "FLD"}, {EcntrCYC, "CYC"},
	}
	for _, f := range flags {
		if e&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, " ")
}

// Packet represents a decoded ITM/DWT packet. Type selects which of the
// payload fields are meaningful. Malformed input is reported as a packet
// with one of the error marker types and the offending bytes in Data.
type Packet struct {
	Type   PacketType
	Data   []byte // raw bytes consumed for this packet
	Offset uint64 // byte offset of the header in the trace stream

	// SWIT / data trace payload
	Port    uint8  // stimulus port [31:0], SWIT only
	Payload []byte // 1, 2 or 4 bytes, LE

	// local timestamp
	Delta    uint32 // elapsed cycles since previous local timestamp
	Relation TimestampRelation

	// global timestamp
	Timestamp   uint64 // GTS1: bits [25:0]; GTS2: bits above 25
	Wrap        bool   // GTS1: higher-order bits changed since last GTS2
	ClockChange bool   // GTS1: timestamp clock changed

	// extension
	Page   uint8
	Source ExtensionSource

	// hardware source
	Counters   EventCounters
	Exception  uint16 // exception number [8:0]
	Action     ExceptionAction
	PC         uint32
	PCValid    bool // false encodes a sleep sample
	Comparator uint8
	Access     MemoryAccess

	// Initial type of the packet if Type indicates a bad sequence or an
	// incomplete flush at end of trace.
	ErrType PacketType
}

// IsMalformed returns true if the packet records bytes that violated the
// protocol rather than a decoded protocol packet.
func (p *Packet) IsMalformed() bool {
	return p.Type == PktInvalidHdr || p.Type == PktBadSequence
}

// Value returns the payload bytes assembled as a little-endian integer.
// Meaningful for SWIT and data trace packets.
func (p *Packet) Value() uint32 {
	var v uint32
	for i, b := range p.Payload {
		v |= uint32(b) << (8 * i)
	}
	return v
}

// String provides a string representation of the packet.
func (p *Packet) String() string {
	name, desc := p.Type.nameAndDesc()
	str := fmt.Sprintf("%s:%s", name, desc)

	switch p.Type {
	case PktSWIT:
		str += fmt.Sprintf("; %s; Port 0x%02X; Data 0x%0*X", p.valSizeStr(), p.Port, len(p.Payload)*2, p.Value())
	case PktLocalTS:
		str += fmt.Sprintf("; TC %s; TS = 0x%07X", p.Relation, p.Delta)
	case PktGlobalTS1:
		str += fmt.Sprintf("; TS 25:0  0x%07X", p.Timestamp)
		if p.Wrap {
			str += "; WRAP"
		}
		if p.ClockChange {
			str += "; CLKCH"
		}
	case PktGlobalTS2:
		str += fmt.Sprintf("; TS 63:26 0x%010X", p.Timestamp)
	case PktExtension:
		str += fmt.Sprintf("; Src %s; Page %d", p.Source, p.Page)
	case PktEventCounter:
		str += fmt.Sprintf("; %s", p.Counters)
	case PktExceptionTrace:
		str += fmt.Sprintf("; Exception Num %03d %s", p.Exception, p.Action)
	case PktPCSample:
		if p.PCValid {
			str += fmt.Sprintf("; PC = 0x%08X", p.PC)
		} else {
			str += "; Sleep"
		}
	case PktDataTracePC:
		str += fmt.Sprintf("; Cmp %d; PC = 0x%08X", p.Comparator, p.PC)
	case PktDataTraceAddr:
		str += fmt.Sprintf("; Cmp %d; Addr = 0x%04X", p.Comparator, p.Value())
	case PktDataTraceValue:
		str += fmt.Sprintf("; Cmp %d; %s; Data = 0x%0*X", p.Comparator, p.Access, len(p.Payload)*2, p.Value())
	case PktBadSequence, PktIncompleteEOT:
		name, _ = p.ErrType.nameAndDesc()
		str += fmt.Sprintf("[%s]", name)
	case PktInvalidHdr:
		if len(p.Data) > 0 {
			str += fmt.Sprintf("; Hdr 0x%02X", p.Data[0])
		}
	}
	return str
}

func (p *Packet) valSizeStr() string {
	switch len(p.Payload) {
	case 1:
		return "8 bit"
	case 2:
		return "16 bit"
	case 4:
		return "32 bit"
	default:
		return "Unsized"
	}
}
