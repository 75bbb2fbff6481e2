package itm

// headerCategory identifies the packet family a header byte opens.
type headerCategory int

const (
	hdrInvalid headerCategory = iota
	hdrSync                   // 0x00 - start of alignment sync scan
	hdrOverflow               // 0x70 - complete in the header byte
	hdrLTS2                   // 0b0ttt_0000 - complete in the header byte
	hdrLTS1                   // 0b11rr_0000 + continuation bytes
	hdrGTS1                   // 0x94 + continuation bytes
	hdrGTS2                   // 0xB4 + continuation bytes
	hdrExtension              // 0b0ppp_1s00 - complete in the header byte
	hdrSWIT                   // 0bAAAA_A0SS + 1/2/4 payload bytes
	hdrHardware               // 0bAAAA_A1SS + 1/2/4 payload bytes
)

// headerInfo is the classification of a single header byte: the packet
// category and how many trailing bytes it requires. Continuation-encoded
// categories (LTS1, GTS1, GTS2, sync) report variable length with a hard
// upper limit on the total packet size instead of a fixed payload count.
type headerInfo struct {
	cat      headerCategory
	payload  int  // trailing bytes required, fixed-size categories only
	variable bool // trailing length found from continuation bits
	limit    int  // max total packet bytes for variable categories
}

// sourceSize translates the SS size field of a source packet header.
// (Appendix D4.2.8, Table D4-4). Selector 0b00 is reserved.
func sourceSize(ss byte) int {
	switch ss & 0x3 {
	case 0x1:
		return 1
	case 0x2:
		return 2
	case 0x3:
		return 4
	}
	return 0
}

// classifyHeader inspects the first byte of an unconsumed packet and
// determines its category and trailing byte count. Bytes matching no known
// layout classify as hdrInvalid; the caller consumes exactly one byte and
// resynchronises on the next.
func classifyHeader(b byte) headerInfo {
	// Synchronisation, overflow and local timestamp format 2 share the
	// 0b0xxx_0000 space.
	if b&0x8F == 0x00 {
		switch {
		case b == 0x00:
			return headerInfo{cat: hdrSync, variable: true}
		case b == 0x70:
			return headerInfo{cat: hdrOverflow}
		default:
			// ts values 1-6; 0 and 7 are sync and overflow above
			return headerInfo{cat: hdrLTS2}
		}
	}

	// Local timestamp format 1: 0b11rr_0000, delta in continuation bytes.
	if b&0xCF == 0xC0 {
		return headerInfo{cat: hdrLTS1, variable: true, limit: 5}
	}

	// Global timestamps have fixed headers inside the otherwise reserved
	// 0bxxxx_x100 space, so they classify before the source packets.
	switch b {
	case 0x94:
		return headerInfo{cat: hdrGTS1, variable: true, limit: 5}
	case 0xB4:
		return headerInfo{cat: hdrGTS2, variable: true, limit: 7}
	}

	// Extension: 0b0ppp_1s00, where s selects the ITM/DWT numbering space.
	// Continuation forms (bit 7 set) are not generated for ARMv7-M stimulus
	// page selection and classify as invalid.
	if b&0x8B == 0x08 {
		return headerInfo{cat: hdrExtension}
	}

	// Source packets: 0bAAAA_AxSS with a non-reserved size selector.
	if size := sourceSize(b); size != 0 {
		if b&0x04 != 0 {
			disc := b >> 3
			if disc > 2 && (disc < 8 || disc > 23) {
				// reserved discriminator
				return headerInfo{cat: hdrInvalid}
			}
			return headerInfo{cat: hdrHardware, payload: size}
		}
		return headerInfo{cat: hdrSWIT, payload: size}
	}

	return headerInfo{cat: hdrInvalid}
}
