package itm

import "itmtrace/common"

type procState int

const (
	procHdr procState = iota
	procData
	procWaitSync
)

// Decoder is a streaming ITM/DWT packet decoder. Feed it raw trace bytes
// with Push and drain decoded packets with Next; the decoder carries any
// incomplete packet across Push boundaries, so input may be chunked
// arbitrarily. It performs no I/O itself.
//
// Malformed input is reported in-band: bytes that do not form a valid
// packet come back as packets with an error marker type (PktInvalidHdr,
// PktBadSequence, PktIncompleteEOT) carrying the offending bytes, and
// decoding continues at the next byte.
type Decoder struct {
	// Log receives diagnostics for malformed input. Defaults to a no-op
	// logger.
	Log common.Logger

	state    procState
	in       []byte // pending undecoded input
	buf      []byte // bytes of the packet being assembled
	info     headerInfo
	offset   uint64 // stream index of the next byte of in
	pktStart uint64
	zeroRun  int // zero bytes consumed while hunting for sync
	eot      bool
}

// NewDecoder returns a decoder positioned at stream offset zero.
func NewDecoder() *Decoder {
	return &Decoder{
		Log: common.NewNoOpLogger(),
		buf: make([]byte, 0, 8),
	}
}

// Push appends raw trace bytes to the decoder's input. Push after EOT is
// ignored.
func (d *Decoder) Push(data []byte) {
	if d.eot {
		return
	}
	d.in = append(d.in, data...)
}

// EOT marks the end of the trace stream. After EOT, Next drains the
// remaining decodable input; a packet left incomplete at the end of the
// stream is reported as a PktIncompleteEOT packet carrying its bytes.
func (d *Decoder) EOT() {
	d.eot = true
}

// Next returns the next decoded packet. ok is false when the decoder needs
// more input (or, after EOT, when the stream is exhausted).
func (d *Decoder) Next() (pkt Packet, ok bool) {
	for {
		switch d.state {
		case procHdr:
			if len(d.in) == 0 {
				return Packet{}, false
			}
			if pkt, ok = d.procHeader(); ok {
				return pkt, true
			}

		case procData:
			pkt, ok, stalled := d.procPayload()
			if ok {
				return pkt, true
			}
			if stalled {
				return Packet{}, false
			}

		case procWaitSync:
			pkt, ok, stalled := d.procSync()
			if ok {
				return pkt, true
			}
			if stalled {
				return Packet{}, false
			}
		}
	}
}

// consume removes n bytes from the front of the pending input and advances
// the stream offset.
func (d *Decoder) consume(n int) {
	d.in = d.in[n:]
	d.offset += uint64(n)
}

// procHeader classifies the byte at the front of the input. Single-byte
// packets are emitted immediately; multi-byte packets move the decoder to
// payload collection.
func (d *Decoder) procHeader() (Packet, bool) {
	b := d.in[0]
	d.pktStart = d.offset
	info := classifyHeader(b)

	switch info.cat {
	case hdrInvalid:
		d.consume(1)
		d.Log.Logf(common.SeverityWarning, "Idx:%d; invalid header byte 0x%02X", d.pktStart, b)
		return Packet{Type: PktInvalidHdr, ErrType: PktUnknown, Data: []byte{b}, Offset: d.pktStart}, true

	case hdrSync:
		d.state = procWaitSync
		d.zeroRun = 0
		return Packet{}, false

	case hdrOverflow:
		d.consume(1)
		return Packet{Type: PktOverflow, Data: []byte{b}, Offset: d.pktStart}, true

	case hdrLTS2:
		d.consume(1)
		pkt := Packet{Data: []byte{b}, Offset: d.pktStart}
		decodeLTS2(b, &pkt)
		return pkt, true

	case hdrExtension:
		d.consume(1)
		pkt := Packet{Data: []byte{b}, Offset: d.pktStart}
		decodeExtension(b, &pkt)
		return pkt, true

	default:
		d.consume(1)
		d.info = info
		d.buf = append(d.buf[:0], b)
		d.state = procData
		return Packet{}, false
	}
}

// procPayload collects payload bytes for the packet being assembled. It
// returns the completed packet, or stalled=true when input ran out before
// the packet did.
func (d *Decoder) procPayload() (Packet, bool, bool) {
	for len(d.in) > 0 {
		b := d.in[0]
		d.consume(1)
		d.buf = append(d.buf, b)
		got := len(d.buf) - 1 // payload bytes so far

		if d.info.variable {
			if b&0x80 == 0 {
				return d.emitPacket(), true, false
			}
			if len(d.buf) == d.info.limit {
				// continuation bit still set at the maximum length
				return d.emitBadSequence("continuation overrun"), true, false
			}
			continue
		}
		if got == d.info.payload {
			return d.emitPacket(), true, false
		}
	}

	if d.eot {
		if len(d.buf) > 0 {
			return d.emitIncomplete(), true, false
		}
		d.state = procHdr
	}
	return Packet{}, false, true
}

// procSync consumes a run of zero bytes. A run of at least five zeros
// terminated by 0x80 is a synchronization packet; any other terminator ends
// the run as a bad sequence and is left in the input for reclassification.
func (d *Decoder) procSync() (Packet, bool, bool) {
	for len(d.in) > 0 {
		b := d.in[0]
		if b == 0x00 {
			d.consume(1)
			d.zeroRun++
			continue
		}
		if b == 0x80 && d.zeroRun >= 5 {
			d.consume(1)
			d.state = procHdr
			pkt := Packet{Type: PktSync, Offset: d.pktStart, Data: make([]byte, d.zeroRun+1)}
			pkt.Data[d.zeroRun] = 0x80
			return pkt, true, false
		}
		// run broken; the breaking byte may still be a valid header
		d.state = procHdr
		d.Log.Logf(common.SeverityWarning, "Idx:%d; zero run of %d broken by 0x%02X", d.pktStart, d.zeroRun, b)
		pkt := Packet{Type: PktBadSequence, ErrType: PktSync, Offset: d.pktStart, Data: make([]byte, d.zeroRun)}
		return pkt, true, false
	}

	if d.eot {
		d.state = procHdr
		pkt := Packet{Type: PktIncompleteEOT, ErrType: PktSync, Offset: d.pktStart, Data: make([]byte, d.zeroRun)}
		return pkt, true, false
	}
	return Packet{}, false, true
}

// emitPacket decodes the assembled bytes into a packet and resets for the
// next header.
func (d *Decoder) emitPacket() Packet {
	hdr := d.buf[0]
	payload := d.buf[1:]
	pkt := Packet{Offset: d.pktStart, Data: append([]byte(nil), d.buf...)}

	var err *common.Error
	switch d.info.cat {
	case hdrLTS1:
		err = decodeLTS1(hdr, payload, &pkt)
	case hdrGTS1:
		err = decodeGTS1(payload, &pkt)
	case hdrGTS2:
		err = decodeGTS2(payload, &pkt)
	case hdrSWIT:
		decodeSWIT(hdr, payload, &pkt)
	case hdrHardware:
		err = decodeHardware(hdr, payload, &pkt)
	}

	d.state = procHdr
	if err != nil {
		err.Idx = d.pktStart
		d.Log.Log(err.Sev, err.Error())
		bad := Packet{Type: PktBadSequence, ErrType: pktTypeFor(d.info.cat), Offset: d.pktStart,
			Data: append([]byte(nil), d.buf...)}
		return bad
	}
	return pkt
}

func (d *Decoder) emitBadSequence(reason string) Packet {
	d.state = procHdr
	d.Log.Logf(common.SeverityWarning, "Idx:%d; %s", d.pktStart, reason)
	return Packet{Type: PktBadSequence, ErrType: pktTypeFor(d.info.cat), Offset: d.pktStart,
		Data: append([]byte(nil), d.buf...)}
}

func (d *Decoder) emitIncomplete() Packet {
	d.state = procHdr
	pkt := Packet{Type: PktIncompleteEOT, ErrType: pktTypeFor(d.info.cat), Offset: d.pktStart,
		Data: append([]byte(nil), d.buf...)}
	d.buf = d.buf[:0]
	return pkt
}

// pktTypeFor maps a header category to the packet type it would have
// produced, for the ErrType field of error marker packets.
func pktTypeFor(cat headerCategory) PacketType {
	switch cat {
	case hdrSync:
		return PktSync
	case hdrOverflow:
		return PktOverflow
	case hdrLTS1, hdrLTS2:
		return PktLocalTS
	case hdrGTS1:
		return PktGlobalTS1
	case hdrGTS2:
		return PktGlobalTS2
	case hdrExtension:
		return PktExtension
	case hdrSWIT:
		return PktSWIT
	case hdrHardware:
		// subtype depends on the payload that failed to decode
		return PktUnknown
	}
	return PktUnknown
}
