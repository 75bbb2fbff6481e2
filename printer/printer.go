// Package printer renders decoded packets as text lines for trace dump
// output.
package printer

import (
	"fmt"
	"strings"

	"itmtrace/itm"
)

// FormatPacketLine formats a raw packet listing line.
func FormatPacketLine(pkt itm.Packet) string {
	return fmt.Sprintf("Idx:%d; [%s];\t%s", pkt.Offset, formatHexBytes(pkt.Data), pkt.String())
}

// FormatCorrelatedLine formats a packet listing line with the stream time
// the correlator assigned to it.
func FormatCorrelatedLine(cp itm.CorrelatedPacket) string {
	return fmt.Sprintf("%s %s", formatTime(cp), FormatPacketLine(cp.Packet))
}

func formatTime(cp itm.CorrelatedPacket) string {
	if !cp.HasTime {
		return "[--------------]"
	}
	if cp.Time.Diverged {
		return fmt.Sprintf("[%13d?]", cp.Time.Time())
	}
	return fmt.Sprintf("[%14d]", cp.Time.Time())
}

func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("0x%02x", b)
	}
	return strings.Join(parts, " ") + " "
}
