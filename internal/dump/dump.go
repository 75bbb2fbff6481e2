// Package dump drives a decoder over a trace byte source and renders the
// result, either as raw stimulus data or as a packet listing.
package dump

import (
	"fmt"
	"io"

	"itmtrace/common"
	"itmtrace/itm"
	"itmtrace/printer"
)

const readChunk = 4096

// Config selects the input, output and rendering mode of a dump run.
type Config struct {
	Input  io.Reader
	Output io.Writer
	Log    common.Logger

	// Port selects the stimulus port rendered in stimulus mode. Ignored
	// when a channel map is set.
	Port uint8
	// ListAll renders every decoded packet as a listing line instead of
	// stimulus data.
	ListAll bool
	// Timestamps annotates listing lines with correlated stream time.
	// Only meaningful with ListAll.
	Timestamps bool
	// Channels renders multiple stimulus ports per the map.
	Channels ChannelMap
}

// Run decodes cfg.Input to exhaustion and writes the rendering to
// cfg.Output.
func Run(cfg *Config) error {
	if cfg.Log == nil {
		cfg.Log = common.NewNoOpLogger()
	}

	dec := itm.NewDecoder()
	dec.Log = cfg.Log
	var corr itm.Correlator

	buf := make([]byte, readChunk)
	for {
		n, rerr := cfg.Input.Read(buf)
		if n > 0 {
			dec.Push(buf[:n])
			if err := drain(cfg, dec, &corr); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			dec.EOT()
			return drain(cfg, dec, &corr)
		}
		if rerr != nil {
			return common.NewErrorMsg(common.SeverityError, common.ErrSourceRead, rerr.Error())
		}
	}
}

func drain(cfg *Config, dec *itm.Decoder, corr *itm.Correlator) error {
	for {
		pkt, ok := dec.Next()
		if !ok {
			return nil
		}

		var err error
		if cfg.ListAll {
			err = writeListing(cfg, corr.Correlate(pkt))
		} else {
			err = writeStimulus(cfg, pkt)
		}
		if err != nil {
			return common.NewErrorMsg(common.SeverityError, common.ErrFileError, err.Error())
		}
	}
}

func writeListing(cfg *Config, cp itm.CorrelatedPacket) error {
	line := printer.FormatPacketLine(cp.Packet)
	if cfg.Timestamps {
		line = printer.FormatCorrelatedLine(cp)
	}
	_, err := fmt.Fprintln(cfg.Output, line)
	return err
}

func writeStimulus(cfg *Config, pkt itm.Packet) error {
	if pkt.Type != itm.PktSWIT {
		return nil
	}

	cc, mapped := cfg.Channels[pkt.Port]
	if len(cfg.Channels) > 0 {
		if !mapped {
			return nil
		}
	} else if pkt.Port != cfg.Port {
		return nil
	}

	switch cc.Format {
	case "", "text":
		_, err := cfg.Output.Write(pkt.Payload)
		return err
	case "hex":
		_, err := fmt.Fprintf(cfg.Output, "%s0x%0*X\n", chanPrefix(cc), len(pkt.Payload)*2, pkt.Value())
		return err
	case "decimal":
		_, err := fmt.Fprintf(cfg.Output, "%s%d\n", chanPrefix(cc), pkt.Value())
		return err
	}
	return nil
}

func chanPrefix(cc ChannelConfig) string {
	if cc.Name == "" {
		return ""
	}
	return cc.Name + ": "
}
