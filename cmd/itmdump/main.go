package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"itmtrace/common"
	"itmtrace/internal/dump"
	"itmtrace/internal/source"
)

const version = "0.1.0"

func main() {
	file := flag.String("f", "-", "Input capture file, \"-\" for stdin (.zst is decompressed)")
	follow := flag.Bool("F", false, "Keep reading when the input file hits end of file")
	serial := flag.String("serial", "", "Read from a serial SWO device instead of a file")
	baud := flag.Int("baud", 115200, "Baud rate for -serial")
	port := flag.Uint("s", 0, "Stimulus port to dump")
	listAll := flag.Bool("a", false, "List every decoded packet instead of stimulus data")
	timestamps := flag.Bool("t", false, "Annotate the packet listing with correlated timestamps")
	chanMap := flag.String("c", "", "YAML channel map file for multi-port rendering")
	verbose := flag.Bool("v", false, "Log decode diagnostics to stderr")
	showVersion := flag.Bool("V", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("itmdump %s\n", version)
		return
	}
	if *port > 31 {
		fmt.Fprintln(os.Stderr, "Error: stimulus port must be 0-31")
		os.Exit(1)
	}

	in, err := openInput(*file, *follow, *serial, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	cfg := dump.Config{
		Input:      in,
		Output:     os.Stdout,
		Port:       uint8(*port),
		ListAll:    *listAll,
		Timestamps: *timestamps,
	}
	if *chanMap != "" {
		cfg.Channels, err = dump.LoadChannelMap(*chanMap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *verbose {
		// keep stdout clean for stimulus data
		cfg.Log = common.NewStdLoggerWithWriter(os.Stderr, os.Stderr, common.SeverityDebug)
	}

	if err := dump.Run(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openInput(file string, follow bool, serial string, baud int) (io.ReadCloser, error) {
	if serial != "" {
		return source.OpenSerial(serial, baud)
	}
	if follow && file != "-" {
		return source.OpenFollow(file)
	}
	return source.OpenFile(file)
}
