// Package source opens raw trace byte streams: capture files, files still
// being written by another process, and serial SWO devices.
package source

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"itmtrace/common"
)

// OpenFile opens a trace capture for reading. "-" selects stdin; a ".zst"
// suffix selects transparent zstd decompression.
func OpenFile(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewErrorMsg(common.SeverityError, common.ErrFileError, err.Error())
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, common.NewErrorMsg(common.SeverityError, common.ErrFileError, err.Error())
		}
		return &zstReader{dec: dec, f: f}, nil
	}
	return f, nil
}

type zstReader struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstReader) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstReader) Close() error {
	z.dec.Close()
	return z.f.Close()
}
