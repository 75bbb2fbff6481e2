package source

import (
	"io"

	"github.com/pkg/term"

	"itmtrace/common"
)

// OpenSerial opens a serial SWO device in raw mode at the given baud rate.
func OpenSerial(dev string, baud int) (io.ReadCloser, error) {
	t, err := term.Open(dev, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, common.NewErrorMsg(common.SeverityError, common.ErrFileError, err.Error())
	}
	return t, nil
}
