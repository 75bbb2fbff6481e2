package source

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"itmtrace/common"
)

const followInterval = 10 * time.Millisecond

// FollowReader reads a file that another process is still appending to,
// such as a named pipe fed by a debug probe. Read blocks at end of file
// and polls for more data until Close is called.
type FollowReader struct {
	f        *os.File
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// OpenFollow opens path for follow-mode reading.
func OpenFollow(path string) (*FollowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewErrorMsg(common.SeverityError, common.ErrFileError, err.Error())
	}
	return &FollowReader{
		f:        f,
		interval: followInterval,
		done:     make(chan struct{}),
	}, nil
}

func (r *FollowReader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			if errors.Is(err, os.ErrClosed) {
				// lost a race with Close
				return 0, io.EOF
			}
			return 0, err
		}
		select {
		case <-r.done:
			return 0, io.EOF
		case <-time.After(r.interval):
		}
	}
}

// Close stops any blocked Read and releases the file.
func (r *FollowReader) Close() error {
	r.once.Do(func() { close(r.done) })
	return r.f.Close()
}
