//go:build unix

package ledvis

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type pipeSource struct {
	fd int
}

// OpenPipe opens the named pipe at path for non-blocking reads. Opening a pipe
// this way succeeds even when no writer is attached yet.
func OpenPipe(path string) (Source, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &pipeSource{fd: fd}, nil
}

func (p *pipeSource) Read(b []byte) (int, error) {
	n, err := unix.Read(p.fd, b)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return 0, ErrWouldBlock
		}
		return 0, errors.Wrap(err, "failed to read audio pipe")
	}
	return n, nil
}

func (p *pipeSource) Close() error {
	return unix.Close(p.fd)
}
