package ledvis

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWouldBlock is returned by a Source when no data is available yet.
var ErrWouldBlock = errors.New("audio source would block")

// Source is a non-blocking audio byte stream. Read returns ErrWouldBlock
// instead of waiting for data, and (0, nil) when the writer has gone away.
type Source interface {
	io.ReadCloser
}
