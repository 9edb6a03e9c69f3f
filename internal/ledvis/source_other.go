//go:build !unix

package ledvis

import "github.com/pkg/errors"

// OpenPipe is not supported on this platform.
func OpenPipe(path string) (Source, error) {
	return nil, errors.New("audio pipes are not supported on this platform")
}
