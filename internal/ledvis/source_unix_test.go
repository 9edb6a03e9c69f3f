//go:build unix

package ledvis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func TestOpenPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgb.fifo")
	if err := unix.Mkfifo(path, 0600); err != nil {
		t.Skip("cannot create fifo:", err)
	}

	src, err := OpenPipe(path)
	if err != nil {
		t.Fatal("failed to open pipe:", err)
	}
	defer src.Close()

	buf := make([]byte, 64)

	// No writer has connected yet.
	if n, err := src.Read(buf); n != 0 || err != nil {
		t.Fatalf("read (%d, %v) before a writer connected, want (0, nil)", n, err)
	}

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal("failed to open pipe for writing:", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}

	n, err := src.Read(buf)
	if err != nil {
		t.Fatal("failed to read:", err)
	}
	assertEq(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf[:n])

	if _, err := src.Read(buf); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("got error %v from an empty pipe, want ErrWouldBlock", err)
	}
}

func TestOpenPipeMissing(t *testing.T) {
	_, err := OpenPipe(filepath.Join(t.TempDir(), "missing.fifo"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got error %v, want os.ErrNotExist", err)
	}
}
