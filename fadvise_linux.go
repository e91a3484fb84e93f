//go:build linux

package onebrc

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the descriptor will be read front
// to back. Best effort; failures are ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
