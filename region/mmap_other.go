//go:build unix && !linux

package region

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// reserve maps size bytes of anonymous private memory. Fixed placement is
// only supported on Linux.
func reserve(size int, addr uintptr) ([]byte, error) {
	if addr != 0 {
		return nil, errors.Wrap(ErrReservationFailed, "fixed address regions are only supported on linux")
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(ErrReservationFailed, "mmap %d bytes: %v", size, err)
	}
	return mem, nil
}

func release(mem []byte) error {
	return errors.Wrap(unix.Munmap(mem), "munmap")
}
