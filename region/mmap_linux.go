//go:build linux

package region

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// reserve maps size bytes of anonymous private memory. A non-zero addr asks
// for that exact address; MAP_FIXED_NOREPLACE keeps the kernel from
// clobbering an existing mapping, and kernels that predate the flag treat
// addr as a hint, which is caught by comparing the result.
func reserve(size int, addr uintptr) ([]byte, error) {
	flags := unix.MAP_ANON | unix.MAP_PRIVATE
	if addr != 0 {
		flags |= unix.MAP_FIXED_NOREPLACE
	}

	ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), uintptr(size), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, errors.Wrapf(ErrReservationFailed, "mmap %d bytes: %v", size, err)
	}
	if addr != 0 && uintptr(ptr) != addr {
		_ = unix.MunmapPtr(ptr, uintptr(size))
		return nil, errors.Wrapf(ErrReservationFailed, "mmap placed region at %#x, want %#x", uintptr(ptr), addr)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func release(mem []byte) error {
	if err := unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(mem)), uintptr(len(mem))); err != nil {
		return errors.Wrap(err, "munmap")
	}
	return nil
}
