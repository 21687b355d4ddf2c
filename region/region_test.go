package region_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codetesla51/weasel/region"
)

func newRegion(t *testing.T, capacity int) *region.Region {
	t.Helper()
	r, err := region.New(capacity)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, r.Close())
	})
	return r
}

func TestNew(t *testing.T) {
	r := newRegion(t, 1024)

	require.Equal(t, 1024, r.Cap())
	require.Equal(t, 0, r.Len())
	require.Equal(t, uint64(0), r.Generation())
	require.NotZero(t, r.Base())
	require.Zero(t, r.Base()%uintptr(os.Getpagesize()), "mmap'd base should be page aligned")
	require.False(t, r.Fixed())
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := region.New(capacity)
		require.ErrorIs(t, err, region.ErrReservationFailed)
	}
}

func TestNew_UnalignedFixedAddress(t *testing.T) {
	_, err := region.New(1024, region.WithFixedAddress(0x1001))
	require.ErrorIs(t, err, region.ErrReservationFailed)
}

func TestRegion_MemoryIsZeroed(t *testing.T) {
	r := newRegion(t, 4096)

	a, err := r.AllocBytes(4096)
	require.NoError(t, err)
	buf, err := a.Bytes()
	require.NoError(t, err)
	for i, b := range buf {
		require.Zero(t, b, "byte %d should be zero", i)
	}
}

func TestRegion_Alloc(t *testing.T) {
	r := newRegion(t, 64)

	a, err := r.Alloc(3, 1)
	require.NoError(t, err)
	require.Equal(t, 0, a.Offset())
	require.Equal(t, 3, a.Len())
	require.Equal(t, 3, r.Len())

	// The next allocation gets rounded up to its alignment.
	b, err := r.Alloc(8, 8)
	require.NoError(t, err)
	require.Equal(t, 8, b.Offset())
	require.Equal(t, 16, r.Len())

	c, err := r.Alloc(1, 16)
	require.NoError(t, err)
	require.Equal(t, 16, c.Offset())
	require.Equal(t, 17, r.Len())

	// Allocations never overlap.
	abuf, _ := a.Bytes()
	bbuf, _ := b.Bytes()
	copy(abuf, "abc")
	copy(bbuf, "01234567")
	require.Equal(t, "abc", string(abuf))
	require.Equal(t, "01234567", string(bbuf))
}

func TestRegion_AllocDefaultAlignment(t *testing.T) {
	r := newRegion(t, 64)

	_, err := r.AllocBytes(1)
	require.NoError(t, err)
	a, err := r.AllocBytes(1)
	require.NoError(t, err)
	require.Equal(t, region.WordAlign, a.Offset())
}

func TestRegion_AllocExhausted(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []int
		align  int
		cursor int
	}{
		{"single oversized", []int{2048}, 8, 0},
		{"fills exactly then overflows", []int{1024, 1}, 1, 1024},
		{"padding pushes past capacity", []int{1017, 8}, 8, 1017},
		{"cumulative overflow", []int{512, 256, 256, 8}, 8, 1024},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegion(t, 1024)

			last := len(tc.sizes) - 1
			for _, size := range tc.sizes[:last] {
				_, err := r.Alloc(size, tc.align)
				require.NoError(t, err)
			}
			require.Equal(t, tc.cursor, r.Len())

			_, err := r.Alloc(tc.sizes[last], tc.align)
			require.ErrorIs(t, err, region.ErrAllocationExhausted)
			require.Equal(t, tc.cursor, r.Len(), "cursor must not move on a failed allocation")
		})
	}
}

func TestRegion_AllocInvalidArguments(t *testing.T) {
	r := newRegion(t, 1024)

	for _, align := range []int{0, -8, 3, 12, os.Getpagesize() * 2} {
		_, err := r.Alloc(8, align)
		require.ErrorIs(t, err, region.ErrInvalidAlignment, "align=%d", align)
	}

	_, err := r.Alloc(-1, 8)
	require.ErrorIs(t, err, region.ErrInvalidSize)
	require.Equal(t, 0, r.Len())
}

func TestRegion_AllocZero(t *testing.T) {
	r := newRegion(t, 8)

	_, err := r.AllocBytes(8)
	require.NoError(t, err)

	a, err := r.AllocBytes(0)
	require.NoError(t, err)
	buf, err := a.Bytes()
	require.NoError(t, err)
	require.Empty(t, buf)
}

func TestRegion_Reset(t *testing.T) {
	r := newRegion(t, 1024)

	// Generation independence: whatever happened before a reset, a full
	// sized allocation afterwards succeeds.
	for i := range 5 {
		for {
			if _, err := r.Alloc(100+i, 8); err != nil {
				require.ErrorIs(t, err, region.ErrAllocationExhausted)
				break
			}
		}
		r.Reset()
		require.Equal(t, 0, r.Len())
		require.Equal(t, uint64(2*i+1), r.Generation(), "two resets per pass")

		a, err := r.AllocBytes(r.Cap())
		require.NoError(t, err)
		require.Equal(t, 0, a.Offset())
		r.Reset()
	}
}

func TestRegion_ResetDoesNotZero(t *testing.T) {
	r := newRegion(t, 64)

	a, err := r.AllocBytes(5)
	require.NoError(t, err)
	buf, _ := a.Bytes()
	copy(buf, "hello")

	r.Reset()

	b, err := r.AllocBytes(5)
	require.NoError(t, err)
	buf, _ = b.Bytes()
	require.Equal(t, "hello", string(buf))
}

func TestAllocation_StaleAfterReset(t *testing.T) {
	r := newRegion(t, 64)

	a, err := r.AllocBytes(16)
	require.NoError(t, err)
	require.True(t, a.Valid())

	r.Reset()

	require.False(t, a.Valid())
	_, err = a.Bytes()
	require.ErrorIs(t, err, region.ErrStaleAllocation)

	b, err := r.AllocBytes(16)
	require.NoError(t, err)
	require.Equal(t, a.Generation()+1, b.Generation())
	_, err = b.Bytes()
	require.NoError(t, err)
}

func TestAllocation_ZeroValue(t *testing.T) {
	var a region.Allocation
	require.False(t, a.Valid())
	_, err := a.Bytes()
	require.ErrorIs(t, err, region.ErrStaleAllocation)
}

func TestRegion_Peak(t *testing.T) {
	r := newRegion(t, 1024)

	_, err := r.Alloc(600, 8)
	require.NoError(t, err)
	r.Reset()
	_, err = r.Alloc(100, 8)
	require.NoError(t, err)

	require.Equal(t, 600, r.Peak())
	require.Equal(t, region.Stats{
		Base:       r.Base(),
		Capacity:   1024,
		InUse:      100,
		Peak:       600,
		Generation: 1,
	}, r.Stats())
}

func TestRegion_Close(t *testing.T) {
	r, err := region.New(1024)
	require.NoError(t, err)

	a, err := r.AllocBytes(8)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.False(t, a.Valid())
	require.PanicsWithValue(t, "region: use after Close()", func() {
		_, _ = r.AllocBytes(8)
	})
	require.Panics(t, r.Reset)
}
