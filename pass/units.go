package pass

import (
	"errors"

	"github.com/willf/bitset"
)

// MaxTextureUnits is the number of texture units a pass may use.
const MaxTextureUnits = 16

var ErrNoUnits = errors.New("out of texture units")

// units hands out texture units within one pass. Reserved units stay taken
// across resets.
type units struct {
	set      bitset.BitSet
	reserved []uint
}

func newUnits(reserved ...int) *units {
	u := &units{}
	for _, r := range reserved {
		u.reserved = append(u.reserved, uint(r))
	}
	u.reset()
	return u
}

func (u *units) reset() {
	u.set.ClearAll()
	for _, r := range u.reserved {
		u.set.Set(r)
	}
}

// next returns the lowest free unit.
func (u *units) next() (int, error) {
	for i := uint(0); i < MaxTextureUnits; i++ {
		if !u.set.Test(i) {
			u.set.Set(i)
			return int(i), nil
		}
	}
	return -1, ErrNoUnits
}

// taken returns the units handed out since the last reset.
func (u *units) taken() []int {
	var out []int
	for i := uint(0); i < MaxTextureUnits; i++ {
		if u.set.Test(i) && !u.isReserved(i) {
			out = append(out, int(i))
		}
	}
	return out
}

func (u *units) isReserved(i uint) bool {
	for _, r := range u.reserved {
		if r == i {
			return true
		}
	}
	return false
}
