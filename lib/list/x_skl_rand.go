package list

import (
	randv2 "math/rand/v2"
	"time"
)

// randomLevel flips until the first false.
// P = 1/2, so the expected level is 2.
func randomLevel(coin SklCoin, maxLevel int32) int32 {
	level := int32(1)
	for level < maxLevel && coin.Flip() {
		level++
	}
	return level
}

type pcgCoin struct {
	r *randv2.Rand
}

func (c *pcgCoin) Flip() bool {
	return c.r.Uint64()&0x1 == 0x1
}

// NewPCGCoin returns a fair coin that repeats for the same seed.
func NewPCGCoin(seed uint64) SklCoin {
	return &pcgCoin{
		r: randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func newRandCoin() SklCoin {
	return NewPCGCoin(uint64(time.Now().UnixNano()) | 0x1)
}

// SequenceCoin replays flips in order and keeps returning false once
// they are exhausted.
func SequenceCoin(flips ...bool) SklCoin {
	i := 0
	return SklCoinFunc(func() bool {
		if i >= len(flips) {
			return false
		}
		flip := flips[i]
		i++
		return flip
	})
}
