// Package snowflake generates Mastodon-compatible 64-bit time-ordered IDs.
//
// Layout, high bit first:
//
//	+--------------------------------------------------------------------+
//	| 1 bit unused | 41 bit timestamp | 10 bit worker | 12 bit sequence  |
//	+--------------------------------------------------------------------+
//
// The timestamp is milliseconds since a configurable epoch (default: the
// Twitter epoch, 2010-11-04T01:42:54.657Z). IDs from one generator are
// strictly increasing; ties within a millisecond consume the sequence and a
// full sequence stalls until the next millisecond.
package snowflake

import (
	"sync"
	"time"
)

// Epoch is the default custom epoch in Unix milliseconds (Twitter's).
const Epoch int64 = 1288834974657

const (
	workerBits   = 10
	sequenceBits = 12

	maxWorker   = (1 << workerBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	timestampShift = workerBits + sequenceBits
	workerShift    = sequenceBits
)

// Generator mints snowflake IDs. All mutable state is guarded by mu: exactly
// one Generate call makes progress at a time.
type Generator struct {
	mu       sync.Mutex
	epoch    int64
	workerID int64
	lastTS   int64
	sequence int64

	// now is swappable for tests.
	now func() int64
}

// NewGenerator creates a generator with the default epoch and worker 0.
func NewGenerator() *Generator {
	return NewGeneratorWithOptions(Epoch, 0)
}

// NewGeneratorWithOptions creates a generator with a custom epoch (Unix
// milliseconds) and worker identity. Worker IDs outside [0, 1023] are masked.
func NewGeneratorWithOptions(epoch int64, workerID int64) *Generator {
	return &Generator{
		epoch:    epoch,
		workerID: workerID & maxWorker,
		lastTS:   -1,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Generate returns the next ID. IDs are strictly increasing within this
// generator instance. Wall-clock regressions stall until time catches up.
func (g *Generator) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	for ts < g.lastTS {
		// Clock stepped backwards (NTP); wait it out.
		time.Sleep(time.Duration(g.lastTS-ts) * time.Millisecond)
		ts = g.now()
	}

	if ts == g.lastTS {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond; spin to the next.
			for ts <= g.lastTS {
				ts = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTS = ts

	return (ts-g.epoch)<<timestampShift | g.workerID<<workerShift | g.sequence
}

// Timestamp recovers the Unix-millisecond timestamp embedded in id, relative
// to the given epoch.
func Timestamp(id int64, epoch int64) int64 {
	return (id >> timestampShift) + epoch
}
