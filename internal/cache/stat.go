package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// CacheStat tracks hit/miss counts and logs them periodically
type CacheStat struct {
	name         string
	hit          atomic.Uint64
	miss         atomic.Uint64
	sizeCallback func() int
	log          logr.Logger
	stop         chan struct{}
	once         sync.Once
}

// NewCacheStat starts a stat loop logging every interval. Call Close to
// stop it.
func NewCacheStat(name string, log logr.Logger, interval time.Duration, sizeCallback func() int) *CacheStat {
	st := &CacheStat{
		name:         name,
		sizeCallback: sizeCallback,
		log:          log,
		stop:         make(chan struct{}),
	}
	go st.statLoop(interval)
	return st
}

func (cs *CacheStat) IncrementHit() {
	cs.hit.Add(1)
}

func (cs *CacheStat) IncrementMiss() {
	cs.miss.Add(1)
}

// Close stops the stat loop.
func (cs *CacheStat) Close() {
	cs.once.Do(func() { close(cs.stop) })
}

func (cs *CacheStat) statLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.flush()
		case <-cs.stop:
			return
		}
	}
}

// flush logs and resets the counters. Nothing is logged for an idle period.
func (cs *CacheStat) flush() (hit, miss uint64) {
	hit = cs.hit.Swap(0)
	miss = cs.miss.Swap(0)
	total := hit + miss
	if total == 0 {
		return 0, 0
	}

	size := 0
	if cs.sizeCallback != nil {
		size = cs.sizeCallback()
	}
	cs.log.V(1).Info("cache stat",
		"name", cs.name,
		"requests", total,
		"hitRatio", float64(hit)/float64(total),
		"elements", size,
		"hit", hit,
		"miss", miss)
	return hit, miss
}
