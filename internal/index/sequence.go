// Package index hands out document ids per table.
package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/hkloudou/lakeops/internal/encode"
)

// Sequence generates increasing document ids, one counter per table.
// Ids start at 1.
type Sequence interface {
	// Next returns the next id for table.
	Next(ctx context.Context, table string) (int64, error)

	// Seed raises the counter so the next id is greater than floor.
	// A counter already past floor is left alone.
	Seed(ctx context.Context, table string, floor int64) error

	// Reset drops the counter; ids restart at 1.
	Reset(ctx context.Context, table string) error
}

// MemorySequence keeps counters in process memory
type MemorySequence struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{last: make(map[string]int64)}
}

func (s *MemorySequence) Next(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[table]++
	return s.last[table], nil
}

func (s *MemorySequence) Seed(ctx context.Context, table string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if floor > s.last[table] {
		s.last[table] = floor
	}
	return nil
}

func (s *MemorySequence) Reset(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.last, table)
	return nil
}

// makeSeqKey format: {prefix}:seq:{encoded table}
func makeSeqKey(prefix, table string) string {
	if prefix == "" {
		panic("prefix is not set")
	}
	return fmt.Sprintf("%s:seq:%s", prefix, encode.EncodeRedisTableName(table))
}
