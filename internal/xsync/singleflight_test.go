package xsync

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlightCollapsesCalls(t *testing.T) {
	sf := NewSingleFlight[int]()
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := sf.Do("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n < 1 || n > int32(len(results)) {
		t.Fatalf("unexpected call count %d", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("result %d = %d", i, v)
		}
	}
}

func TestSingleFlightError(t *testing.T) {
	sf := NewSingleFlight[string]()
	want := errors.New("boom")
	v, err := sf.Do("k", func() (string, error) { return "ignored", want })
	if !errors.Is(err, want) || v != "" {
		t.Fatalf("Do = (%q, %v)", v, err)
	}
}
