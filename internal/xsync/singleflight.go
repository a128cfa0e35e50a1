package xsync

import "golang.org/x/sync/singleflight"

// SingleFlight collapses concurrent calls for the same key into one.
type SingleFlight[T any] struct {
	g *singleflight.Group
}

func NewSingleFlight[T any]() SingleFlight[T] {
	return SingleFlight[T]{g: &singleflight.Group{}}
}

// Do runs fn once per in-flight key and hands every caller the same result.
func (s SingleFlight[T]) Do(key string, fn func() (T, error)) (T, error) {
	v, err, _ := s.g.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Forget drops key so the next Do calls fn again.
func (s SingleFlight[T]) Forget(key string) {
	s.g.Forget(key)
}
