// Package trace records named spans on a context so one table call can be
// broken down step by step after the fact.
package trace

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

type contextKey string

const traceKey contextKey = "lakeops_trace"

// Trace holds timing information for an operation
type Trace struct {
	mu       sync.Mutex
	spans    []Span
	start    time.Time
	lastTime time.Time // end of the previous span
	opName   string
	enable   bool
}

// Span represents a timed step. Duration runs from the previous span.
type Span struct {
	Name     string
	Duration time.Duration
	Details  map[string]any
}

func newTrace(opName string) *Trace {
	now := time.Now()
	return &Trace{
		start:    now,
		lastTime: now,
		opName:   opName,
		enable:   true,
	}
}

// WithTrace attaches a new trace to ctx. Without opName the caller's
// function name is used.
func WithTrace(ctx context.Context, opName ...string) context.Context {
	name := "Operation"
	if len(opName) > 0 && opName[0] != "" {
		name = opName[0]
	} else if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
	}
	return context.WithValue(ctx, traceKey, newTrace(name))
}

// FromContext returns the trace on ctx, or a disabled trace that records
// nothing.
func FromContext(ctx context.Context) *Trace {
	if tr, ok := ctx.Value(traceKey).(*Trace); ok {
		return tr
	}
	return &Trace{}
}

// Enabled reports whether spans are being recorded.
func (t *Trace) Enabled() bool {
	return t.enable
}

// Name returns the operation name.
func (t *Trace) Name() string {
	return t.opName
}

// RecordSpan closes the current span under name and starts the next one.
func (t *Trace) RecordSpan(name string, details ...map[string]any) {
	if !t.enable {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	span := Span{Name: name, Duration: now.Sub(t.lastTime)}
	if len(details) > 0 {
		span.Details = details[0]
	}
	t.spans = append(t.spans, span)
	t.lastTime = now
}

// Total returns elapsed time since the trace started.
func (t *Trace) Total() time.Duration {
	return time.Since(t.start)
}

// Dump formats the trace, one span per line.
func (t *Trace) Dump() string {
	if !t.enable {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.spans) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Trace [%s]: Total %v ===\n", t.opName, t.Total())
	for i, span := range t.spans {
		fmt.Fprintf(&b, "[%d] %s: %v", i+1, span.Name, span.Duration)
		if len(span.Details) > 0 {
			fmt.Fprintf(&b, " %+v", span.Details)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GetSpans returns a copy of the recorded spans.
func (t *Trace) GetSpans() []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	spans := make([]Span, len(t.spans))
	copy(spans, t.spans)
	return spans
}
