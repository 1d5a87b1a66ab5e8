package transport

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/trendvane/siftcore/internal/config"
)

// entry pairs a Transport with its per-transport bookkeeping.
type entry struct {
	transport   Transport
	errorCount  atomic.Int64
	fiveHundred atomic.Int64
}

// Pool is the dispatcher's in-memory bookkeeping over a fixed set of
// transports: round-robin index and per-transport error counters. It
// owns no durable state — the relational store is the sole source of
// truth for requests.
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	rrIndex int
}

// NewPool builds a Pool from resolved Transport instances.
func NewPool(transports []Transport) *Pool {
	entries := make([]*entry, len(transports))
	for i, t := range transports {
		entries[i] = &entry{transport: t}
	}
	return &Pool{entries: entries}
}

// BuildFromConfig resolves a Pool from TransportSpec descriptors,
// skipping inactive entries.
func BuildFromConfig(specs []config.TransportSpec) (*Pool, error) {
	var transports []Transport
	for _, s := range specs {
		if !s.Active {
			continue
		}
		t, err := fromSpec(s)
		if err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("no active transports configured")
	}
	return NewPool(transports), nil
}

func fromSpec(s config.TransportSpec) (Transport, error) {
	switch s.Type {
	case "popen":
		return NewLocalTransport(s.Script), nil
	case "sudo":
		return NewSudoTransport("sudo", s.User, s.Group, s.Script), nil
	case "ssh":
		return NewSSHTransport("ssh", s.User, s.Host), nil
	default:
		return nil, fmt.Errorf("unknown transport type %q", s.Type)
	}
}

// Len returns the number of active transports in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the round-robin-next transport and advances the index.
// The advance happens regardless of the caller's eventual outcome with
// the returned transport, per the control loop's dispatch step.
func (p *Pool) Next() Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entries[p.rrIndex]
	p.rrIndex = (p.rrIndex + 1) % len(p.entries)
	return e.transport
}

// RecordError increments the error counter for the given transport.
func (p *Pool) RecordError(t Transport) {
	p.forEntry(t, func(e *entry) { e.errorCount.Add(1) })
}

// Record500 increments the 500-class error counter for the given
// transport, used for the dispatcher's transient-failure metric.
func (p *Pool) Record500(t Transport) {
	p.forEntry(t, func(e *entry) { e.fiveHundred.Add(1) })
}

// ErrorCounts returns a snapshot of per-transport error and 500 counts,
// keyed by transport name.
func (p *Pool) ErrorCounts() map[string][2]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][2]int64, len(p.entries))
	for _, e := range p.entries {
		out[e.transport.Name()] = [2]int64{e.errorCount.Load(), e.fiveHundred.Load()}
	}
	return out
}

func (p *Pool) forEntry(t Transport, f func(*entry)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.transport == t {
			f(e)
			return
		}
	}
}
