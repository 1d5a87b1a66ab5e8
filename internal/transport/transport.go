// Package transport fetches one keyword/window/geo combination from the
// upstream service via a black-box subprocess, in one of three
// realizations: local, under another identity, or over a secure shell.
package transport

import (
	"context"
	"time"
)

// fetchTimeout is the hard wall-clock ceiling on a single invocation.
// The control loop does not retry; it is the transport's job to give
// up cleanly once this elapses.
const fetchTimeout = 60 * time.Second

// Transport fetches one window for one keyword, optionally scoped to a
// geo. Each realization must identify itself for provenance.
type Transport interface {
	Fetch(ctx context.Context, window, keyword, geo string) ([]byte, error)
	Name() string
	Host() string
}

// result carries the outcome of one subprocess invocation before it is
// translated into the Transport error contract.
type result struct {
	stdout   []byte
	stderr   []byte
	exitCode int
	err      error
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, fetchTimeout)
}
