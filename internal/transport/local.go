package transport

import "context"

// LocalTransport runs the fetcher script directly as a child process of
// the dispatcher.
type LocalTransport struct {
	script string
}

// NewLocalTransport returns a Transport that invokes script in-process.
func NewLocalTransport(script string) *LocalTransport {
	return &LocalTransport{script: script}
}

func (t *LocalTransport) Fetch(ctx context.Context, window, keyword, geo string) ([]byte, error) {
	args := []string{window, keyword}
	if geo != "" {
		args = append(args, geo)
	}
	return run(ctx, t.Name(), t.script, args, nil)
}

func (t *LocalTransport) Name() string { return "local:" + t.script }
func (t *LocalTransport) Host() string { return "localhost" }
