package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeScript writes an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fetch.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLocalTransportSuccess(t *testing.T) {
	script := writeScript(t, `echo -n '{"time":{}}'`)
	tr := NewLocalTransport(script)

	out, err := tr.Fetch(context.Background(), "2022-01-01T00 2022-01-01T12", "golang", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"time":{}}` {
		t.Errorf("got %q", out)
	}
}

func TestLocalTransportStructuredError(t *testing.T) {
	script := writeScript(t, `echo -n '{"error":{"code":500,"msg":"upstream overloaded"}}'; exit 5`)
	tr := NewLocalTransport(script)

	_, err := tr.Fetch(context.Background(), "2022-01-01T00 2022-01-01T12", "golang", "")
	respErr, ok := err.(interface{ IsHTTP500() bool })
	if !ok {
		t.Fatalf("expected a FetcherResponseError, got %T: %v", err, err)
	}
	if !respErr.IsHTTP500() {
		t.Errorf("expected IsHTTP500() true")
	}
}

func TestLocalTransportFatalOnNonzeroExit(t *testing.T) {
	script := writeScript(t, `echo "boom" 1>&2; exit 1`)
	tr := NewLocalTransport(script)

	_, err := tr.Fetch(context.Background(), "2022-01-01T00 2022-01-01T12", "golang", "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPoolRoundRobin(t *testing.T) {
	a := NewLocalTransport(writeScript(t, `echo -n a`))
	b := NewLocalTransport(writeScript(t, `echo -n b`))
	p := NewPool([]Transport{a, b})

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first != a || second != b || third != a {
		t.Errorf("expected a,b,a rotation, got %v,%v,%v", first.Name(), second.Name(), third.Name())
	}
}
