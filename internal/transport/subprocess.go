package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"

	"github.com/trendvane/siftcore/internal/types"
)

// structuredErrorExitCode is the subprocess convention for a structured
// upstream error: the process exits 5 and writes a small JSON error
// body to stdout instead of a payload.
const structuredErrorExitCode = 5

// structuredError mirrors the subprocess JSON error envelope.
type structuredError struct {
	Error struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

// run spawns name with args, optionally piping stdin, and enforces the
// 60-second fetch timeout. It translates the subprocess's exit
// convention into the Transport error contract: a structured upstream
// error on exit code 5, FetcherFatal on anything else non-zero.
func run(ctx context.Context, transportName string, name string, args []string, stdin []byte) ([]byte, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return stdout.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && exitErr.ExitCode() == structuredErrorExitCode {
		var se structuredError
		if jsonErr := json.Unmarshal(stdout.Bytes(), &se); jsonErr == nil {
			return nil, &types.FetcherResponseError{Code: se.Error.Code, Msg: se.Error.Msg}
		}
		return nil, &types.FetcherFatal{
			Transport: transportName,
			Stdout:    stdout.String(),
			Stderr:    stderr.String(),
			Err:       errors.New("exit code 5 but stdout was not a valid structured error"),
		}
	}

	return nil, &types.FetcherFatal{
		Transport: transportName,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Err:       runErr,
	}
}

// stdinPayload builds the three-line newline-delimited protocol used by
// the secure-shell realization: window, keyword, and an optional geo
// line (empty when absent — the remote launcher decides presence by
// whether the third line is empty).
func stdinPayload(window, keyword, geo string) []byte {
	return []byte(window + "\n" + keyword + "\n" + geo + "\n")
}
