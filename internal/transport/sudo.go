package transport

import "context"

// SudoTransport runs the fetcher script under another local identity via
// an elevator binary (e.g. sudo), dropping to the configured user/group.
type SudoTransport struct {
	elevator string
	user     string
	group    string
	script   string
}

// NewSudoTransport returns a Transport that invokes script as user:group
// via elevator (typically "sudo").
func NewSudoTransport(elevator, user, group, script string) *SudoTransport {
	return &SudoTransport{elevator: elevator, user: user, group: group, script: script}
}

func (t *SudoTransport) Fetch(ctx context.Context, window, keyword, geo string) ([]byte, error) {
	args := []string{"-u", t.user, "-g", t.group, "/bin/sh", t.script, "fetch", window, keyword}
	if geo != "" {
		args = append(args, geo)
	}
	return run(ctx, t.Name(), t.elevator, args, nil)
}

func (t *SudoTransport) Name() string { return "sudo:" + t.user + "@" + t.script }
func (t *SudoTransport) Host() string { return "localhost" }
