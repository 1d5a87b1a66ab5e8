package transport

import "context"

// SSHTransport fetches over a secure shell channel, delegating to a
// remote launcher script that reads the three-line protocol from
// standard input.
type SSHTransport struct {
	sshBinary string
	user      string
	host      string
}

// NewSSHTransport returns a Transport that dials user@host over ssh.
func NewSSHTransport(sshBinary, user, host string) *SSHTransport {
	return &SSHTransport{sshBinary: sshBinary, user: user, host: host}
}

func (t *SSHTransport) Fetch(ctx context.Context, window, keyword, geo string) ([]byte, error) {
	args := []string{"-T", t.user + "@" + t.host}
	return run(ctx, t.Name(), t.sshBinary, args, stdinPayload(window, keyword, geo))
}

func (t *SSHTransport) Name() string { return "ssh:" + t.user + "@" + t.host }
func (t *SSHTransport) Host() string { return t.host }
