package dispatcher

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirmAcceptsYes(t *testing.T) {
	for _, in := range []string{"y\n", "yes\n", "Y\n", "YES\n"} {
		var out bytes.Buffer
		if !Confirm(strings.NewReader(in), &out, "replay? ") {
			t.Errorf("Confirm(%q) = false, want true", in)
		}
	}
}

func TestConfirmRejectsAnythingElse(t *testing.T) {
	for _, in := range []string{"n\n", "\n", "no\n", "maybe\n"} {
		var out bytes.Buffer
		if Confirm(strings.NewReader(in), &out, "replay? ") {
			t.Errorf("Confirm(%q) = true, want false", in)
		}
	}
}

func TestConfirmPrintsPrompt(t *testing.T) {
	var out bytes.Buffer
	Confirm(strings.NewReader("y\n"), &out, "replay 3 rows? ")
	if !strings.Contains(out.String(), "replay 3 rows?") {
		t.Errorf("prompt not written to output: %q", out.String())
	}
}
