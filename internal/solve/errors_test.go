package solve

import (
	"errors"
	"strings"
	"testing"
)

func TestErrServerConnectionUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	err := ErrServerConnection{URL: "http://example.com", Err: inner}

	if errors.Unwrap(err) != inner {
		t.Errorf("expected Unwrap to return the inner error")
	}
	if !errors.Is(err, inner) {
		t.Errorf("expected errors.Is to find the wrapped inner error")
	}
}

func TestErrorMessagesMentionKeyFields(t *testing.T) {
	v := mustVersion(t, "1.0.0")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"undefined project", ErrUndefinedProject{Name: "widget"}, "widget"},
		{"undefined version", ErrUndefinedProjectVersion{Name: "widget", Version: v}, "widget"},
		{"nonexisting local path", ErrNonExistingLocalPath{Path: "/no/such/dir"}, "/no/such/dir"},
		{"tampered", ErrTampered{Dep: Dep{Name: "widget", Version: v}, Reason: "size mismatch"}, "size mismatch"},
	}

	for _, c := range cases {
		if got := c.err.Error(); got == "" {
			t.Errorf("%s: empty error message", c.name)
		} else if !strings.Contains(got, c.want) {
			t.Errorf("%s: error message %q does not mention %q", c.name, got, c.want)
		}
	}
}
