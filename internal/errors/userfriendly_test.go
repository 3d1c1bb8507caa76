package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserFriendlyErrorFormatting(t *testing.T) {
	err := UserFriendlyError{
		Message: "Failed to communicate with slave at 10.0.0.5:502",
		Reason:  "Connection refused",
		Hint:    "Check the port",
		Try:     "mbsim read --ip 10.0.0.5",
		Err:     errors.New("dial tcp: connection refused"),
	}
	out := err.Error()
	for _, want := range []string{"Failed to communicate", "Reason:", "Hint:", "Try:", "Details:"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted error missing %q:\n%s", want, out)
		}
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	wrapped := WrapNetworkError(inner, "127.0.0.1", 502)
	if !errors.Is(wrapped, inner) {
		t.Error("wrapped error should unwrap to the inner error")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if WrapNetworkError(nil, "127.0.0.1", 502) != nil {
		t.Error("WrapNetworkError(nil) should be nil")
	}
	if WrapListenError(nil, "0.0.0.0", 502) != nil {
		t.Error("WrapListenError(nil) should be nil")
	}
	if WrapConfigError(nil, "mbsim.yaml") != nil {
		t.Error("WrapConfigError(nil) should be nil")
	}
}

func TestExtractNetworkReason(t *testing.T) {
	cases := []struct {
		err  string
		want string
	}{
		{"dial tcp: i/o timeout", "timeout"},
		{"dial tcp: connection refused", "refused"},
		{"no route to host", "No route"},
		{"read: connection reset by peer", "reset"},
		{"listen tcp: address already in use", "already in use"},
		{"listen tcp :502: bind: permission denied", "Permission denied"},
		{"something else", "Network communication failed"},
	}
	for _, tc := range cases {
		got := extractNetworkReason(errors.New(tc.err))
		if !strings.Contains(got, tc.want) {
			t.Errorf("extractNetworkReason(%q) = %q, want mention of %q", tc.err, got, tc.want)
		}
	}
}

func TestWrapListenErrorPrivilegedPortHint(t *testing.T) {
	err := WrapListenError(fmt.Errorf("bind: permission denied"), "0.0.0.0", 502)
	if !strings.Contains(err.Error(), "1502") {
		t.Errorf("privileged-port hint missing:\n%s", err)
	}
}
