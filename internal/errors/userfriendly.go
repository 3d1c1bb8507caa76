package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps network errors with user-friendly context
func WrapNetworkError(err error, ip string, port int) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to communicate with slave at %s:%d", ip, port),
		Reason:  extractNetworkReason(err),
		Hint:    "The target may not be a Modbus TCP slave, or there may be a network connectivity issue",
		Try:     fmt.Sprintf("mbsim read --ip %s --port %d --table holding --addr 0 --count 1", ip, port),
		Err:     err,
	}
}

// WrapListenError wraps listener startup errors with user-friendly context
func WrapListenError(err error, ip string, port int) error {
	if err == nil {
		return nil
	}

	hint := "Another process may already be bound to this address"
	if port < 1024 {
		hint = "Ports below 1024 usually need elevated privileges; try --listen-port 1502"
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to listen on %s:%d", ip, port),
		Reason:  extractNetworkReason(err),
		Hint:    hint,
		Try:     "mbsim server --listen-port 1502",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Generate a fresh config with the interactive wizard",
		Try:     "mbsim init",
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timeout - target may be offline or unreachable"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - target may not be listening on this port"
	}
	if strings.Contains(errStr, "no route to host") {
		return "No route to host - network routing issue or target unreachable"
	}
	if strings.Contains(errStr, "connection reset") {
		return "Connection reset - target closed the connection unexpectedly"
	}
	if strings.Contains(errStr, "address already in use") {
		return "Address already in use - another listener owns this port"
	}
	if strings.Contains(errStr, "permission denied") {
		return "Permission denied - the port may require elevated privileges"
	}

	return "Network communication failed"
}
