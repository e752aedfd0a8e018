package errors

import (
	stderr "errors"
	"fmt"
)

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderr.Is(err, target)
}

// ErrNoEditor reports that a context carries no editor connection.
var ErrNoEditor = New("no editor connection in context")

// UnsupportedPlatformError reports that no server build is published for the host machine.
type UnsupportedPlatformError struct {
	OS   string
	Arch string
}

// Error is an implementation of the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no aidl-lsp build for platform %q, arch %q", e.OS, e.Arch)
}

// IsUnsupportedPlatform reports whether an UnsupportedPlatformError is part of the error chain.
func IsUnsupportedPlatform(e error) bool {
	var u *UnsupportedPlatformError
	return stderr.As(e, &u)
}

// LaunchError reports that the server executable could not be started.
type LaunchError struct {
	Path string
	Err  error
}

// Error is an implementation of the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchFailure reports whether a LaunchError is part of the error chain.
func IsLaunchFailure(e error) bool {
	var l *LaunchError
	return stderr.As(e, &l)
}

// HandshakeError reports that the server started but did not complete its initialize handshake.
type HandshakeError struct {
	Err error
}

// Error is an implementation of the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("language server handshake: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsHandshakeFailure reports whether a HandshakeError is part of the error chain.
func IsHandshakeFailure(e error) bool {
	var h *HandshakeError
	return stderr.As(e, &h)
}
