package throughput

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Known failure modes. Anything not matching one of these with errors.Is is
// an unexpected transport error.
var (
	// ErrHostUnreachable means the sender could not resolve the target host.
	ErrHostUnreachable = errors.New("host is not reachable")
	// ErrConnect means the target host did not accept the connection.
	ErrConnect = errors.New("unable to connect to host")
	// ErrBind means the receiver's port is already in use.
	ErrBind = errors.New("port already in use")
	// ErrAcceptTimeout means no sender connected within the accept window.
	ErrAcceptTimeout = errors.New("no connection within the accept window")
)

// DialError maps an error returned by a dialer onto ErrHostUnreachable or
// ErrConnect. Other errors are returned unchanged.
func DialError(err error) error {
	if err == nil {
		return nil
	}
	var dnsErr *net.DNSError
	var addrErr *net.AddrError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &addrErr):
		return fmt.Errorf("%w: %v", ErrHostUnreachable, err)
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ETIMEDOUT),
		os.IsTimeout(err):
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return err
}

// ListenError maps EADDRINUSE onto ErrBind. Other errors are returned
// unchanged.
func ListenError(err error) error {
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("%w: %v", ErrBind, err)
	}
	return err
}

// AcceptError maps an expired accept deadline onto ErrAcceptTimeout. Other
// errors are returned unchanged.
func AcceptError(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAcceptTimeout, err)
	}
	return err
}
