package pomacli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Connection errors. A *ConnectError carries exactly one of these as its Kind.
var (
	// ErrConnectTimeout is returned when no connection was made within the
	// connect timeout.
	ErrConnectTimeout = errors.New("connection timed out")
	// ErrConnectRefused covers socket level failures: refused, unreachable,
	// unresolvable host.
	ErrConnectRefused = errors.New("connection refused or unreachable")
	// ErrConnectUnknown is returned for anything that is not a socket error.
	ErrConnectUnknown = errors.New("unexpected connection error")

	// ErrClientUsed is the cause, under ErrConnectUnknown, of a second
	// Connect on the same client.
	ErrClientUsed = errors.New("client already used, create a new one to reconnect")
)

// Send errors.
var (
	// ErrNotConnected is returned when an operation needs a live connection.
	ErrNotConnected = errors.New("not connected to server")
	// ErrWriteFailed wraps socket level write failures.
	ErrWriteFailed = errors.New("write failed")
)

// Receive errors. They never escape as session failures: the caller sees
// an empty response in all three cases.
var (
	// ErrPeerClosed means the server closed the stream before a full line
	// arrived. The client is marked disconnected.
	ErrPeerClosed = errors.New("connection closed by server")
	// ErrReceiveTimeout means no complete line arrived in time. The
	// connection stays usable.
	ErrReceiveTimeout = errors.New("timed out waiting for response")
	// ErrReceiveFailed wraps any other read error.
	ErrReceiveFailed = errors.New("receive failed")
)

// ConnectError describes a failed Connect call.
type ConnectError struct {
	Addr string
	Kind error
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Addr)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Addr, e.Err.Error())
}

// Unwrap exposes both the kind sentinel and the underlying cause to
// errors.Is and errors.As.
func (e *ConnectError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classifyConnectError maps a dial error to one of the connect kinds.
func classifyConnectError(addr string, err error) *ConnectError {
	ce := &ConnectError{Addr: addr, Err: err}
	var (
		netErr  net.Error
		opErr   *net.OpError
		dnsErr  *net.DNSError
		sysErr  *os.SyscallError
		addrErr *net.AddrError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		ce.Kind = ErrConnectTimeout
	case errors.As(err, &opErr),
		errors.As(err, &dnsErr),
		errors.As(err, &sysErr),
		errors.As(err, &addrErr):
		ce.Kind = ErrConnectRefused
	default:
		ce.Kind = ErrConnectUnknown
	}
	return ce
}
